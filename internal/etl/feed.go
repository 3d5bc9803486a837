package etl

import (
	"time"

	"github.com/lib/pq"
)

// weekdayNumbers — канонические номера дней недели фида (1–7).
var weekdayNumbers = map[string]int{
	"Понедельник": 1,
	"Вторник":     2,
	"Среда":       3,
	"Четверг":     4,
	"Пятница":     5,
	"Суббота":     6,
	"Воскресенье": 7,
}

// weekdayNames — обратное отображение для occupancy_index.
var weekdayNames = [...]string{
	1: "Понедельник", 2: "Вторник", 3: "Среда", 4: "Четверг",
	5: "Пятница", 6: "Суббота", 7: "Воскресенье",
}

// orderedWeekdays — дни в каноническом порядке, чтобы обход документа
// был детерминированным.
var orderedWeekdays = []string{
	"Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота", "Воскресенье",
}

// expandWeeks нормализует список недель занятия: пустой список и
// сентинель [0] означают «каждую неделю» и разворачиваются в [1 2 3 4].
func expandWeeks(weeks []int) pq.Int64Array {
	if len(weeks) == 0 || (len(weeks) == 1 && weeks[0] == 0) {
		return pq.Int64Array{1, 2, 3, 4}
	}
	res := make(pq.Int64Array, 0, len(weeks))
	for _, w := range weeks {
		res = append(res, int64(w))
	}
	return res
}

// parseClock разбирает время вида «08:00» и возвращает его в форме,
// пригодной для колонки time.
func parseClock(s string) (string, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", err
	}
	return t.Format("15:04:05"), nil
}

// parseFeedDate разбирает дату фида вида «25.01.2026».
func parseFeedDate(s string) (time.Time, error) {
	return time.Parse("02.01.2006", s)
}
