package etl

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/iisclient"
)

func mustParseDoc(t *testing.T, raw string) *iisclient.ScheduleDocument {
	t.Helper()
	doc, err := iisclient.ParseScheduleDocument([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

func TestFlattenDocumentLessons(t *testing.T) {
	doc := mustParseDoc(t, `{
		"schedules": {
			"Понедельник": [
				{"subject":"ОАиП","subjectFullName":"Основы алгоритмизации и программирования",
				 "startLessonTime":"08:00","endLessonTime":"09:35","weekNumber":[1,3],
				 "auditories":[{"id":1,"name":"110-4 к."}],"numSubgroup":2,
				 "employees":[{"lastName":"Иванов","firstName":"Пётр"}],
				 "studentGroups":[{"name":"253501"}]},
				{"subject":"Ломаная пара","startLessonTime":"чепуха","endLessonTime":"09:35"}
			],
			"Выдуманный день": [
				{"subject":"Не попадёт","startLessonTime":"10:00","endLessonTime":"11:35"}
			]
		},
		"exams": []
	}`)

	events := flattenDocument("253501", EntityGroup, doc)
	// Нечитаемое время и незнакомый день недели отбрасываются молча.
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "253501", ev.EntityName)
	assert.Equal(t, EntityGroup, ev.EntityType)
	assert.Equal(t, "ОАиП", ev.Subject)
	assert.Equal(t, "Основы алгоритмизации и программирования", ev.SubjectFull)
	require.NotNil(t, ev.DayOfWeek)
	assert.Equal(t, 1, *ev.DayOfWeek)
	assert.Nil(t, ev.ExactDate)
	assert.Equal(t, "08:00:00", ev.StartTime)
	assert.Equal(t, "09:35:00", ev.EndTime)
	assert.Equal(t, pq.Int64Array{1, 3}, ev.WeekNumbers)
	assert.Equal(t, pq.StringArray{"110-4 к."}, ev.Auditories)
	assert.Equal(t, 2, ev.Subgroup)
	// Для группы в поисковый текст подмешиваются преподаватели.
	assert.Contains(t, ev.SearchText, "ОАиП")
	assert.Contains(t, ev.SearchText, "253501")
	assert.Contains(t, ev.SearchText, "110-4 к.")
	assert.Contains(t, ev.SearchText, "Иванов Пётр")
}

func TestFlattenDocumentDefaults(t *testing.T) {
	doc := mustParseDoc(t, `{
		"schedules": {
			"Вторник": [{"startLessonTime":"10:00","endLessonTime":"11:35"}]
		}
	}`)

	events := flattenDocument("253501", EntityGroup, doc)
	require.Len(t, events, 1)
	// Нет предмета — локализованная заглушка, полное имя падает на короткое.
	assert.Equal(t, "Без названия", events[0].Subject)
	assert.Equal(t, "Без названия", events[0].SubjectFull)
	// Нет недель — канонический полный набор.
	assert.Equal(t, pq.Int64Array{1, 2, 3, 4}, events[0].WeekNumbers)
}

func TestFlattenDocumentExams(t *testing.T) {
	doc := mustParseDoc(t, `{
		"schedules": {},
		"exams": [
			{"subject":"ОАиП","dateLesson":"25.01.2026","startLessonTime":"09:00","endLessonTime":"10:30"},
			{"dateLesson":"26.01.2026","startLessonTime":"зачем-то","endLessonTime":""},
			{"subject":"Без даты","startLessonTime":"09:00","endLessonTime":"10:30"}
		]
	}`)

	events := flattenDocument("253501", EntityGroup, doc)
	// Экзамен без даты пропадает, с нечитаемым временем — остаётся.
	require.Len(t, events, 2)

	first := events[0]
	require.NotNil(t, first.ExactDate)
	assert.Equal(t, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), time.Time(*first.ExactDate))
	assert.Nil(t, first.DayOfWeek)
	assert.Equal(t, "09:00:00", first.StartTime)
	assert.Empty(t, first.WeekNumbers)

	second := events[1]
	require.NotNil(t, second.ExactDate)
	assert.Equal(t, time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC), time.Time(*second.ExactDate))
	// Полуночная заглушка сохраняет дату экзамена.
	assert.Equal(t, "00:00:00", second.StartTime)
	assert.Equal(t, "00:00:00", second.EndTime)
	assert.Equal(t, "Экзамен", second.Subject)
}

func TestFlattenDocumentEmployeeViewpoint(t *testing.T) {
	doc := mustParseDoc(t, `{
		"schedules": {
			"Среда": [
				{"subject":"Физика","startLessonTime":"12:00","endLessonTime":"13:35",
				 "employees":[{"lastName":"Иванов","firstName":"Пётр"}],
				 "studentGroups":[{"name":"253501"},{"name":"253502"}]}
			]
		}
	}`)

	events := flattenDocument("ivan-petrov", EntityEmployee, doc)
	require.Len(t, events, 1)
	// Для преподавателя «другая сторона» — группы.
	assert.Contains(t, events[0].SearchText, "253501")
	assert.Contains(t, events[0].SearchText, "253502")
	assert.NotContains(t, events[0].SearchText, "Иванов")
}

func TestFlattenDocumentDeterministicOrder(t *testing.T) {
	raw := `{
		"schedules": {
			"Среда": [{"subject":"Третий","startLessonTime":"08:00","endLessonTime":"09:00"}],
			"Понедельник": [{"subject":"Первый","startLessonTime":"08:00","endLessonTime":"09:00"}],
			"Вторник": [{"subject":"Второй","startLessonTime":"08:00","endLessonTime":"09:00"}]
		}
	}`

	for i := 0; i < 10; i++ {
		events := flattenDocument("253501", EntityGroup, mustParseDoc(t, raw))
		require.Len(t, events, 3)
		assert.Equal(t, "Первый", events[0].Subject)
		assert.Equal(t, "Второй", events[1].Subject)
		assert.Equal(t, "Третий", events[2].Subject)
	}
}

func TestEnrollmentFromDocument(t *testing.T) {
	doc := mustParseDoc(t, `{
		"schedules": {
			"Понедельник": [
				{"studentGroups":[{"name":"253502","numberOfStudents":30}]},
				{"studentGroups":[{"name":"253501","numberOfStudents":0},{"name":"253501","numberOfStudents":27}]}
			]
		}
	}`)

	count, ok := enrollmentFromDocument("253501", doc)
	assert.True(t, ok)
	assert.Equal(t, 27, count)

	_, ok = enrollmentFromDocument("999999", doc)
	assert.False(t, ok)
}
