package etl

import (
	"context"
	"fmt"
)

// rebuildOccupancy строит индекс занятости аудиторий заново: таблица
// очищается и заполняется одним запросом из текущих событий. Никакого
// инкрементального состояния — корректность достигается пересчётом.
// Берутся только события с точки зрения группы и с днём недели
// (экзамены и расписания преподавателей в индекс не входят); имена
// аудиторий, не известные справочнику, отсеиваются самим JOIN.
func (r *Runner) rebuildOccupancy(ctx context.Context) error {
	r.log.Info("Перестройка индекса занятости аудиторий...")

	db := r.db.WithContext(ctx)
	if err := db.Exec("TRUNCATE TABLE occupancy_index RESTART IDENTITY").Error; err != nil {
		return fmt.Errorf("очистка occupancy_index: %w", err)
	}

	insert := `
	INSERT INTO occupancy_index (day_of_week, week_number, start_time, end_time, auditory_id, groups)
	SELECT
		CASE se.day_of_week
			WHEN 1 THEN 'Понедельник' WHEN 2 THEN 'Вторник' WHEN 3 THEN 'Среда'
			WHEN 4 THEN 'Четверг' WHEN 5 THEN 'Пятница' WHEN 6 THEN 'Суббота' WHEN 7 THEN 'Воскресенье'
		END,
		unnested_weeks.week_num,
		se.start_time,
		se.end_time,
		a.id,
		array_agg(DISTINCT se.entity_name)
	FROM schedule_events se
	CROSS JOIN LATERAL unnest(se.week_numbers) AS unnested_weeks(week_num)
	CROSS JOIN LATERAL unnest(se.auditories) AS unnested_auds(aud_name)
	JOIN auditories a ON a.name = unnested_auds.aud_name
	WHERE se.entity_type = 'group' AND se.day_of_week IS NOT NULL
	GROUP BY se.day_of_week, unnested_weeks.week_num, se.start_time, se.end_time, a.id`

	if err := db.Exec(insert).Error; err != nil {
		return fmt.Errorf("заполнение occupancy_index: %w", err)
	}
	return nil
}
