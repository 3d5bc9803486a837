package etl

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/iisclient"
	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/models"
)

// groupAction — решение по одной группе из снапшота фида.
type groupAction int

const (
	// groupNoop — текущая версия совпадает с фидом.
	groupNoop groupAction = iota
	// groupInsert — открытой версии нет, вставляется новая.
	groupInsert
	// groupVersion — изменилось отслеживаемое поле: текущая версия
	// закрывается, открывается новая с тем же естественным id.
	groupVersion
	// groupTouch — изменилась только численность: правится на месте.
	groupTouch
)

// classifyGroup сравнивает открытую версию с элементом фида.
// Отслеживаемые поля: имя, курс, специальность.
func classifyGroup(current *models.StudentGroup, item iisclient.StudentGroup) groupAction {
	if current == nil {
		return groupInsert
	}
	if current.Name != item.Name ||
		!eqIntPtr(current.Course, item.Course) ||
		current.SpecialtyID != item.SpecialityID {
		return groupVersion
	}
	if !eqIntPtr(current.NumberOfStudents, item.NumberOfStudents) {
		return groupTouch
	}
	return groupNoop
}

// syncGroups ведёт историю групп по схеме SCD2: полный снапшот фида
// сверяется с проекцией valid_to IS NULL, история только дописывается.
func (r *Runner) syncGroups(ctx context.Context) error {
	r.log.Info("Синхронизация групп (SCD2)...")
	apiGroups, err := r.client.StudentGroups(ctx)
	if err != nil {
		return err
	}
	if len(apiGroups) == 0 {
		return nil
	}

	specIDs, err := r.loadIDSet(ctx, &models.Speciality{})
	if err != nil {
		return err
	}

	var open []models.StudentGroup
	if err := r.db.WithContext(ctx).Where("valid_to IS NULL").Find(&open).Error; err != nil {
		return err
	}
	current := make(map[int64]*models.StudentGroup, len(open))
	for i := range open {
		current[open[i].GroupID] = &open[i]
	}

	now := time.Now()
	seen := make(map[int64]bool, len(apiGroups))

	for _, item := range apiGroups {
		// Группа с неизвестной специальностью — битая ссылка, пропуск.
		if !specIDs[item.SpecialityID] {
			continue
		}
		seen[item.ID] = true

		cur := current[item.ID]
		switch classifyGroup(cur, item) {
		case groupInsert:
			row := newGroupRow(item, now)
			if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("группа %d: %w", item.ID, err)
			}
		case groupVersion:
			err := r.db.WithContext(ctx).Model(&models.StudentGroup{}).
				Where("surrogate_id = ?", cur.SurrogateID).
				Update("valid_to", now).Error
			if err != nil {
				return fmt.Errorf("закрытие версии группы %d: %w", item.ID, err)
			}
			row := newGroupRow(item, now)
			if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("новая версия группы %d: %w", item.ID, err)
			}
		case groupTouch:
			err := r.db.WithContext(ctx).Model(&models.StudentGroup{}).
				Where("surrogate_id = ?", cur.SurrogateID).
				Update("number_of_students", item.NumberOfStudents).Error
			if err != nil {
				return fmt.Errorf("численность группы %d: %w", item.ID, err)
			}
		}
	}

	// Группы, пропавшие из снапшота, закрываются без удаления.
	closed := 0
	for gid, cur := range current {
		if seen[gid] {
			continue
		}
		err := r.db.WithContext(ctx).Model(&models.StudentGroup{}).
			Where("surrogate_id = ?", cur.SurrogateID).
			Update("valid_to", now).Error
		if err != nil {
			return fmt.Errorf("закрытие пропавшей группы %d: %w", gid, err)
		}
		closed++
	}
	if closed > 0 {
		r.log.Info("Закрыты версии пропавших групп", zap.Int("count", closed))
	}
	return nil
}

func newGroupRow(item iisclient.StudentGroup, now time.Time) models.StudentGroup {
	degree := item.EducationDegree
	if degree == 0 {
		degree = 1
	}
	return models.StudentGroup{
		GroupID:          item.ID,
		Name:             item.Name,
		Course:           item.Course,
		CalendarID:       item.CalendarID,
		EducationDegree:  degree,
		NumberOfStudents: item.NumberOfStudents,
		SpecialtyID:      item.SpecialityID,
		ValidFrom:        now,
	}
}

func eqIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
