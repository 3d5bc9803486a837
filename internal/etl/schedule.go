package etl

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/iisclient"
	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/models"
)

// Типы сущностей расписания: точка зрения группы или преподавателя.
const (
	EntityGroup    = "group"
	EntityEmployee = "employee"
)

const (
	untitledLesson = "Без названия"
	untitledExam   = "Экзамен"
	midnight       = "00:00:00"
)

// flattenDocument разворачивает документ расписания в плоский список
// событий. Занятие с нечитаемым временем отбрасывается; экзамен с
// нечитаемым временем сохраняется с полуночным временем, чтобы не
// потерять дату, — намеренная асимметрия между повторяющимися
// занятиями и разовыми экзаменами.
func flattenDocument(entityName, entityType string, doc *iisclient.ScheduleDocument) []models.ScheduleEvent {
	var events []models.ScheduleEvent
	if doc == nil {
		return events
	}

	for _, dayName := range orderedWeekdays {
		lessons := doc.Schedules[dayName]
		if len(lessons) == 0 {
			continue
		}
		dayNum := weekdayNumbers[dayName]

		for _, lesson := range lessons {
			start, err1 := parseClock(lesson.StartLessonTime)
			end, err2 := parseClock(lesson.EndLessonTime)
			if err1 != nil || err2 != nil {
				continue
			}

			day := dayNum
			ev := newEvent(entityName, entityType, lesson, untitledLesson)
			ev.DayOfWeek = &day
			ev.StartTime = start
			ev.EndTime = end
			ev.WeekNumbers = expandWeeks(lesson.WeekNumber)
			events = append(events, ev)
		}
	}

	for _, exam := range doc.Exams {
		d, err := parseFeedDate(exam.DateLesson)
		if err != nil {
			continue
		}
		start, err1 := parseClock(exam.StartLessonTime)
		end, err2 := parseClock(exam.EndLessonTime)
		if err1 != nil || err2 != nil {
			start, end = midnight, midnight
		}

		date := datatypes.Date(d)
		ev := newEvent(entityName, entityType, exam, untitledExam)
		ev.ExactDate = &date
		ev.StartTime = start
		ev.EndTime = end
		// Пустой, но не NULL: у экзаменов недель нет.
		ev.WeekNumbers = pq.Int64Array{}
		events = append(events, ev)
	}

	return events
}

func newEvent(entityName, entityType string, l iisclient.Lesson, defaultSubject string) models.ScheduleEvent {
	subj := l.Subject
	if subj == "" {
		subj = defaultSubject
	}
	full := l.SubjectFullName
	if full == "" {
		full = subj
	}

	auds := l.Auditories.Names

	parts := []string{subj, full, entityName}
	if len(auds) > 0 {
		parts = append(parts, strings.Join(auds, " "))
	}
	// В поисковый текст подмешивается «другая сторона» отношения.
	if entityType == EntityGroup {
		parts = append(parts, l.Employees.PersonNames()...)
	} else {
		parts = append(parts, l.StudentGroups.GroupNames()...)
	}

	return models.ScheduleEvent{
		EntityName:       entityName,
		EntityType:       entityType,
		Subject:          subj,
		SubjectFull:      full,
		Auditories:       pq.StringArray(append([]string{}, auds...)),
		RelatedGroups:    datatypes.JSON(l.StudentGroups.Raw),
		RelatedEmployees: datatypes.JSON(l.Employees.Raw),
		Subgroup:         l.NumSubgroup,
		SearchText:       strings.Join(parts, " "),
	}
}

// enrollmentFromDocument ищет в занятиях группы ненулевую численность
// самой группы.
func enrollmentFromDocument(groupName string, doc *iisclient.ScheduleDocument) (int, bool) {
	for _, lessons := range doc.Schedules {
		for _, l := range lessons {
			for _, g := range l.StudentGroups.Items {
				if !g.IsString && g.Name == groupName && g.NumberOfStudents > 0 {
					return g.NumberOfStudents, true
				}
			}
		}
	}
	return 0, false
}

// processScheduleDocument записывает одну сущность: закрывает открытую
// строку архива и добавляет новую с дословным документом, затем целиком
// заменяет события сущности и пересчитывает их поисковый вектор.
func (r *Runner) processScheduleDocument(tx *gorm.DB, entityName, entityType string, employeeID *int64, doc *iisclient.ScheduleDocument) error {
	now := time.Now()

	archiveScope := tx.Model(&models.ScheduleJsonStorage{}).
		Where("entity_type = ? AND valid_to IS NULL", entityType)
	if entityType == EntityGroup {
		archiveScope = archiveScope.Where("group_name = ?", entityName)
	} else {
		if employeeID == nil {
			return fmt.Errorf("расписание сотрудника %s: нет employee_id", entityName)
		}
		archiveScope = archiveScope.Where("employee_id = ?", *employeeID)
	}
	if err := archiveScope.Update("valid_to", now).Error; err != nil {
		return fmt.Errorf("закрытие архива: %w", err)
	}

	entry := models.ScheduleJsonStorage{
		EntityType:      entityType,
		Data:            datatypes.JSON(doc.Raw),
		APILastUpdateTS: &now,
		ValidFrom:       now,
	}
	if entityType == EntityGroup {
		entry.GroupName = &entityName
	} else {
		entry.EmployeeID = employeeID
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("запись архива: %w", err)
	}

	// Побочный эффект: документ группы может уточнить её численность.
	if entityType == EntityGroup {
		if count, ok := enrollmentFromDocument(entityName, doc); ok {
			err := tx.Model(&models.StudentGroup{}).
				Where("name = ? AND valid_to IS NULL", entityName).
				Update("number_of_students", count).Error
			if err != nil {
				return fmt.Errorf("обновление численности: %w", err)
			}
		}
	}

	events := flattenDocument(entityName, entityType, doc)

	err := tx.Where("entity_name = ? AND entity_type = ?", entityName, entityType).
		Delete(&models.ScheduleEvent{}).Error
	if err != nil {
		return fmt.Errorf("очистка событий: %w", err)
	}

	if len(events) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(events, 200).Error; err != nil {
		return fmt.Errorf("вставка событий: %w", err)
	}

	err = tx.Exec(
		`UPDATE schedule_events SET search_vector = to_tsvector('russian', search_text)
		 WHERE entity_name = ? AND entity_type = ?`,
		entityName, entityType,
	).Error
	if err != nil {
		return fmt.Errorf("пересчёт search_vector: %w", err)
	}
	return nil
}
