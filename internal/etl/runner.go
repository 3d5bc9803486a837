package etl

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/iisclient"
	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/models"
)

const progressEvery = 50

// Status — исход обработки одной сущности во второй фазе.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// EntityResult — явный результат по одной сущности вместо управления
// потоком через панику/исключение.
type EntityResult struct {
	Name   string
	Kind   string
	Status Status
	Err    error
}

// RunReport — сводка второй фазы.
type RunReport struct {
	Processed int
	Skipped   int
	Failed    int
}

func (rep *RunReport) add(res EntityResult) {
	switch res.Status {
	case StatusOK:
		rep.Processed++
	case StatusSkipped:
		rep.Skipped++
	case StatusFailed:
		rep.Failed++
	}
}

// Runner выполняет один прогон ETL. Владеет границей единицы работы:
// справочники пишутся напрямую, каждая сущность второй фазы — в своей
// транзакции.
type Runner struct {
	db     *gorm.DB
	client *iisclient.Client
	log    *zap.Logger
}

func New(db *gorm.DB, client *iisclient.Client, log *zap.Logger) *Runner {
	return &Runner{db: db, client: client, log: log}
}

// Run выполняет три фазы прогона. Ошибка первой фазы фатальна для
// запуска; ошибки второй и третьей логируются, но прогон считается
// состоявшимся.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("=== Запуск ETL ===")

	// Фаза 1: справочники в порядке зависимостей. Либо база приходит
	// в согласованное состояние, либо прогон прерывается целиком.
	r.syncSystemState(ctx)

	phase1 := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"факультеты", r.syncFaculties},
		{"кафедры", r.syncDepartments},
		{"специальности", r.syncSpecialities},
		{"группы", r.syncGroups},
		{"сотрудники", r.syncEmployees},
		{"аудитории", r.syncAuditories},
	}
	for _, step := range phase1 {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("фаза 1, %s: %w", step.name, err)
		}
	}
	r.log.Info("Фаза 1 (справочники) завершена")

	// Фаза 2: расписания. Ошибка одной сущности не мешает остальным.
	report := &RunReport{}
	if err := r.syncGroupSchedules(ctx, report); err != nil {
		return err
	}
	if err := r.syncEmployeeSchedules(ctx, report); err != nil {
		return err
	}
	r.log.Info("Фаза 2 (расписания) завершена",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))

	// Фаза 3: индекс занятости. Неудача не откатывает фазу 2.
	if err := r.rebuildOccupancy(ctx); err != nil {
		r.log.Error("Ошибка при перестройке индекса занятости", zap.Error(err))
	} else {
		r.log.Info("Индекс занятости перестроен")
	}

	r.log.Info("=== ETL завершён ===")
	return nil
}

func (r *Runner) syncGroupSchedules(ctx context.Context, report *RunReport) error {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.StudentGroup{}).
		Where("valid_to IS NULL").Pluck("name", &names).Error
	if err != nil {
		return fmt.Errorf("список открытых групп: %w", err)
	}
	r.log.Info("Обновление расписаний групп", zap.Int("total", len(names)))

	for idx, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := r.processGroupSchedule(ctx, name)
		report.add(res)
		if res.Status == StatusFailed {
			r.log.Error("Ошибка расписания группы", zap.String("group", name), zap.Error(res.Err))
		}
		if idx > 0 && idx%progressEvery == 0 {
			r.log.Info("Прогресс групп", zap.Int("done", idx), zap.Int("total", len(names)))
		}
	}
	return nil
}

func (r *Runner) processGroupSchedule(ctx context.Context, name string) EntityResult {
	res := EntityResult{Name: name, Kind: EntityGroup}

	doc, err := r.client.GroupSchedule(ctx, name)
	switch {
	case errors.Is(err, iisclient.ErrNotFound):
		res.Status = StatusSkipped
		return res
	case err != nil:
		res.Status, res.Err = StatusFailed, err
		return res
	case doc == nil:
		res.Status = StatusSkipped
		return res
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.processScheduleDocument(tx, name, EntityGroup, nil, doc)
	})
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	res.Status = StatusOK
	return res
}

func (r *Runner) syncEmployeeSchedules(ctx context.Context, report *RunReport) error {
	var employees []models.Employee
	err := r.db.WithContext(ctx).Where("url_id <> ''").Find(&employees).Error
	if err != nil {
		return fmt.Errorf("список сотрудников: %w", err)
	}
	r.log.Info("Обновление расписаний преподавателей", zap.Int("total", len(employees)))

	for idx, emp := range employees {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := r.processEmployeeSchedule(ctx, emp)
		report.add(res)
		if res.Status == StatusFailed {
			r.log.Error("Ошибка расписания преподавателя", zap.String("urlId", emp.URLID), zap.Error(res.Err))
		}
		if idx > 0 && idx%progressEvery == 0 {
			r.log.Info("Прогресс преподавателей", zap.Int("done", idx), zap.Int("total", len(employees)))
		}
	}
	return nil
}

func (r *Runner) processEmployeeSchedule(ctx context.Context, emp models.Employee) EntityResult {
	res := EntityResult{Name: emp.URLID, Kind: EntityEmployee}

	doc, err := r.client.EmployeeSchedule(ctx, emp.URLID)
	switch {
	case errors.Is(err, iisclient.ErrNotFound):
		res.Status = StatusSkipped
		return res
	case err != nil:
		res.Status, res.Err = StatusFailed, err
		return res
	case doc.Empty():
		res.Status = StatusSkipped
		return res
	}

	empID := emp.ID
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.processScheduleDocument(tx, emp.URLID, EntityEmployee, &empID, doc)
	})
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	res.Status = StatusOK
	return res
}
