package etl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/models"
)

// Синхронизация справочников. Порядок вызовов важен: поздние справочники
// резолвят внешние ключи по уже загруженным таблицам. Истории нет —
// изменяемые поля перезаписываются по естественному id.

func (r *Runner) syncSystemState(ctx context.Context) {
	week, err := r.client.CurrentWeek(ctx)
	if err != nil {
		r.log.Error("Не удалось получить текущую неделю", zap.Error(err))
		return
	}
	state := models.SystemState{Key: "current_week", Value: strconv.Itoa(week)}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		r.log.Error("Не удалось обновить system_state", zap.Error(err))
	}
}

func (r *Runner) syncFaculties(ctx context.Context) error {
	r.log.Info("Синхронизация факультетов...")
	data, err := r.client.Faculties(ctx)
	if err != nil {
		return err
	}
	for _, item := range data {
		fac := models.Faculty{ID: item.ID, Name: item.Name, Abbr: item.Abbrev}
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "abbr"}),
		}).Create(&fac).Error
		if err != nil {
			return fmt.Errorf("факультет %d: %w", item.ID, err)
		}
	}
	return nil
}

func (r *Runner) syncDepartments(ctx context.Context) error {
	r.log.Info("Синхронизация кафедр...")
	data, err := r.client.Departments(ctx)
	if err != nil {
		return err
	}
	for _, item := range data {
		name := item.Name
		if name == "" {
			name = item.NameAbbrev
		}
		abbr := item.Abbrev
		if abbr == "" {
			abbr = truncate(name, 50)
		}
		dep := models.Department{
			ID:    item.ID,
			Name:  name,
			Abbr:  abbr,
			URLID: strconv.FormatInt(item.ID, 10),
		}
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "abbr"}),
		}).Create(&dep).Error
		if err != nil {
			return fmt.Errorf("кафедра %d: %w", item.ID, err)
		}
	}
	return nil
}

func (r *Runner) syncSpecialities(ctx context.Context) error {
	r.log.Info("Синхронизация специальностей...")
	data, err := r.client.Specialities(ctx)
	if err != nil {
		return err
	}

	facultyIDs, err := r.loadIDSet(ctx, &models.Faculty{})
	if err != nil {
		return err
	}

	for _, item := range data {
		// Неизвестный факультет лечится заглушкой, чтобы ссылочная
		// целостность не блокировала загрузку специальностей.
		if !facultyIDs[item.FacultyID] {
			stub := models.Faculty{
				ID:   item.FacultyID,
				Name: fmt.Sprintf("Unknown Faculty %d", item.FacultyID),
				Abbr: fmt.Sprintf("UNK-%d", item.FacultyID),
			}
			if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&stub).Error; err != nil {
				return fmt.Errorf("заглушка факультета %d: %w", item.FacultyID, err)
			}
			facultyIDs[item.FacultyID] = true
		}

		eduForm := "Unknown"
		if item.EducationForm != nil {
			switch {
			case item.EducationForm.Name != "":
				eduForm = item.EducationForm.Name
			case item.EducationForm.ID != 0:
				eduForm = strconv.FormatInt(item.EducationForm.ID, 10)
			}
		}

		spec := models.Speciality{
			ID:            item.ID,
			Name:          item.Name,
			Abbr:          item.Abbrev,
			Code:          item.Code,
			EducationForm: eduForm,
			FacultyID:     item.FacultyID,
		}
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "abbr", "code", "faculty_id"}),
		}).Create(&spec).Error
		if err != nil {
			return fmt.Errorf("специальность %d: %w", item.ID, err)
		}
	}
	return nil
}

func (r *Runner) syncEmployees(ctx context.Context) error {
	r.log.Info("Синхронизация сотрудников...")
	data, err := r.client.Employees(ctx)
	if err != nil {
		return err
	}

	// Кафедры резолвятся по имени или аббревиатуре без учёта регистра.
	var departments []models.Department
	if err := r.db.WithContext(ctx).Find(&departments).Error; err != nil {
		return err
	}
	deptByName := make(map[string]int64, len(departments)*2)
	for _, d := range departments {
		if d.Name != "" {
			deptByName[normalizeKey(d.Name)] = d.ID
		}
		if d.Abbr != "" {
			deptByName[normalizeKey(d.Abbr)] = d.ID
		}
	}

	for _, item := range data {
		// Без urlId расписание сотрудника не запросить — пропуск.
		if item.URLID == "" {
			continue
		}

		emp := models.Employee{
			ID:         item.ID,
			FirstName:  item.FirstName,
			LastName:   item.LastName,
			MiddleName: item.MiddleName,
			Degree:     item.Degree,
			Rank:       item.Rank,
			PhotoLink:  item.PhotoLink,
			CalendarID: item.CalendarID,
			URLID:      item.URLID,
		}
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rank", "degree", "url_id"}),
		}).Create(&emp).Error
		if err != nil {
			return fmt.Errorf("сотрудник %d: %w", item.ID, err)
		}

		// Связи с кафедрами пересоздаются целиком.
		if err := r.db.WithContext(ctx).Where("employee_id = ?", item.ID).Delete(&models.DepartmentEmployee{}).Error; err != nil {
			return fmt.Errorf("связи сотрудника %d: %w", item.ID, err)
		}

		seen := map[int64]bool{}
		var links []models.DepartmentEmployee
		for _, ref := range item.AcademicDepartment {
			if ref.Value == "" {
				continue
			}
			did, ok := deptByName[normalizeKey(ref.Value)]
			if !ok || seen[did] {
				continue
			}
			seen[did] = true
			links = append(links, models.DepartmentEmployee{DepartmentID: did, EmployeeID: item.ID})
		}
		if len(links) > 0 {
			err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
			if err != nil {
				return fmt.Errorf("связи сотрудника %d: %w", item.ID, err)
			}
		}
	}
	return nil
}

func (r *Runner) syncAuditories(ctx context.Context) error {
	r.log.Info("Синхронизация аудиторий...")
	data, err := r.client.Auditories(ctx)
	if err != nil {
		return err
	}

	deptIDs, err := r.loadIDSet(ctx, &models.Department{})
	if err != nil {
		return err
	}

	for _, item := range data {
		buildName := ""
		if item.BuildingNumber != nil {
			buildName = item.BuildingNumber.Name
		}
		if buildName == "" && item.BuildingNumberID != 0 {
			buildName = fmt.Sprintf("%d к.", item.BuildingNumberID)
		}

		finalName := auditoryDisplayName(item.Name, buildName)

		// Политика незнакомых кафедр: вложенный объект кафедры лечится
		// заглушкой, голый departmentId без известной строки — обнуляется.
		deptID := item.DepartmentID
		if item.Department != nil && item.Department.IDDepartment != 0 {
			did := item.Department.IDDepartment
			if !deptIDs[did] {
				name := item.Department.Name
				if name == "" {
					name = fmt.Sprintf("Dept %d", did)
				}
				abbr := item.Department.Abbrev
				if abbr == "" {
					abbr = fmt.Sprintf("D-%d", did)
				}
				stub := models.Department{ID: did, Name: name, Abbr: abbr, URLID: strconv.FormatInt(did, 10)}
				if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&stub).Error; err != nil {
					return fmt.Errorf("заглушка кафедры %d: %w", did, err)
				}
				deptIDs[did] = true
			}
			deptID = &did
		}
		if deptID != nil && !deptIDs[*deptID] {
			deptID = nil
		}

		aud := models.Auditory{
			ID:           item.ID,
			Name:         finalName,
			Note:         item.Note,
			Capacity:     item.Capacity,
			DepartmentID: deptID,
		}
		if buildName != "" {
			bn := truncate(buildName, 10)
			aud.BuildingNumber = &bn
		}
		if item.AuditoryType != nil && item.AuditoryType.Name != "" {
			at := item.AuditoryType.Name
			aud.AuditoryType = &at
		}
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "capacity"}),
		}).Create(&aud).Error
		if err != nil {
			return fmt.Errorf("аудитория %d: %w", item.ID, err)
		}
	}
	return nil
}

// auditoryDisplayName дополняет сырое имя аудитории корпусом, если тот
// ещё не упомянут в имени.
func auditoryDisplayName(rawName, buildName string) string {
	if buildName == "" || strings.Contains(rawName, buildName) {
		return rawName
	}
	return rawName + "-" + buildName
}

func (r *Runner) loadIDSet(ctx context.Context, model any) (map[int64]bool, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(model).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
