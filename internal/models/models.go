package models

import (
	"time"
)

// Справочные сущности фида IIS. Естественные идентификаторы приходят из
// источника, история не ведётся — при повторной загрузке значения
// перезаписываются (last-write-wins).

type Faculty struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"size:500;uniqueIndex;not null"`
	Abbr string `gorm:"size:50;uniqueIndex;not null"`
}

type Department struct {
	ID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Name  string `gorm:"size:500;uniqueIndex;not null"`
	Abbr  string `gorm:"size:50;uniqueIndex;not null"`
	URLID string `gorm:"column:url_id;size:100;uniqueIndex;not null"`
}

type Employee struct {
	ID         int64   `gorm:"primaryKey;autoIncrement:false"`
	FirstName  string  `gorm:"size:100;not null"`
	LastName   string  `gorm:"size:100;not null"`
	MiddleName *string `gorm:"size:100"`
	Degree     *string `gorm:"size:100"`
	Rank       *string `gorm:"size:100"`
	PhotoLink  *string `gorm:"size:500"`
	CalendarID *string `gorm:"size:500"`
	// URLID — отдельный стабильный идентификатор для запроса расписания.
	URLID string `gorm:"column:url_id;size:100;uniqueIndex;not null"`
}

// DepartmentEmployee — связь «кафедра — сотрудник». Пересоздаётся
// целиком для каждого сотрудника при каждой синхронизации.
type DepartmentEmployee struct {
	DepartmentID int64 `gorm:"primaryKey;autoIncrement:false"`
	EmployeeID   int64 `gorm:"primaryKey;autoIncrement:false"`
}

func (DepartmentEmployee) TableName() string { return "departments_employees" }

type Speciality struct {
	ID            int64  `gorm:"primaryKey;autoIncrement:false"`
	Name          string `gorm:"size:500;not null"`
	Abbr          string `gorm:"size:100;not null"`
	Code          string `gorm:"size:45;not null"`
	EducationForm string `gorm:"size:100;not null"`
	FacultyID     int64  `gorm:"not null"`
}

// StudentGroup — единственная версионируемая справочная сущность (SCD2).
// Естественный id из фида не уникален по строкам: каждая смена
// отслеживаемого поля закрывает текущую версию и открывает новую.
// Текущее состояние — проекция valid_to IS NULL.
type StudentGroup struct {
	SurrogateID      uint       `gorm:"column:surrogate_id;primaryKey"`
	GroupID          int64      `gorm:"column:id;index;not null"`
	Name             string     `gorm:"size:50;not null"`
	Course           *int
	CalendarID       *string    `gorm:"size:500"`
	EducationDegree  int        `gorm:"not null;default:1"`
	NumberOfStudents *int
	SpecialtyID      int64      `gorm:"column:specialty_id;not null"`
	ValidFrom        time.Time  `gorm:"not null"`
	ValidTo          *time.Time `gorm:"index"`
}

type Auditory struct {
	ID             int64   `gorm:"primaryKey;autoIncrement:false"`
	Name           string  `gorm:"size:100;not null"`
	BuildingNumber *string `gorm:"size:10"`
	Note           *string `gorm:"size:255"`
	Capacity       *int
	AuditoryType   *string `gorm:"size:100"`
	DepartmentID   *int64
}

// SystemState — служебная таблица ключ-значение (например, текущая
// учебная неделя). Перезаписывается каждым запуском.
type SystemState struct {
	Key       string `gorm:"size:50;primaryKey"`
	Value     string `gorm:"size:255;not null"`
	UpdatedAt time.Time
}

func (SystemState) TableName() string { return "system_state" }
