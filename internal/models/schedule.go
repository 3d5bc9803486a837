package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ScheduleJsonStorage — версионируемый архив сырых документов расписания.
// На каждую пару (сущность, тип) в любой момент открыта не более одной
// строки; перед записью новой версии открытая закрывается valid_to.
type ScheduleJsonStorage struct {
	ID              uint           `gorm:"primaryKey"`
	GroupName       *string        `gorm:"size:100"`
	EmployeeID      *int64
	EntityType      string         `gorm:"size:50;not null"`
	Data            datatypes.JSON `gorm:"not null"`
	APILastUpdateTS *time.Time     `gorm:"column:api_last_update_ts"`
	ValidFrom       time.Time      `gorm:"not null"`
	ValidTo         *time.Time     `gorm:"index"`
}

func (ScheduleJsonStorage) TableName() string { return "schedule_json_storage" }

// ScheduleEvent — атомарное событие расписания: одна строка на занятие
// или экзамен. Для занятий заполнены день недели и список недель, для
// экзаменов — точная дата; поля взаимоисключающие. Набор строк сущности
// целиком заменяется при каждой успешной загрузке документа.
type ScheduleEvent struct {
	ID          uint            `gorm:"primaryKey"`
	EntityName  string          `gorm:"size:500;index:idx_events_entity;not null"`
	EntityType  string          `gorm:"size:50;index:idx_events_entity;not null"`
	Subject     string          `gorm:"size:255;not null"`
	SubjectFull string          `gorm:"size:255"`
	Auditories  pq.StringArray  `gorm:"type:text[];not null"`
	DayOfWeek   *int
	StartTime   string          `gorm:"type:time;not null"`
	EndTime     string          `gorm:"type:time;not null"`
	WeekNumbers pq.Int64Array   `gorm:"type:integer[];not null"`
	ExactDate   *datatypes.Date `gorm:"type:date"`
	// Сырые списки участников из фида, как есть.
	RelatedGroups    datatypes.JSON
	RelatedEmployees datatypes.JSON
	Subgroup         int `gorm:"default:0"`
	// SearchText — материализованная строка для полнотекстового поиска,
	// search_vector пересчитывается из неё на стороне БД.
	SearchText   string `gorm:"type:text"`
	SearchVector string `gorm:"type:tsvector;->"`
}

// OccupancyIndex — производная таблица занятости аудиторий. Не имеет
// собственной идентичности: при каждом запуске очищается и строится
// заново из текущих событий.
type OccupancyIndex struct {
	ID         int64          `gorm:"primaryKey"`
	DayOfWeek  string         `gorm:"size:20;not null"`
	WeekNumber int            `gorm:"not null"`
	StartTime  string         `gorm:"type:time;not null"`
	EndTime    string         `gorm:"type:time;not null"`
	AuditoryID int64          `gorm:"not null"`
	Groups     pq.StringArray `gorm:"type:text[];not null"`
}

func (OccupancyIndex) TableName() string { return "occupancy_index" }
