package storage

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/config"
	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/models"
)

// Connect открывает подключение к PostgreSQL. Хэндл передаётся дальше
// по ссылке, пакет глобального состояния не держит.
func Connect(cfg config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}
	return db, nil
}

// Migrate приводит схему к актуальному виду.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SystemState{},
		&models.Faculty{},
		&models.Department{},
		&models.Employee{},
		&models.DepartmentEmployee{},
		&models.Speciality{},
		&models.StudentGroup{},
		&models.Auditory{},
		&models.ScheduleJsonStorage{},
		&models.ScheduleEvent{},
		&models.OccupancyIndex{},
	)
}
