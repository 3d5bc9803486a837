package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/config"
	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/etl"
	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/iisclient"
	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/logger"
	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/storage"
	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/tasks"
)

func main() {
	if os.Getenv("ENV_CHECK") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("Файл .env не найден, используются переменные окружения")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Ошибка конфигурации: ", err)
	}

	logg, err := logger.New(cfg)
	if err != nil {
		log.Fatal("Ошибка инициализации логгера: ", err)
	}
	defer logg.Sync()

	db, err := storage.Connect(cfg)
	if err != nil {
		logg.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	if err := storage.Migrate(db); err != nil {
		logg.Fatal("Ошибка миграции схемы", zap.Error(err))
	}

	client := iisclient.New(cfg)
	runner := etl.New(db, client, logg)

	if cfg.CronSchedule != "" {
		job := func() {
			if err := runner.Run(context.Background()); err != nil {
				logg.Error("Прогон ETL завершился с ошибкой", zap.Error(err))
			}
		}
		if _, err := tasks.StartScheduler(logg, cfg.CronSchedule, job); err != nil {
			logg.Fatal("Некорректное cron-выражение", zap.Error(err))
		}
		job()
		select {}
	}

	if err := runner.Run(context.Background()); err != nil {
		// Фатальная ошибка первой фазы: ненулевой код выхода.
		logg.Fatal("Прогон ETL прерван", zap.Error(err))
	}
}
