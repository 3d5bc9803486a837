package tasks

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartScheduler запускает периодическое выполнение job по cron-выражению.
// Используется, когда загрузчик работает как долгоживущий процесс, а не
// однократный запуск.
func StartScheduler(log *zap.Logger, spec string, job func()) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, err
	}
	c.Start()
	log.Info("Cron-планировщик запущен", zap.String("schedule", spec))
	return c, nil
}
