package ioc

import (
	"context"

	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/app"
	"github.com/ksumesh431/new-relic-graphql/internal/job"
)

// InitScheduler 构建定时导出调度器。
func InitScheduler(cfg app.Config, svc *app.Service, logger *zap.Logger) (*job.Scheduler, error) {
	var runFn job.RunFunc
	if svc != nil {
		runFn = func(ctx context.Context) error {
			_, err := svc.Export(ctx)
			return err
		}
	}
	s := job.NewScheduler(cfg, runFn, logger.Named("job"))
	if err := s.Validate(); err != nil {
		return nil, &app.ConfigurationError{Field: "sync.cron", Reason: err.Error()}
	}
	return s, nil
}

// InitHeartbeat 构建每小时的导出状态日志任务。
func InitHeartbeat(svc *app.Service, logger *zap.Logger) *job.Heartbeat {
	return job.NewHeartbeat(svc.LastSummary, logger.Named("heartbeat"))
}
