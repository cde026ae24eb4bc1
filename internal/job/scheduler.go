// Package job runs the export on a cron schedule in server mode.
package job

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/app"
)

const defaultCronSpec = "0 7 * * *"

// RunFunc 为一次被调度的导出。
type RunFunc func(context.Context) error

// Scheduler 负责基于 cron 表达式执行导出。
type Scheduler struct {
	cronExpr string
	logger   *zap.Logger
	cron     *cron.Cron
	runFunc  RunFunc
	parent   context.Context
}

// NewScheduler 根据配置构建调度器。
func NewScheduler(cfg app.Config, runFunc RunFunc, logger *zap.Logger) *Scheduler {
	spec := strings.TrimSpace(cfg.Sync.JobCron)
	if spec == "" {
		spec = defaultCronSpec
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cronExpr: spec, logger: logger, runFunc: runFunc}
}

// Validate 检查 cron 表达式（标准 5 段格式）。
func (s *Scheduler) Validate() error {
	_, err := cron.ParseStandard(s.cronExpr)
	return err
}

// Start 启动调度器，返回用于停止任务的函数。
func (s *Scheduler) Start(parent context.Context) context.CancelFunc {
	if s == nil {
		return func() {}
	}
	s.parent = parent
	c := cron.New(cron.WithLogger(cronLogger{s.logger.Named("cron")}))
	id, err := c.AddJob(s.cronExpr, s.job())
	if err != nil {
		s.logger.Error("failed to register cron job", zap.String("cron", s.cronExpr), zap.Error(err))
		return func() {}
	}
	s.cron = c
	c.Start()
	s.logger.Info("export scheduler started", zap.String("cron", s.cronExpr), zap.Time("next", c.Entry(id).Next))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			<-s.cron.Stop().Done()
			s.logger.Info("export scheduler stopped")
		})
	}

	go func() {
		<-parent.Done()
		stop()
	}()

	return stop
}

// job 包装单次导出：panic 被记录，上一次尚未结束时跳过本次触发。
func (s *Scheduler) job() cron.Job {
	l := cronLogger{s.logger.Named("cron")}
	return cron.NewChain(cron.Recover(l), cron.SkipIfStillRunning(l)).Then(cron.FuncJob(s.runOnce))
}

func (s *Scheduler) runOnce() {
	if s.runFunc == nil {
		s.logger.Warn("export function not configured")
		return
	}

	runCtx := context.Background()
	if s.parent != nil {
		if s.parent.Err() != nil {
			s.logger.Info("scheduler context cancelled, skip export")
			return
		}
		runCtx = s.parent
	}

	start := time.Now()
	err := s.runFunc(runCtx)
	elapsed := time.Since(start)
	switch {
	case errors.Is(err, app.ErrExportRunning):
		s.logger.Warn("export triggered elsewhere is still running, skip current schedule")
	case err != nil:
		s.logger.Error("scheduled export failed", zap.Duration("duration", elapsed), zap.String("stage", app.StageOf(err)), zap.Error(err))
	default:
		s.logger.Info("scheduled export completed", zap.Duration("duration", elapsed))
	}
}

// cronLogger 把 cron.Logger 接到 zap 上。
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
