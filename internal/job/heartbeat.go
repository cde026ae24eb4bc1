package job

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/report"
)

// StatusFunc 返回最近一次成功导出的汇总。
type StatusFunc func() (report.Summary, bool)

// Heartbeat 每小时输出一次最近导出的状态，便于从日志判断调度是否停摆。
type Heartbeat struct {
	status StatusFunc
	logger *zap.Logger
	cron   *cron.Cron
	now    func() time.Time
}

func NewHeartbeat(status StatusFunc, logger *zap.Logger) *Heartbeat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Heartbeat{status: status, logger: logger, now: time.Now}
}

// Start 启动按小时执行的心跳任务，返回停止函数。
func (h *Heartbeat) Start(parent context.Context) context.CancelFunc {
	if h == nil {
		return func() {}
	}
	c := cron.New()
	if _, err := c.AddFunc("@hourly", h.beat); err != nil {
		h.logger.Error("failed to register heartbeat job", zap.Error(err))
		return func() {}
	}
	h.cron = c
	c.Start()
	h.logger.Info("heartbeat job started")

	stop := func() {
		ctx := h.cron.Stop()
		<-ctx.Done()
		h.logger.Info("heartbeat job stopped")
	}
	go func() {
		<-parent.Done()
		stop()
	}()
	return stop
}

func (h *Heartbeat) beat() {
	if h.status == nil {
		h.logger.Info("export heartbeat")
		return
	}
	last, ok := h.status()
	if !ok {
		h.logger.Info("export heartbeat", zap.Bool("has_run", false))
		return
	}
	h.logger.Info("export heartbeat",
		zap.Bool("has_run", true),
		zap.String("last_run_id", last.RunID),
		zap.Duration("since_last_run", h.now().Sub(last.StartedAt)),
		zap.Int("skipped_records", last.TotalSkipped()))
}
