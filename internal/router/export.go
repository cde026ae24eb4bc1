package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/app"
	"github.com/ksumesh431/new-relic-graphql/internal/report"
)

// Exporter 为 HTTP 层需要的导出能力，由 *app.Service 实现。
type Exporter interface {
	Export(ctx context.Context) (report.Summary, error)
	Enrich(ctx context.Context) (report.Summary, error)
	LastSummary() (report.Summary, bool)
	Running() bool
}

// ExportHandler 负责触发导出以及查询最近一次结果。
type ExportHandler struct {
	exporter Exporter
	logger   *zap.Logger
}

// NewExportHandler 构建一个新的 ExportHandler。
func NewExportHandler(exporter Exporter, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{exporter: exporter, logger: logger}
}

// RegisterRoutes 将导出路由注册到给定的路由组。
func (h *ExportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.handleRun(h.exporter.Export, "export"))
	rg.POST("/enrich", h.handleRun(h.exporter.Enrich, "enrich"))
	rg.GET("/latest", h.handleLatest)
}

type runFunc func(ctx context.Context) (report.Summary, error)

// handleRun 默认同步执行并返回汇总；?async=true 时后台执行并立即返回 202。
func (h *ExportHandler) handleRun(run runFunc, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("async") == "true" {
			if h.exporter.Running() {
				c.JSON(http.StatusConflict, gin.H{"error": app.ErrExportRunning.Error()})
				return
			}
			go func() {
				if _, err := run(context.Background()); err != nil {
					h.logger.Error("async run failed", zap.String("run", name), zap.Error(err))
				}
			}()
			c.JSON(http.StatusAccepted, gin.H{"status": "started"})
			return
		}

		summary, err := run(c.Request.Context())
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				h.logger.Error("run failed", zap.String("run", name), zap.String("stage", app.StageOf(err)), zap.Error(err))
			}
			c.JSON(status, gin.H{"error": err.Error(), "stage": app.StageOf(err)})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func (h *ExportHandler) handleLatest(c *gin.Context) {
	summary, ok := h.exporter.LastSummary()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no export has completed yet"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrExportRunning):
		return http.StatusConflict
	case app.StageOf(err) == app.StageFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
