package ioc

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/app"
	"github.com/ksumesh431/new-relic-graphql/internal/router"
)

// InitExportHandler 构建导出 HTTP 处理器。
func InitExportHandler(svc *app.Service, logger *zap.Logger) *router.ExportHandler {
	return router.NewExportHandler(svc, logger.Named("http"))
}

// InitGinEngine 构建 gin 引擎。
func InitGinEngine(handler *router.ExportHandler, gatherer prometheus.Gatherer) *gin.Engine {
	return router.NewEngine(handler, gatherer)
}
