package ioc

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ksumesh431/new-relic-graphql/internal/metrics"
)

// InitServerMetrics 构建带运行时指标的 Recorder，用于常驻服务。
func InitServerMetrics() *metrics.Recorder {
	return metrics.NewRecorder(true)
}

// InitBatchMetrics 构建只含导出指标的 Recorder，用于 CLI 单次运行。
func InitBatchMetrics() *metrics.Recorder {
	return metrics.NewRecorder(false)
}

// InitGatherer 暴露 Recorder 的 Registry 给 /metrics。
func InitGatherer(rec *metrics.Recorder) prometheus.Gatherer {
	return rec.Gatherer()
}
