// Package metrics exposes export run metrics to Prometheus.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder 持有一次进程内所有导出指标，使用独立 Registry 以便测试。
type Recorder struct {
	Registry *prometheus.Registry

	RunDuration     prometheus.Histogram
	RunErrors       *prometheus.CounterVec
	PagesFetched    *prometheus.CounterVec
	EntitiesFetched *prometheus.GaugeVec
	RowsWritten     *prometheus.GaugeVec
	SkippedRecords  *prometheus.CounterVec
	JoinAmbiguities prometheus.Counter
	LastSuccess     prometheus.Gauge
}

// NewRecorder 创建并注册所有指标。withRuntime 为 true 时附带 Go/进程指标（server 模式）。
func NewRecorder(withRuntime bool) *Recorder {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	f := promauto.With(reg)
	return &Recorder{
		Registry: reg,
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "nrexport_run_duration_seconds",
			Help:    "单次导出耗时",
			Buckets: prometheus.DefBuckets,
		}),
		RunErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nrexport_run_errors_total",
			Help: "导出失败次数，按阶段区分",
		}, []string{"stage"}),
		PagesFetched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nrexport_pages_fetched_total",
			Help: "成功拉取的 NerdGraph 页数",
		}, []string{"entity"}),
		EntitiesFetched: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nrexport_entities_fetched",
			Help: "最近一次导出拉取到的实体数",
		}, []string{"entity"}),
		RowsWritten: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nrexport_rows_written",
			Help: "最近一次导出写出的行数",
		}, []string{"dataset"}),
		SkippedRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nrexport_skipped_records_total",
			Help: "因数据问题被跳过的记录数",
		}, []string{"entity"}),
		JoinAmbiguities: f.NewCounter(prometheus.CounterOpts{
			Name: "nrexport_join_ambiguities_total",
			Help: "重复 id 导致的连接歧义次数",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "nrexport_last_success_timestamp_seconds",
			Help: "最近一次成功导出的 unix 时间",
		}),
	}
}

// Gatherer 返回用于 /metrics 的 Gatherer。
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.Registry
}

// ObservePage 供分页器回调使用。
func (r *Recorder) ObservePage(entity string, _ int, _ int) {
	if r == nil {
		return
	}
	r.PagesFetched.WithLabelValues(entity).Inc()
}

// RunSucceeded 记录成功的导出。
func (r *Recorder) RunSucceeded(d time.Duration, fetched, rows, skipped map[string]int, ambiguities int) {
	if r == nil {
		return
	}
	r.RunDuration.Observe(d.Seconds())
	for k, v := range fetched {
		r.EntitiesFetched.WithLabelValues(k).Set(float64(v))
	}
	for k, v := range rows {
		r.RowsWritten.WithLabelValues(k).Set(float64(v))
	}
	for k, v := range skipped {
		r.SkippedRecords.WithLabelValues(k).Add(float64(v))
	}
	r.JoinAmbiguities.Add(float64(ambiguities))
	r.LastSuccess.SetToCurrentTime()
}

// RunFailed 记录失败的导出阶段。
func (r *Recorder) RunFailed(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.RunDuration.Observe(d.Seconds())
	r.RunErrors.WithLabelValues(stage).Inc()
}

// WriteTextfile 将当前指标写为 node_exporter textfile 格式，适用于 CLI 单次运行。
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Push 将指标推送到 Pushgateway，job 为分组名。
func (r *Recorder) Push(url, job string) error {
	if r == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(r.Registry).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
