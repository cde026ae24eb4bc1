package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/loader"
	"github.com/ksumesh431/new-relic-graphql/internal/metrics"
	"github.com/ksumesh431/new-relic-graphql/internal/nerdgraph"
	"github.com/ksumesh431/new-relic-graphql/internal/paginate"
	"github.com/ksumesh431/new-relic-graphql/internal/report"
	"github.com/ksumesh431/new-relic-graphql/internal/sink"
)

// Service 负责装配各个 Flow 并提供统一入口，同一时刻只允许一个导出运行。
type Service struct {
	cfg        Config
	neoClient  *loader.Client
	metrics    *metrics.Recorder
	ExportFlow *ExportFlow
	EnrichFlow *EnrichFlow
	logger     *zap.Logger

	mu      sync.Mutex
	running bool
	last    *report.Summary
}

// NewService 根据配置构建 Service。配置了 neo4j.uri 时会连接 Neo4j 并启用图写入。
func NewService(ctx context.Context, cfg Config, client nerdgraph.Client, rec *metrics.Recorder, logger *zap.Logger) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("nerdgraph client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	paging := paginate.Options{
		MaxPages: cfg.Sync.MaxPages,
		Attempts: cfg.Sync.Retry.Attempts,
		Backoff:  cfg.Backoff(),
	}
	csvSink := sink.NewCSVSink(cfg.Output.Dir, logger.Named("sink"))

	svc := &Service{cfg: cfg, metrics: rec, logger: logger}
	exportFlow := &ExportFlow{
		Client:   client,
		Sink:     csvSink,
		Metrics:  rec,
		Paging:   paging,
		Parallel: cfg.Sync.ParallelFetch,
		Logger:   logger.Named("export"),
	}
	if cfg.GraphEnabled() {
		neoClient, err := loader.NewClient(ctx, loader.Config{
			URI:                  cfg.Neo4j.URI,
			Username:             cfg.Neo4j.Username,
			Password:             cfg.Neo4j.Password,
			Database:             cfg.Neo4j.Database,
			MaxConnectionPool:    cfg.Neo4j.MaxConnectionPool,
			ConnectionTimeoutSec: cfg.Neo4j.ConnectTimeoutSecond,
		})
		if err != nil {
			return nil, err
		}
		svc.neoClient = neoClient
		exportFlow.Graph = loader.NewGraphSink(neoClient, cfg.Neo4j.BatchSize, logger.Named("graph"))
	}
	svc.ExportFlow = exportFlow
	svc.EnrichFlow = &EnrichFlow{
		Client:   client,
		InputDir: cfg.Output.Dir,
		Sink:     csvSink,
		Metrics:  rec,
		Paging:   paging,
		Logger:   logger.Named("enrich"),
	}
	return svc, nil
}

// Config 返回服务使用的配置。
func (s *Service) Config() Config { return s.cfg }

// Close 释放资源，可重复调用。
func (s *Service) Close(ctx context.Context) error {
	_ = s.logger.Sync()
	s.mu.Lock()
	neoClient := s.neoClient
	s.neoClient = nil
	s.mu.Unlock()
	if neoClient != nil {
		return neoClient.Close(ctx)
	}
	return nil
}

// Export 执行完整导出，已有运行时返回 ErrExportRunning。
func (s *Service) Export(ctx context.Context) (report.Summary, error) {
	if s.ExportFlow == nil {
		return report.Summary{}, fmt.Errorf("export flow is not initialised")
	}
	return s.exclusive(ctx, s.ExportFlow.Run)
}

// Enrich 基于已有中间文件重新生成最终输出。
func (s *Service) Enrich(ctx context.Context) (report.Summary, error) {
	if s.EnrichFlow == nil {
		return report.Summary{}, fmt.Errorf("enrich flow is not initialised")
	}
	return s.exclusive(ctx, s.EnrichFlow.Run)
}

// LastSummary 返回最近一次成功运行的汇总。
func (s *Service) LastSummary() (report.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return report.Summary{}, false
	}
	return *s.last, true
}

// Running 表示当前是否有导出在执行。
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) exclusive(ctx context.Context, run func(context.Context) (report.Summary, error)) (report.Summary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return report.Summary{}, ErrExportRunning
	}
	s.running = true
	s.mu.Unlock()

	summary, err := run(ctx)
	s.publishMetrics()

	s.mu.Lock()
	s.running = false
	if err == nil {
		s.last = &summary
	}
	s.mu.Unlock()
	return summary, err
}

// publishMetrics 按配置写 textfile 或推送 Pushgateway，失败只记录日志。
func (s *Service) publishMetrics() {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.WriteTextfile(s.cfg.Output.MetricsTextfile); err != nil {
		s.logger.Warn("write metrics textfile failed", zap.Error(err))
	}
	if err := s.metrics.Push(s.cfg.Output.PushgatewayURL, "nrexport"); err != nil {
		s.logger.Warn("push metrics failed", zap.Error(err))
	}
}
