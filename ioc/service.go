package ioc

import (
	"context"

	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/app"
	"github.com/ksumesh431/new-relic-graphql/internal/metrics"
	"github.com/ksumesh431/new-relic-graphql/internal/nerdgraph"
)

// InitAppService 构建导出服务，cleanup 关闭 Neo4j 连接。
func InitAppService(ctx context.Context, cfg app.Config, client nerdgraph.Client, rec *metrics.Recorder, logger *zap.Logger) (*app.Service, func(), error) {
	svc, err := app.NewService(ctx, cfg, client, rec, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := svc.Close(context.Background()); err != nil {
			logger.Warn("close app service failed", zap.Error(err))
		}
	}
	return svc, cleanup, nil
}
