package ioc

import (
	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/app"
	"github.com/ksumesh431/new-relic-graphql/internal/nerdgraph"
)

// InitNerdGraphClient 构建 NerdGraph HTTP 客户端。
func InitNerdGraphClient(cfg app.Config, logger *zap.Logger) (nerdgraph.Client, error) {
	return nerdgraph.NewHTTPClient(nerdgraph.HTTPConfig{
		Endpoint:          cfg.NewRelic.Endpoint,
		AccountID:         cfg.NewRelic.AccountID,
		TokenSource:       &nerdgraph.StaticTokenSource{Value: cfg.NewRelic.APIKey},
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.NewRelic.RequestsPerSecond,
		Logger:            logger.Named("nerdgraph"),
	})
}
