package ioc

import (
	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/app"
	"github.com/ksumesh431/new-relic-graphql/pkg/logging"
)

// InitLogger 构建全局 logger。
func InitLogger(cfg app.Config) (*zap.Logger, error) {
	return logging.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
}
