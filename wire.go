//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/ksumesh431/new-relic-graphql/ioc"
	"github.com/ksumesh431/new-relic-graphql/pkg/server"
)

func InitApp(ctx context.Context, path ioc.ConfigPath, envFile ioc.EnvFile) (*server.HTTPServer, func(), error) {
	panic(wire.Build(
		ioc.InitConfig,
		ioc.InitLogger,
		ioc.InitNerdGraphClient,
		ioc.InitServerMetrics,
		ioc.InitGatherer,
		ioc.InitAppService,
		ioc.InitExportHandler,
		ioc.InitGinEngine,
		ioc.InitScheduler,
		ioc.InitHeartbeat,
		server.NewHTTPServer,
	))
}
