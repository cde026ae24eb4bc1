package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ksumesh431/new-relic-graphql/internal/app"
	"github.com/ksumesh431/new-relic-graphql/ioc"
)

func main() {
	configPath := flag.String("config", "", "config file (default "+app.DefaultConfigPath+")")
	envFile := flag.String("env-file", "", "dotenv file with NEW_RELIC_* credentials (default .env)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv, cleanup, err := InitApp(ctx, ioc.ConfigPath(*configPath), ioc.EnvFile(*envFile))
	if err != nil {
		log.Fatalf("init app failed: %v", err)
	}
	defer cleanup()

	if err := srv.Run(ctx); err != nil {
		log.Printf("app run failed: %v", err)
	}
	srv.Shutdown(context.Background())
}
