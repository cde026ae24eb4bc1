// nrexport exports New Relic alert workflows, policies, conditions and
// notification channels into flat CSV files.
//
// Usage:
//
//	nrexport                       # fetch everything and write the three datasets
//	nrexport enrich                # refetch workflows, reuse the intermediate files
//	nrexport validate              # check configuration without calling the API
//
// Credentials come from NEW_RELIC_API_KEY and NEW_RELIC_ACCOUNT_ID, either in
// the environment or in a .env file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/app"
	"github.com/ksumesh431/new-relic-graphql/internal/job"
	"github.com/ksumesh431/new-relic-graphql/internal/nerdgraph"
	"github.com/ksumesh431/new-relic-graphql/internal/report"
	"github.com/ksumesh431/new-relic-graphql/ioc"
)

var version = "dev"

// clientFactory 构建 NerdGraph 客户端，测试中替换为静态数据源。
type clientFactory func(cfg app.Config, logger *zap.Logger) (nerdgraph.Client, error)

type options struct {
	configPath string
	envFile    string
	outDir     string
	logLevel   string
	output     string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, ioc.InitNerdGraphClient)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, factory clientFactory) int {
	root := newRootCmd(factory)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "nrexport: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(factory clientFactory) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "nrexport",
		Short: "Export New Relic alerting topology to CSV",
		Long: `nrexport walks every NerdGraph collection needed to describe alert routing
(policies, NRQL conditions, workflows, notification channels and destinations),
joins them, and writes:

  policies_and_conditions.csv
  channels_and_destinations.csv
  workflows_with_channels.csv`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFlow(cmd, opts, factory, (*app.Service).Export)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default "+app.DefaultConfigPath+" if present)")
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file with NEW_RELIC_* credentials (default .env if present)")
	flags.StringVar(&opts.outDir, "out", "", "output directory, overrides output.dir")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level, overrides log.level")
	flags.StringVarP(&opts.output, "output", "o", "", "print the run summary to stdout: json")

	root.AddCommand(enrichCmd(opts, factory))
	root.AddCommand(validateCmd(opts))
	return root
}

func enrichCmd(opts *options, factory clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Rebuild workflows_with_channels.csv from the intermediate files",
		Long: `Refetch workflows only and join them against the previously written
policies_and_conditions.csv and channels_and_destinations.csv in the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFlow(cmd, opts, factory, (*app.Service).Enrich)
		},
	}
}

func validateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check configuration and credentials presence without calling the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := job.NewScheduler(cfg, nil, nil).Validate(); err != nil {
				return &app.ConfigurationError{Field: "sync.cron", Reason: err.Error()}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok: account %d, endpoint %s, output %s\n",
				cfg.NewRelic.AccountID, cfg.NewRelic.Endpoint, cfg.Output.Dir)
			return nil
		},
	}
}

func loadConfig(opts *options) (app.Config, error) {
	cfg, err := app.LoadConfig(opts.configPath, opts.envFile)
	if err != nil {
		return cfg, err
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, cfg.Validate()
}

func runFlow(cmd *cobra.Command, opts *options, factory clientFactory, flow func(*app.Service, context.Context) (report.Summary, error)) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := ioc.InitLogger(cfg)
	if err != nil {
		return &app.ConfigurationError{Field: "log.level", Reason: err.Error()}
	}
	defer logger.Sync()

	ctx := cmd.Context()
	client, err := factory(cfg, logger)
	if err != nil {
		return err
	}
	svc, cleanup, err := ioc.InitAppService(ctx, cfg, client, ioc.InitBatchMetrics(), logger)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := flow(svc, ctx)
	if err != nil {
		return err
	}
	if opts.output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return nil
}
