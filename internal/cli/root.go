package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iyhunko/catalog-importer/internal/config"
	"github.com/iyhunko/catalog-importer/internal/logger"
	"github.com/iyhunko/catalog-importer/internal/menu"
	"github.com/iyhunko/catalog-importer/internal/metrics"
	"github.com/spf13/cobra"
)

type options struct {
	configFile string
	skipImport bool
	conf       *config.Config
}

// NewRootCommand builds the catalog command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Import the product catalog into SQLite and manage it",
		Long:          "Loads the product catalog CSV into a local SQLite table and opens an interactive menu to browse, edit and price it in euros.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configFile := opts.configFile
			if configFile == "" {
				configFile = os.Getenv(config.ConfigFileEnv)
			}
			conf, err := config.Load(configFile)
			if err != nil {
				return err
			}
			opts.conf = conf
			logger.InitJSONLogger(cmd.ErrOrStderr(), conf.DebugMode)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMenu(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (defaults to $CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVar(&opts.skipImport, "skip-import", false, "do not recreate the table and import the catalog on start")

	rootCmd.AddCommand(newServeCommand(opts), newNotificationsCommand(opts))
	return rootCmd
}

// Execute runs the CLI
func Execute() error {
	err := NewRootCommand().Execute()
	if err != nil {
		slog.Error("command failed", slog.Any("err", err))
	}
	return err
}

func runMenu(cmd *cobra.Command, opts *options) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	metricsServer := metrics.StartMetricsServer(opts.conf)
	defer shutdown(metricsServer)

	svc, err := newProductService(ctx, opts.conf)
	if err != nil {
		return err
	}

	if !opts.skipImport {
		startupImport(ctx, svc)
	}

	err = menu.New(svc, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
