// Package commands implements the vueconv CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/vueconv/pkg/config"
	"github.com/Sumatoshi-tech/vueconv/pkg/observability"
	"github.com/Sumatoshi-tech/vueconv/pkg/version"
)

// Persistent flag names registered on the root command.
const (
	FlagConfig  = "config"
	FlagVerbose = "verbose"
	FlagQuiet   = "quiet"
)

// loadSettings reads the file named by --config, or discovers .vueconv.yaml.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(FlagConfig)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// initObservability starts the providers for mode. Logs go to logOutput,
// which must not be stdout in the stdio server modes.
func initObservability(
	cmd *cobra.Command,
	cfg *config.Config,
	mode observability.AppMode,
	logOutput io.Writer,
	opts ...observability.Option,
) (observability.Providers, error) {
	obsCfg := cfg.ObservabilityConfig(observability.DefaultConfig())
	obsCfg.ServiceVersion = version.Get().Version
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	obsCfg.Environment = os.Getenv("VUECONV_ENV")

	if verbose, _ := cmd.Flags().GetBool(FlagVerbose); verbose {
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	}

	if quiet, _ := cmd.Flags().GetBool(FlagQuiet); quiet {
		obsCfg.LogLevel = slog.LevelError
	}

	opts = append(opts, observability.WithLogOutput(logOutput))

	providers, err := observability.Init(obsCfg, opts...)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	return providers, nil
}

func shutdown(providers observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}
