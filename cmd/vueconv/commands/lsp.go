package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/vueconv/pkg/convert"
	"github.com/Sumatoshi-tech/vueconv/pkg/lsp"
	"github.com/Sumatoshi-tech/vueconv/pkg/observability"
)

// NewLSPCommand creates the language server command.
func NewLSPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start language server for class components (LSP)",
		Long: `Start a language server (LSP) over stdio. It reports conversion
diagnostics for .vue, .ts, .tsx and .js files and offers "Convert to
Composition API" and "Convert to <script setup>" code actions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			opts, err := cfg.ConvertOptions()
			if err != nil {
				return err
			}

			providers, err := initObservability(cmd, cfg, observability.ModeLSP, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer shutdown(providers)

			red, conversion, err := newMetrics(providers)
			if err != nil {
				return err
			}

			srv := lsp.NewServer(opts, providers.Logger,
				convert.WithTracer(providers.Tracer),
				convert.WithMetrics(red, conversion),
				convert.WithCache(cfg.Convert.CacheSize),
			)

			return srv.Run()
		},
	}

	return cmd
}
