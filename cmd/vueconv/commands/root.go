package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/vueconv/pkg/version"
)

// NewRootCommand assembles the vueconv command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vueconv",
		Short: "Convert Vue class components to the Composition API",
		Long: `vueconv rewrites Vue class components written with vue-property-decorator
into Composition API components, as defineComponent({ setup() }) or as
<script setup>.

Commands:
  convert   Convert files, directories or stdin
  inspect   Show how class members are classified
  rules     Manage refinement rules
  serve     HTTP conversion API
  mcp       MCP server for AI agents
  lsp       Language server`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(FlagConfig, "", "config file (default is .vueconv.yaml in the working or home directory)")
	rootCmd.PersistentFlags().BoolP(FlagVerbose, "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP(FlagQuiet, "q", false, "suppress output")

	rootCmd.AddCommand(NewConvertCommand())
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewRulesCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewMCPCommand())
	rootCmd.AddCommand(NewLSPCommand())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()

			if jsonOut {
				data, err := json.Marshal(info)
				if err != nil {
					return fmt.Errorf("encode version: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), string(data))

				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), info.String())

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print version information as JSON")

	return cmd
}
