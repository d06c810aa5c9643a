package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/vueconv/pkg/refine"
)

// NewRulesCommand creates the rules command group.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage refinement rules",
		Long: `Refinement rules rewrite converted code for a project: replace
ctx.root.$router with useRouter(), this.$t with an i18n import, and so on.
Rules are an ordered YAML list; {ctx} in a pattern is the setup context name
and an import path of @framework is the configured import source.`,
	}

	cmd.AddCommand(rulesDefaultCmd(), rulesValidateCmd(), rulesListCmd())

	return cmd
}

func rulesDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the built-in rule file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(refine.DefaultRulesYAML())
			if err != nil {
				return fmt.Errorf("write rules: %w", err)
			}

			return nil
		},
	}
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate file",
		Short: "Check a rule file against the rule schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := refine.LoadRulesFile(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rules OK\n", args[0], len(rules.Rules))

			return nil
		},
	}
}

func rulesListCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules in application order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules := refine.DefaultRules()

			if file != "" {
				loaded, err := refine.LoadRulesFile(file)
				if err != nil {
					return err
				}

				rules = loaded
			}

			tbl := newTable()
			tbl.AppendHeader(table.Row{"#", "Name", "Pattern", "Import"})

			for i, rule := range rules.Rules {
				imp := ""
				if rule.Import != nil {
					imp = rule.Import.Name + " from " + rule.Import.Path
				}

				tbl.AppendRow(table.Row{i + 1, rule.Name, rule.Pattern, imp})
			}

			fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())

			return nil
		},
	}

	cmd.Flags().StringVar(&file, "rules", "", "rule file to list instead of the built-in rules")

	return cmd
}
