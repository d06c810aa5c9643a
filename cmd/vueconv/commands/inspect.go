package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/vueconv/pkg/convert"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	var (
		jsonOut bool
		lang    string
	)

	cmd := &cobra.Command{
		Use:   "inspect path...",
		Short: "Show how the members of class components are classified",
		Long: `Show the props, state, computed properties, methods, watchers and
lifecycle hooks of each class component without converting it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args, lang, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the inspection as JSON")
	cmd.Flags().StringVar(&lang, "lang", "", "force the language: typescript, tsx, javascript or vue")

	return cmd
}

type inspectReport struct {
	Path       string              `json:"path"`
	Inspection *convert.Inspection `json:"inspection,omitempty"`
	Error      string              `json:"error,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string, lang string, jsonOut bool) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	opts, err := cfg.ConvertOptions()
	if err != nil {
		return err
	}

	if lang != "" {
		opts.Language, err = parseLanguage(lang)
		if err != nil {
			return err
		}
	}

	files, err := collectFiles(args, cfg.Batch.Extensions, cfg.Batch.Exclude)
	if err != nil {
		return err
	}

	conv := convert.New(opts)
	reports := make([]inspectReport, 0, len(files))
	failed := 0

	for _, path := range files {
		report := inspectReport{Path: path}

		src, _, readErr := safeReadFile(path)
		if readErr == nil {
			report.Inspection, readErr = conv.Inspect(cmd.Context(), path, src)
		}

		if readErr != nil {
			report.Error = readErr.Error()
			failed++
		}

		reports = append(reports, report)
	}

	out := cmd.OutOrStdout()

	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		if encErr := enc.Encode(reports); encErr != nil {
			return fmt.Errorf("encode JSON: %w", encErr)
		}
	} else {
		for _, report := range reports {
			renderInspection(out, report)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrConversionFailed, failed, len(reports))
	}

	return nil
}

func renderInspection(w io.Writer, report inspectReport) {
	if report.Error != "" {
		fmt.Fprintf(w, "%s: %s\n\n", report.Path, report.Error)

		return
	}

	in := report.Inspection
	if in.Class == "" {
		fmt.Fprintf(w, "%s: no class component\n\n", report.Path)

		return
	}

	fmt.Fprintf(w, "%s: %s (line %d)\n", report.Path, in.Class, in.Line)

	watchers := make([]string, 0, len(in.Watchers))
	for _, watch := range in.Watchers {
		watchers = append(watchers, watch.Handler+" <- "+watch.Target)
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Kind", "Members"})

	for _, row := range []struct {
		kind    string
		members []string
	}{
		{kind: "props", members: in.Props},
		{kind: "state", members: in.State},
		{kind: "computed", members: in.Getters},
		{kind: "setters", members: in.Setters},
		{kind: "methods", members: in.Methods},
		{kind: "watchers", members: watchers},
		{kind: "lifecycle", members: in.Lifecycle},
		{kind: "options", members: in.Passthrough},
		{kind: "emits", members: in.Emits},
	} {
		if len(row.members) > 0 {
			tbl.AppendRow(table.Row{row.kind, strings.Join(row.members, ", ")})
		}
	}

	fmt.Fprintln(w, tbl.Render())

	for _, item := range in.Diagnostics.Items {
		fmt.Fprintf(w, "  %s %s\n", item.Severity, item)
	}

	fmt.Fprintln(w)
}
