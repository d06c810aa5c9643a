package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/vueconv/pkg/diagnostic"
)

const (
	statusConverted = "converted"
	statusUnchanged = "unchanged"
	statusFailed    = "failed"
)

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}

// renderSummary prints one row per file and the totals.
func renderSummary(w io.Writer, reports []fileReport) {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"File", "Size", "Class", "Bindings", "Warnings", "Status"})

	var (
		totalBytes uint64
		converted  int
		warnings   int
	)

	for _, report := range reports {
		totalBytes += uint64(report.Size)

		if report.Err != nil {
			tbl.AppendRow(table.Row{report.Path, humanize.Bytes(uint64(report.Size)), "", "", "", statusFailed})

			continue
		}

		result := report.Result
		status := statusUnchanged

		if result.Converted {
			status = statusConverted
			converted++
		}

		fileWarnings := result.Diagnostics.Count(diagnostic.SeverityWarning)
		warnings += fileWarnings

		tbl.AppendRow(table.Row{
			report.Path,
			humanize.Bytes(uint64(report.Size)),
			result.Class,
			len(result.Bindings),
			fileWarnings,
			status,
		})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d files", len(reports)),
		humanize.Bytes(totalBytes),
		fmt.Sprintf("%d converted", converted),
		"",
		warnings,
		"",
	})

	fmt.Fprintln(w, tbl.Render())
}
