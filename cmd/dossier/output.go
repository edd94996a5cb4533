package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/dossier/internal/maintenance"
	"github.com/JaimeStill/dossier/internal/scanjobs"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, colorize bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	if colorize {
		tw.Style().Color.Header = text.Colors{text.Bold, text.FgBlue}
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printTable(cmd *cobra.Command, headers []string, rows [][]string, aligns []columnAlignment) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(headers, rows, aligns, shouldColorize(out)))
}

func jobRows(jobs []scanjobs.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			j.ID.String(),
			j.Source,
			string(j.Status),
			humanize.Comma(int64(j.TotalFiles)),
			humanize.Comma(int64(j.ProcessedFiles)),
			humanize.Comma(int64(j.SkippedFiles)),
			humanize.Comma(int64(j.ErrorFiles)),
			humanize.Time(j.StartedAt),
			formatDuration(j.Duration()),
		})
	}
	return rows
}

var jobHeaders = []string{"ID", "Source", "Status", "Total", "Processed", "Skipped", "Errors", "Started", "Duration"}
var jobAligns = []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignRight}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func reportRows(r *maintenance.Report) [][]string {
	rows := make([][]string, 0, len(r.Items))
	for _, it := range r.Items {
		rows = append(rows, []string{it.DocumentID.String(), it.Filename, string(it.Action), it.Detail})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i][1] < rows[j][1] })
	return rows
}

// reportSummary counts items per action in a stable order.
func reportSummary(r *maintenance.Report) string {
	counts := make(map[maintenance.Action]int)
	var order []maintenance.Action
	for _, it := range r.Items {
		if counts[it.Action] == 0 {
			order = append(order, it.Action)
		}
		counts[it.Action]++
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	summary := fmt.Sprintf("%s document(s)", humanize.Comma(int64(len(r.Items))))
	for _, a := range order {
		summary += fmt.Sprintf(", %s %d", a, counts[a])
	}
	if r.DryRun {
		summary += " (dry run, nothing written)"
	}
	return summary
}

func writeReport(cmd *cobra.Command, ctx *commandContext, r *maintenance.Report) error {
	if ctx.jsonOutput {
		return writeJSON(cmd, r)
	}
	if len(r.Items) > 0 {
		printTable(cmd, []string{"Document", "Filename", "Action", "Detail"}, reportRows(r), nil)
	}
	fmt.Fprintln(cmd.OutOrStdout(), reportSummary(r))
	return nil
}
