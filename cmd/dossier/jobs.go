package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/dossier/internal/scanjobs"
	"github.com/JaimeStill/dossier/pkg/pagination"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect scan jobs",
	}

	var (
		source string
		status string
		limit  int
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent scan jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.ensureDomain(cmd.Context())
			if err != nil {
				return err
			}

			var filters scanjobs.Filters
			if source != "" {
				filters.Source = &source
			}
			filters.Statuses = scanjobs.ParseStatuses(status)

			page := pagination.PageRequest{Page: 1, PageSize: limit}
			page.Normalize(ctx.cfg.API.Pagination)

			result, err := d.ScanJobs.List(cmd.Context(), page, filters)
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, result)
			}
			if len(result.Data) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no scan jobs")
				return nil
			}
			printTable(cmd, jobHeaders, jobRows(result.Data), jobAligns)
			return nil
		},
	}
	listCmd.Flags().StringVar(&source, "source", "", "Filter by source (archive, manual)")
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status, comma-separated (RUNNING, COMPLETED, FAILED)")
	listCmd.Flags().IntVar(&limit, "limit", 20, "Maximum jobs to show")

	showCmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one scan job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid job id %q: %w", args[0], err)
			}

			d, err := ctx.ensureDomain(cmd.Context())
			if err != nil {
				return err
			}

			job, err := d.ScanJobs.Find(cmd.Context(), id)
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, job)
			}
			printTable(cmd, jobHeaders, jobRows([]scanjobs.Job{*job}), jobAligns)
			if job.CurrentFile != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "current file:", job.CurrentFile)
			}
			if job.ErrorMessage != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "error:", job.ErrorMessage)
			}
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}
