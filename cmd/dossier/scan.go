package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/dossier/internal/api"
	"github.com/JaimeStill/dossier/internal/scanjobs"
	"github.com/JaimeStill/dossier/internal/scanner"
)

type scanFunc func(context.Context) (scanner.Result, error)

func newScanCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Ingest new files",
	}

	cmd.AddCommand(newScanRunCommand(ctx, "archive",
		"Scan the archive tree once",
		func(d *api.Domain, retry bool) scanFunc {
			if retry {
				return d.Scanner.ScheduledArchive
			}
			return d.Scanner.RunArchive
		}))

	cmd.AddCommand(newScanRunCommand(ctx, "manual",
		"Ingest the manual input folder once",
		func(d *api.Domain, retry bool) scanFunc {
			if retry {
				return d.Scanner.ScheduledManual
			}
			return d.Scanner.RunManual
		}))

	return cmd
}

func newScanRunCommand(ctx *commandContext, use, short string, pick func(*api.Domain, bool) scanFunc) *cobra.Command {
	var retry bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.ensureDomain(cmd.Context())
			if err != nil {
				return err
			}

			res, err := pick(d, retry)(cmd.Context())
			if err != nil {
				return err
			}
			return writeScanResult(cmd, ctx, res)
		},
	}

	cmd.Flags().BoolVar(&retry, "retry", false, "Retry a failed run with the configured backoff")
	return cmd
}

func writeScanResult(cmd *cobra.Command, ctx *commandContext, res scanner.Result) error {
	if ctx.jsonOutput {
		if err := writeJSON(cmd, res); err != nil {
			return err
		}
	} else if !res.Acquired {
		fmt.Fprintln(cmd.OutOrStdout(), "scan skipped: another worker holds the lock")
		return nil
	} else {
		printTable(cmd, jobHeaders, jobRows([]scanjobs.Job{*res.Job}), jobAligns)
	}

	if res.Job != nil && res.Job.Status == scanjobs.StatusFailed {
		return fmt.Errorf("scan job %s failed: %s", res.Job.ID, res.Job.ErrorMessage)
	}
	return nil
}
