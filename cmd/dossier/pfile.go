package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newPersonnelFileCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "personnel-file",
		Aliases: []string{"pf"},
		Short:   "Manage personnel files",
	}

	var date string
	closeCmd := &cobra.Command{
		Use:   "close <file-id>",
		Short: "Close a personnel file and recompute its retention",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid file id %q: %w", args[0], err)
			}

			closedAt := time.Now().UTC()
			if date != "" {
				closedAt, err = time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
			}

			d, err := ctx.ensureDomain(cmd.Context())
			if err != nil {
				return err
			}

			pf, err := d.Filing.Close(cmd.Context(), id, closedAt)
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, pf)
			}

			closed, retention := "-", "-"
			if pf.ClosedAt != nil {
				closed = pf.ClosedAt.Format(time.DateOnly)
			}
			if pf.RetentionUntil != nil {
				retention = pf.RetentionUntil.Format(time.DateOnly)
			}
			printTable(cmd,
				[]string{"File", "Status", "Closed", "Entries", "Retain until"},
				[][]string{{pf.FileNumber, string(pf.Status), closed, fmt.Sprint(pf.LastEntryNumber), retention}},
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			)
			return nil
		},
	}
	closeCmd.Flags().StringVar(&date, "date", "", "Closing date (YYYY-MM-DD, default today)")

	cmd.AddCommand(closeCmd)
	return cmd
}
