package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/dossier/internal/maintenance"
)

func newResplitCommand(ctx *commandContext) *cobra.Command {
	var (
		documentFlag string
		scopeFlag    string
		dryRun       bool
		perPage      bool
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "resplit",
		Short: "Re-run barcode segmentation on stored PDFs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := optionalUUID(documentFlag, "document id")
			if err != nil {
				return err
			}

			d, err := ctx.ensureDomain(cmd.Context())
			if err != nil {
				return err
			}
			scope, err := scopeID(cmd.Context(), d, scopeFlag)
			if err != nil {
				return err
			}

			report, err := d.Maintenance.Resplit(cmd.Context(), maintenance.ResplitOptions{
				DocumentID: docID,
				ScopeID:    scope,
				DryRun:     dryRun,
				PerPage:    perPage,
				Timeout:    timeout,
			})
			if err != nil {
				return err
			}
			return writeReport(cmd, ctx, report)
		},
	}

	cmd.Flags().StringVar(&documentFlag, "document", "", "Only resplit this document id")
	cmd.Flags().StringVar(&scopeFlag, "scope", "", "Only documents of this eight-digit scope")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be split without writing")
	cmd.Flags().BoolVar(&perPage, "per-page", false, "Make every page its own document")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Barcode scan timeout per page (0 uses the configured default)")
	return cmd
}

func newRepairCommand(ctx *commandContext) *cobra.Command {
	var (
		scopeFlag string
		dryRun    bool
		rescan    bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Re-resolve employees of documents needing review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.ensureDomain(cmd.Context())
			if err != nil {
				return err
			}
			scope, err := scopeID(cmd.Context(), d, scopeFlag)
			if err != nil {
				return err
			}

			report, err := d.Maintenance.Repair(cmd.Context(), maintenance.RepairOptions{
				ScopeID: scope,
				DryRun:  dryRun,
				Rescan:  rescan,
				Timeout: timeout,
			})
			if err != nil {
				return err
			}
			return writeReport(cmd, ctx, report)
		},
	}

	cmd.Flags().StringVar(&scopeFlag, "scope", "", "Only documents of this eight-digit scope")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	cmd.Flags().BoolVar(&rescan, "rescan", false, "Scan the first pages of PDFs with no detected id")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Barcode scan timeout per page (0 uses the configured default)")
	return cmd
}

func newReclassifyCommand(ctx *commandContext) *cobra.Command {
	var (
		scopeFlag string
		all       bool
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Run the matching rules over stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.ensureDomain(cmd.Context())
			if err != nil {
				return err
			}
			scope, err := scopeID(cmd.Context(), d, scopeFlag)
			if err != nil {
				return err
			}

			report, err := d.Maintenance.Reclassify(cmd.Context(), maintenance.ReclassifyOptions{
				All:     all,
				ScopeID: scope,
				DryRun:  dryRun,
			})
			if err != nil {
				return err
			}
			return writeReport(cmd, ctx, report)
		},
	}

	cmd.Flags().StringVar(&scopeFlag, "scope", "", "Only documents of this eight-digit scope")
	cmd.Flags().BoolVar(&all, "all", false, "Include documents that already have a type")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report matches without writing")
	return cmd
}

func newFileCommand(ctx *commandContext) *cobra.Command {
	var (
		scopeFlag string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "file",
		Short: "File every classified, unfiled document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.ensureDomain(cmd.Context())
			if err != nil {
				return err
			}
			scope, err := scopeID(cmd.Context(), d, scopeFlag)
			if err != nil {
				return err
			}

			report, err := d.Maintenance.AutoFile(cmd.Context(), scope, dryRun)
			if err != nil {
				return err
			}
			return writeReport(cmd, ctx, report)
		},
	}

	cmd.Flags().StringVar(&scopeFlag, "scope", "", "Only documents of this eight-digit scope")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the backlog without filing")
	return cmd
}

func newPeriodsCommand(ctx *commandContext) *cobra.Command {
	var (
		force  bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Backfill period year and month from the archive folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.ensureDomain(cmd.Context())
			if err != nil {
				return err
			}

			report, err := d.Maintenance.Periods(cmd.Context(), force, dryRun)
			if err != nil {
				return err
			}
			return writeReport(cmd, ctx, report)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite periods already set")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing")
	return cmd
}
