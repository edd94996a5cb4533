package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write reference data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "plan",
		Short: "Write the personnel filing plan and its retention rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.ensureDomain(cmd.Context())
			if err != nil {
				return err
			}

			res, err := d.Categories.SeedPlan(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "filing plan: %d created, %d updated\n", res.Created, res.Updated)
			return nil
		},
	})

	var scopeFlag string
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Write the payroll document types and their matching rules",
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

			res, err := d.Rules.SeedSage(cmd.Context(), scope)
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "payroll rules: %d types, %d rules created\n", res.Types, res.Rules)
			return nil
		},
	}
	rulesCmd.Flags().StringVar(&scopeFlag, "scope", "", "Restrict the rules to this eight-digit scope")
	cmd.AddCommand(rulesCmd)

	return cmd
}
