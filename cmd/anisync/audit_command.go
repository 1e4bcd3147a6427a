package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"anisync/internal/audit"
	"anisync/internal/config"
	"anisync/internal/store"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Work with the per-record sync audit trail",
	}

	auditCmd.AddCommand(newAuditExportCommand(ctx))

	return auditCmd
}

func newAuditExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	var runID string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export audit records as CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				writer := cmd.OutOrStdout()
				if outputPath != "" {
					file, err := os.Create(outputPath)
					if err != nil {
						return fmt.Errorf("create export file: %w", err)
					}
					defer file.Close()
					writer = file
				}

				count, err := audit.Export(cmd.Context(), st, writer, format, runID)
				if err != nil {
					return err
				}
				if outputPath != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported %d audit records to %s\n", count, outputPath)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", audit.FormatCSV, "Export format (csv or json)")
	cmd.Flags().StringVar(&runID, "run", "", "Limit export to one run id ('latest' for the most recent run)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
