package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"anisync/internal/changeset"
	"anisync/internal/config"
	"anisync/internal/store"
	"anisync/internal/syncer"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var saveChangeset bool
	var changesetPath string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync watch history to the AniList profile",
		Long: `Fetches the Crunchyroll watch history, matches each entry against the
AniList catalog, and updates list progress for every new episode or movie.

With --dry-run everything is evaluated but nothing is written. With
--save-changeset the planned updates are written to a reviewable JSON file
instead of being applied; apply it later with 'anisync changeset apply'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if err := cfg.RequireSourceAuth(); err != nil {
					return err
				}

				opts := syncer.Options{
					DryRun: dryRun || cfg.Sync.DryRun,
					Retry:  retryPolicy(),
				}
				if saveChangeset || changesetPath != "" {
					path := changesetPath
					if path == "" {
						path = filepath.Join(cfg.Paths.ChangesetDir, changeset.DefaultFilename(time.Now()))
					}
					opts.ChangesetPath = path
				} else if !opts.DryRun {
					if err := cfg.RequireDestinationAuth(); err != nil {
						return err
					}
				}

				runner := ctx.newRunner(cfg, st, logger, opts)
				report, err := runner.Run(cmd.Context())
				if report != nil {
					printReport(cmd, report)
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate everything without writing updates")
	cmd.Flags().BoolVar(&saveChangeset, "save-changeset", false, "Record planned updates to a changeset file instead of applying them")
	cmd.Flags().StringVar(&changesetPath, "changeset-path", "", "Destination for the recorded changeset (implies --save-changeset)")
	return cmd
}

func printReport(cmd *cobra.Command, report *syncer.Report) {
	out := cmd.OutOrStdout()

	headers := []string{"Fetched", "Matched", "Updated", "Suppressed", "Skipped", "Failed"}
	rows := [][]string{{
		fmt.Sprint(report.Fetched),
		fmt.Sprint(report.Matched),
		fmt.Sprint(report.Updated),
		fmt.Sprint(report.Suppressed),
		fmt.Sprint(report.Skipped),
		fmt.Sprint(report.Failed),
	}}
	aligns := []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))

	switch {
	case report.DryRun:
		fmt.Fprintln(out, "Dry run; no updates were applied.")
	case report.ChangesetPath != "":
		fmt.Fprintf(out, "Changeset recorded to %s\n", report.ChangesetPath)
	}

	for _, failure := range report.Failures {
		fmt.Fprintf(out, "failed: %s (episode %d): %s\n", failure.SeriesTitle, failure.EpisodeNumber, failure.Reason)
	}
}
