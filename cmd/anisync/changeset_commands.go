package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"anisync/internal/changeset"
	"anisync/internal/config"
	"anisync/internal/store"
	"anisync/internal/syncer"
)

func newChangesetCommand(ctx *commandContext) *cobra.Command {
	changesetCmd := &cobra.Command{
		Use:   "changeset",
		Short: "Inspect and apply recorded changesets",
	}

	changesetCmd.AddCommand(newChangesetShowCommand())
	changesetCmd.AddCommand(newChangesetApplyCommand(ctx))

	return changesetCmd
}

func newChangesetShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "show <file>",
		Short:       "Display the contents of a changeset file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := changeset.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Changeset %s recorded %s (%d changes)\n",
				cs.ID, cs.CreatedAt.Format("2006-01-02 15:04:05 MST"), cs.TotalChanges)

			headers := []string{"Anime", "ID", "Progress", "Status", "Type", "Source"}
			rows := make([][]string, 0, len(cs.Changes))
			for _, change := range cs.Changes {
				source := change.Source.Series
				if change.Source.IsMovie {
					source += " (movie)"
				} else if change.Source.Episode > 0 {
					source = fmt.Sprintf("%s ep %d", source, change.Source.Episode)
				}
				status := change.Status
				if status == "" {
					status = "-"
				}
				rows = append(rows, []string{
					change.AnimeTitle,
					fmt.Sprint(change.AnimeID),
					fmt.Sprint(change.Progress),
					status,
					change.UpdateType,
					source,
				})
			}
			aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func newChangesetApplyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <file>",
		Short: "Apply a recorded changeset to the AniList profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := changeset.Load(args[0])
			if err != nil {
				return err
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if err := cfg.RequireDestinationAuth(); err != nil {
					return err
				}

				runner := ctx.newRunner(cfg, st, logger, syncer.Options{Retry: retryPolicy()})
				report, err := runner.ApplyChangeset(cmd.Context(), cs)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Applied %d of %d changes (%d suppressed as duplicates, %d failed)\n",
					report.Updated, cs.TotalChanges, report.Suppressed, report.Failed)
				for _, failure := range report.Failures {
					fmt.Fprintf(out, "failed: %s (progress %d): %s\n", failure.SeriesTitle, failure.EpisodeNumber, failure.Reason)
				}
				return nil
			})
		},
	}
}
