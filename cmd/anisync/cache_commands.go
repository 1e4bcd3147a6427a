package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"anisync/internal/config"
	"anisync/internal/store"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached sync state",
	}

	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display cached title mappings and processed episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				out := cmd.OutOrStdout()

				mappings, err := st.ListMappings(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Title mappings (%d):\n", len(mappings))
				if len(mappings) > 0 {
					headers := []string{"Raw Title", "Anime", "ID", "Episodes", "Similarity"}
					rows := make([][]string, 0, len(mappings))
					for _, mapping := range mappings {
						if mapping.Negative {
							rows = append(rows, []string{mapping.RawTitle, "(no match)", "-", "-",
								fmt.Sprintf("%.3f", mapping.Similarity)})
							continue
						}
						rows = append(rows, []string{
							mapping.RawTitle,
							mapping.AnimeTitle,
							fmt.Sprint(mapping.AnimeID),
							fmt.Sprint(mapping.TotalEpisodes),
							fmt.Sprintf("%.3f", mapping.Similarity),
						})
					}
					aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight}
					fmt.Fprintln(out, renderTable(headers, rows, aligns))
				}

				episodes, err := st.ListProcessed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Processed episodes (%d):\n", len(episodes))
				if len(episodes) > 0 {
					headers := []string{"Series", "Episode", "Anime ID", "Processed"}
					rows := make([][]string, 0, len(episodes))
					for _, episode := range episodes {
						rows = append(rows, []string{
							episode.SeriesTitle,
							fmt.Sprint(episode.EpisodeNumber),
							fmt.Sprint(episode.AnimeID),
							episode.ProcessedAt.Format("2006-01-02 15:04"),
						})
					}
					aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignLeft}
					fmt.Fprintln(out, renderTable(headers, rows, aligns))
				}
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var clearMappings bool
	var clearProcessed bool
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearMappings && !clearProcessed && !clearAll {
				return fmt.Errorf("nothing selected; pass --mappings, --processed, or --all")
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				out := cmd.OutOrStdout()
				if clearMappings || clearAll {
					removed, err := st.ClearMappings(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d title mappings\n", removed)
				}
				if clearProcessed || clearAll {
					removed, err := st.ClearProcessed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d processed episodes\n", removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearMappings, "mappings", false, "Clear the title-mapping cache")
	cmd.Flags().BoolVar(&clearProcessed, "processed", false, "Clear the processed-episode set")
	cmd.Flags().BoolVar(&clearAll, "all", false, "Clear everything")
	return cmd
}
