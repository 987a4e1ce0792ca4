package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cinewrap/internal/metadatacache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the TMDB metadata cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached films",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.metadataCache()
			if err != nil {
				return fmt.Errorf("open metadata cache: %w", err)
			}
			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				if entries == nil {
					entries = []metadatacache.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Metadata cache is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Title,
					e.Year,
					foundLabel(e),
					genreSummary(e),
					e.CachedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Title", "Year", "Found", "Genres", "Cached"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d entries in %s\n", len(entries), store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output entries as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.metadataCache()
			if err != nil {
				return fmt.Errorf("open metadata cache: %w", err)
			}
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entries\n", removed)
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove entries older than tmdb.cache_ttl_hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.metadataCache()
			if err != nil {
				return fmt.Errorf("open metadata cache: %w", err)
			}
			removed, err := store.Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired entries\n", removed)
			return nil
		},
	}
}

func foundLabel(e metadatacache.Entry) string {
	if e.Found {
		return "yes"
	}
	return "no"
}

func genreSummary(e metadatacache.Entry) string {
	if e.Metadata == nil || len(e.Metadata.Genres) == 0 {
		return "-"
	}
	genres := e.Metadata.Genres
	if len(genres) > 3 {
		return strings.Join(genres[:3], ", ") + " +" + strconv.Itoa(len(genres)-3)
	}
	return strings.Join(genres, ", ")
}
