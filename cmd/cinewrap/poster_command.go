package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPosterCommand(ctx *commandContext) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "poster <title>",
		Short: "Print the TMDB poster URL for a film",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			if err := requireTMDB(cfg); err != nil {
				return err
			}
			client, err := ctx.tmdbClient()
			if err != nil {
				return err
			}
			title := strings.TrimSpace(strings.Join(args, " "))
			var yearValue string
			if year > 0 {
				yearValue = strconv.Itoa(year)
			}
			url, err := client.PosterURL(cmd.Context(), title, yearValue)
			if err != nil {
				return fmt.Errorf("poster lookup: %w", err)
			}
			out := cmd.OutOrStdout()
			if url == "" {
				fmt.Fprintf(out, "No poster found for %q\n", title)
				return nil
			}
			fmt.Fprintln(out, url)
			return nil
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Release year to narrow the search")
	return cmd
}
