package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cinewrap/internal/config"
	"cinewrap/internal/enrich"
	"cinewrap/internal/letterboxd"
	"cinewrap/internal/persona"
	"cinewrap/internal/stats"
)

var errInsufficientData = errors.New("insufficient data: no diary entries for the selected year")

// exportInputs are the flags shared by commands that read a Letterboxd export.
type exportInputs struct {
	diaryPath   string
	ratingsPath string
	year        int
	strict      bool
}

func (in *exportInputs) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.diaryPath, "diary", "d", "", "Path to diary.csv from the Letterboxd export")
	cmd.Flags().StringVarP(&in.ratingsPath, "ratings", "r", "", "Path to ratings.csv (optional)")
	cmd.Flags().IntVarP(&in.year, "year", "y", 0, "Year to analyse (default: most recent year in the diary)")
	cmd.Flags().BoolVar(&in.strict, "strict", false, "Only count films released in the analysed year")
	_ = cmd.MarkFlagRequired("diary")
}

func (in *exportInputs) compute(cfg *config.Config) (*stats.Stats, error) {
	if in.year < 0 {
		return nil, fmt.Errorf("--year must be positive")
	}
	diary, err := letterboxd.LoadDiaryFile(strings.TrimSpace(in.diaryPath))
	if err != nil {
		return nil, err
	}
	var ratings []letterboxd.RatingEntry
	if path := strings.TrimSpace(in.ratingsPath); path != "" {
		ratings, err = letterboxd.LoadRatingsFile(path)
		if err != nil {
			return nil, err
		}
	}
	s, ok := stats.Compute(diary, ratings, stats.Options{
		Year:           in.year,
		Strict:         in.strict,
		MinutesPerFilm: cfg.Stats.MinutesPerFilm,
	})
	if !ok {
		return nil, errInsufficientData
	}
	return s, nil
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var inputs exportInputs
	var jsonOutput bool
	var withEnrichment bool
	var withPersona bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a year of Letterboxd viewing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			s, err := inputs.compute(cfg)
			if err != nil {
				return err
			}

			if withEnrichment {
				if err := requireTMDB(cfg); err != nil {
					return err
				}
				client, err := ctx.tmdbClient()
				if err != nil {
					return err
				}
				merger := enrich.NewMerger(enrich.OptionsFromConfig(cfg), ctx.logger())
				snap := merger.Run(cmd.Context(), s.AllFilms, ctx.metadataLookup(client), enrichProgress(cmd.ErrOrStderr()), nil)
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				s = snap.Apply(s)
			}

			var generated *persona.Result
			if withPersona {
				result := ctx.personaGenerator().Generate(cmd.Context(), s)
				generated = &result
			}

			if jsonOutput {
				if generated == nil {
					return writeJSON(cmd, s)
				}
				return writeJSON(cmd, struct {
					*stats.Stats
					Persona *persona.Result `json:"persona"`
				}{s, generated})
			}
			renderReport(cmd.OutOrStdout(), s, generated)
			return nil
		},
	}

	inputs.bind(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the statistics as JSON")
	cmd.Flags().BoolVarP(&withEnrichment, "enrich", "e", false, "Add actor, director, and genre leaderboards from TMDB")
	cmd.Flags().BoolVarP(&withPersona, "persona", "p", false, "Append a generated viewer persona")
	return cmd
}

func newPersonaCommand(ctx *commandContext) *cobra.Command {
	var inputs exportInputs
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Generate a viewer persona from a year of viewing",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := inputs.compute(ctx.config)
			if err != nil {
				return err
			}
			result := ctx.personaGenerator().Generate(cmd.Context(), s)
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Title)
			fmt.Fprintln(out, result.Description)
			if !result.Generated {
				fmt.Fprintln(cmd.ErrOrStderr(), "(fallback persona: configure llm.api_key for a generated one)")
			}
			return nil
		},
	}

	inputs.bind(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the persona as JSON")
	return cmd
}
