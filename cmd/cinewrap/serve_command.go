package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cinewrap/internal/api"
	"cinewrap/internal/enrich"
	"cinewrap/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			if bind != "" {
				cfg.Server.Bind = bind
			}
			logger := ctx.logger()

			deps := api.Dependencies{
				Merger: enrich.NewMerger(enrich.OptionsFromConfig(cfg), logger),
			}
			client, err := ctx.tmdbClient()
			if err != nil {
				return err
			}
			if client != nil {
				deps.Lookup = ctx.metadataLookup(client)
				deps.Posters = client
				deps.TMDBCircuit = client.BreakerState
			} else {
				logging.WarnWithContext(logger, "tmdb api key not configured", "tmdb_unconfigured",
					logging.String(logging.FieldErrorHint, "set tmdb.api_key or TMDB_API_KEY"),
					logging.String(logging.FieldImpact, "enrichment and posters return empty results"),
				)
			}
			llmClient := ctx.llmClient()
			deps.Persona = ctx.personaGenerator()
			deps.LLMConfigured = llmClient.Configured()

			server, err := api.New(cfg, deps, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := server.Start(runCtx); err != nil {
				return err
			}
			defer server.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", server.Addr())
			<-runCtx.Done()
			if err := cmd.Context().Err(); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	return cmd
}
