package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cinewrap/internal/config"
	"cinewrap/internal/enrich"
	"cinewrap/internal/logging"
	"cinewrap/internal/metadatacache"
	"cinewrap/internal/persona"
	"cinewrap/internal/services/llm"
	"cinewrap/internal/services/tmdb"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	log        *slog.Logger

	cacheOnce sync.Once
	cache     *metadatacache.Store
	cacheErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.config)
		if err != nil {
			logger = logging.NewNop()
		}
		c.log = logger
	})
	return c.log
}

// metadataCache opens the sqlite cache lazily. Failures are remembered so
// callers can degrade to uncached lookups.
func (c *commandContext) metadataCache() (*metadatacache.Store, error) {
	c.cacheOnce.Do(func() {
		c.cache, c.cacheErr = metadatacache.OpenFromConfig(c.config, c.logger())
	})
	return c.cache, c.cacheErr
}

// tmdbClient returns nil when no API key is configured.
func (c *commandContext) tmdbClient() (*tmdb.Client, error) {
	cfg := c.config
	if !cfg.HasTMDB() {
		return nil, nil
	}
	return tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL),
		tmdb.WithMaxCast(cfg.Enrichment.MaxCastPerFilm),
		tmdb.WithLogger(c.logger()),
		tmdb.WithHTTPClient(newHTTPClient(cfg.TMDBTimeout())),
	)
}

// metadataLookup builds the cached TMDB lookup used by enrichment. The cache
// is skipped, with a warning, when it cannot be opened.
func (c *commandContext) metadataLookup(client *tmdb.Client) enrich.Lookup {
	if client == nil {
		return nil
	}
	store, err := c.metadataCache()
	if err != nil {
		logging.WarnWithContext(c.logger(), "metadata cache unavailable", "metadata_cache_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.cache_path"),
			logging.String(logging.FieldImpact, "every film is looked up on TMDB"),
		)
		return client
	}
	return metadatacache.NewCachedLookup(store, client, c.logger())
}

func (c *commandContext) llmClient() *llm.Client {
	settings := c.config.GetLLM()
	return llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
		Temperature:    0.9,
	})
}

func (c *commandContext) personaGenerator() *persona.Generator {
	return persona.NewGenerator(c.llmClient(), c.logger())
}

func (c *commandContext) close() {
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			c.logger().Warn("failed to close metadata cache", logging.Error(err))
		}
		c.cache = nil
	}
}

func requireTMDB(cfg *config.Config) error {
	if err := cfg.RequireTMDB(); err != nil {
		return fmt.Errorf("tmdb: %w", err)
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
