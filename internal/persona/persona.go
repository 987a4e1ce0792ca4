package persona

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"cinewrap/internal/logging"
	"cinewrap/internal/metrics"
	"cinewrap/internal/services/llm"
	"cinewrap/internal/stats"
)

const (
	fallbackTitle       = "The Dedicated Cinephile"
	fallbackDescription = "You watched a ton of movies this year. Your stats show a consistent love for the medium, exploring various genres and eras. Without an AI connection, we can't roast you specifically, but know that you have excellent taste!"

	defaultTitle       = "The Mystery Viewer"
	defaultDescription = "An error occurred generating your description, but your stats speak for themselves."

	systemPrompt = "You write playful year-in-review copy for film lovers. Respond with a single JSON object and nothing else."
)

// Result is the generated persona.
type Result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// Generated is false when the canned fallback was returned.
	Generated bool `json:"generated"`
}

// FallbackResult is returned whenever the model cannot be used.
func FallbackResult() Result {
	return Result{Title: fallbackTitle, Description: fallbackDescription}
}

// Completer is the chat model contract. *llm.Client satisfies it.
type Completer interface {
	Configured() bool
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var _ Completer = (*llm.Client)(nil)

// Generator produces personas.
type Generator struct {
	client Completer
	logger *slog.Logger
}

// NewGenerator builds a Generator. A nil client always yields the fallback.
func NewGenerator(client Completer, logger *slog.Logger) *Generator {
	return &Generator{
		client: client,
		logger: logging.NewComponentLogger(logger, "persona"),
	}
}

// Generate asks the model for a persona describing s.
func (g *Generator) Generate(ctx context.Context, s *stats.Stats) Result {
	if s == nil {
		metrics.RecordPersona(false)
		return FallbackResult()
	}
	if g.client == nil || !g.client.Configured() {
		g.logger.Info("llm api key not configured, using fallback persona",
			logging.String(logging.FieldEventType, "persona_fallback"),
			logging.Int("year", s.Year),
		)
		metrics.RecordPersona(false)
		return FallbackResult()
	}

	content, err := g.client.CompleteJSON(ctx, systemPrompt, BuildPrompt(s))
	if err != nil {
		logging.WarnWithContext(g.logger, "persona generation failed", "persona_generation_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check llm api key, model, and base_url"),
			logging.String(logging.FieldImpact, "fallback persona returned"),
		)
		metrics.RecordPersona(false)
		return FallbackResult()
	}

	var reply struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := llm.DecodeLLMJSON(content, &reply); err != nil {
		logging.WarnWithContext(g.logger, "persona reply was not valid json", "persona_decode_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "fallback persona returned"),
		)
		metrics.RecordPersona(false)
		return FallbackResult()
	}

	result := Result{
		Title:       strings.TrimSpace(reply.Title),
		Description: strings.TrimSpace(reply.Description),
		Generated:   true,
	}
	if result.Title == "" {
		result.Title = defaultTitle
	}
	if result.Description == "" {
		result.Description = defaultDescription
	}
	metrics.RecordPersona(true)
	g.logger.Debug("persona generated", logging.String("title", result.Title))
	return result
}

// BuildPrompt renders the user prompt for s.
func BuildPrompt(s *stats.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following movie watching statistics for the year %d, generate a creative \"Cinema Persona\" title and a short, witty, slightly roasting but ultimately celebratory description (max 60 words).\n\n", s.Year)
	b.WriteString("Stats:\n")
	fmt.Fprintf(&b, "- Total Watched: %d\n", s.TotalWatched)
	fmt.Fprintf(&b, "- Top Month: %s\n", s.TopMonth)
	fmt.Fprintf(&b, "- Average Rating: %s\n", strconv.FormatFloat(s.AverageRating, 'f', -1, 64))
	fmt.Fprintf(&b, "- Rewatches: %d\n", s.RewatchCount)
	fmt.Fprintf(&b, "- Longest Streak: %d days\n", s.LongestStreak)
	fmt.Fprintf(&b, "- Busiest Day: %d movies on one day\n", s.BusiestDay.Count)
	fmt.Fprintf(&b, "- First Film: %s\n", s.FirstFilm)
	fmt.Fprintf(&b, "- Last Film: %s\n", s.LastFilm)
	fmt.Fprintf(&b, "- Favorite Day to Watch: %s\n\n", s.TopDayOfWeek)
	b.WriteString(`Format the output as JSON with keys "title" and "description".`)
	return b.String()
}
