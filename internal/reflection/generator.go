// Package reflection produces the daily journaling prompt. Prompts are
// written by an LLM, stored one per day and cached in memory.
package reflection

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sadhana-path/backend/internal/config"
	"github.com/sadhana-path/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const fallbackModel = "builtin"

type Generator struct {
	llm    LLMClient
	model  string
	store  PromptStore
	cache  *lru.Cache
	group  singleflight.Group
	logger *zap.Logger
	now    func() time.Time
}

func NewGenerator(llm LLMClient, model string, store PromptStore, cacheSize int, logger *zap.Logger) (*Generator, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create prompt cache: %w", err)
	}
	return &Generator{
		llm:    llm,
		model:  model,
		store:  store,
		cache:  cache,
		logger: logger.Named("reflection"),
		now:    time.Now,
	}, nil
}

// NewFromConfig selects the Anthropic or mock client per cfg.Provider.
func NewFromConfig(cfg config.ReflectionConfig, store PromptStore, logger *zap.Logger) (*Generator, error) {
	var llm LLMClient
	model := "mock"

	switch cfg.Provider {
	case "anthropic":
		llm = NewAPIClient(cfg.APIKey, cfg.Model, logger)
		model = cfg.Model
	case "mock":
		llm = NewMockClient()
	default:
		return nil, fmt.Errorf("unknown reflection provider %q", cfg.Provider)
	}

	logger.Info("reflection generator ready", zap.String("provider", cfg.Provider), zap.String("model", model))
	return NewGenerator(llm, model, store, cfg.CacheSize, logger)
}

func (g *Generator) ModelName() string {
	return g.model
}

// Today returns the prompt for the current UTC day.
func (g *Generator) Today(ctx context.Context) (*models.ReflectionPrompt, error) {
	return g.ForDate(ctx, g.now())
}

// ForDate returns the prompt for day, generating and storing it on first
// request. Concurrent first requests for a day share one generation.
// When the model fails, a built-in prompt is returned without storing it
// so a later request can try again.
func (g *Generator) ForDate(ctx context.Context, day time.Time) (*models.ReflectionPrompt, error) {
	day = truncateDay(day)
	key := day.Format("2006-01-02")

	if v, ok := g.cache.Get(key); ok {
		return v.(*models.ReflectionPrompt), nil
	}

	v, err, _ := g.group.Do(key, func() (interface{}, error) {
		stored, err := g.store.PromptFor(ctx, day)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			g.cache.Add(key, stored)
			return stored, nil
		}

		p, err := g.generate(ctx, day)
		if err != nil {
			g.logger.Warn("generate reflection prompt, using fallback", zap.String("date", key), zap.Error(err))
			return fallbackPrompt(day), nil
		}

		saved, err := g.store.SavePrompt(ctx, &models.ReflectionPrompt{
			PromptDate:   day,
			Theme:        p.Theme,
			Prompt:       p.Prompt,
			ScriptureRef: p.ScriptureRef,
			ModelUsed:    g.model,
		})
		if err != nil {
			return nil, err
		}
		g.cache.Add(key, saved)
		return saved, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ReflectionPrompt), nil
}

func (g *Generator) generate(ctx context.Context, day time.Time) (*Prompt, error) {
	theme := ThemeFor(day)
	resp, err := g.llm.Generate(ctx, SystemPrompt(), BuildUserPrompt(day, theme))
	if err != nil {
		return nil, fmt.Errorf("generate reflection: %w", err)
	}

	p, err := ParsePrompt(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse reflection response: %w", err)
	}
	if p.Theme == "" {
		p.Theme = theme
	}

	g.logger.Debug("reflection generated",
		zap.String("date", day.Format("2006-01-02")),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("output_tokens", resp.OutputTokens),
	)
	return p, nil
}

func fallbackPrompt(day time.Time) *models.ReflectionPrompt {
	p := mockPrompts[day.YearDay()%len(mockPrompts)]
	return &models.ReflectionPrompt{
		PromptDate:   day,
		Theme:        p.Theme,
		Prompt:       p.Prompt,
		ScriptureRef: p.ScriptureRef,
		ModelUsed:    fallbackModel,
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
