package reflection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadhana-path/backend/internal/models"
)

// PromptStore persists one reflection prompt per calendar day.
type PromptStore interface {
	PromptFor(ctx context.Context, day time.Time) (*models.ReflectionPrompt, error)
	SavePrompt(ctx context.Context, p *models.ReflectionPrompt) (*models.ReflectionPrompt, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// PromptFor returns the stored prompt for day, or nil if none exists.
func (s *Store) PromptFor(ctx context.Context, day time.Time) (*models.ReflectionPrompt, error) {
	var p models.ReflectionPrompt
	var ref sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, prompt_date, theme, prompt, scripture_ref, model_used, created_at
		 FROM reflection_prompts WHERE prompt_date = $1`,
		day,
	).Scan(&p.ID, &p.PromptDate, &p.Theme, &p.Prompt, &ref, &p.ModelUsed, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reflection prompt: %w", err)
	}
	p.ScriptureRef = ref.String
	return &p, nil
}

// SavePrompt inserts p unless a prompt for the same day already exists,
// and returns whichever row is stored.
func (s *Store) SavePrompt(ctx context.Context, p *models.ReflectionPrompt) (*models.ReflectionPrompt, error) {
	ref := sql.NullString{String: p.ScriptureRef, Valid: p.ScriptureRef != ""}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reflection_prompts (prompt_date, theme, prompt, scripture_ref, model_used)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (prompt_date) DO NOTHING`,
		p.PromptDate, p.Theme, p.Prompt, ref, p.ModelUsed,
	)
	if err != nil {
		return nil, fmt.Errorf("save reflection prompt: %w", err)
	}

	stored, err := s.PromptFor(ctx, p.PromptDate)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("reflection prompt for %s vanished after insert", p.PromptDate.Format("2006-01-02"))
	}
	return stored, nil
}
