package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sadhana-path/backend/internal/models"
)

// Repository persists quest completions and the score mirror.
type Repository interface {
	RecordedQuests(ctx context.Context, userID int64) (map[string]time.Time, error)
	RecordQuests(ctx context.Context, userID int64, questIDs []string, at time.Time) error
	SaveProgress(ctx context.Context, p models.UserProgress) error
	AssignRanks(ctx context.Context) (int64, error)
	// TopEntries and EntryFor report a streak whose last practice is before
	// streakCutoff as 0.
	TopEntries(ctx context.Context, limit int, streakCutoff time.Time) ([]models.LeaderboardEntry, error)
	EntryFor(ctx context.Context, userID int64, streakCutoff time.Time) (*models.LeaderboardEntry, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Quest Completions ───────────────────────────────────

func (s *Store) RecordedQuests(ctx context.Context, userID int64) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT quest_id, completed_at FROM quest_completions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("query quest completions: %w", err)
	}
	defer rows.Close()

	recorded := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("scan quest completion: %w", err)
		}
		recorded[id] = at
	}
	return recorded, rows.Err()
}

// RecordQuests stores completions. Quests already recorded keep their
// original completion time.
func (s *Store) RecordQuests(ctx context.Context, userID int64, questIDs []string, at time.Time) error {
	if len(questIDs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quest_completions (user_id, quest_id, completed_at)
		 SELECT $1, unnest($2::text[]), $3
		 ON CONFLICT (user_id, quest_id) DO NOTHING`,
		userID, pq.Array(questIDs), at,
	)
	if err != nil {
		return fmt.Errorf("record quest completions: %w", err)
	}
	return nil
}

// ── Score Mirror ────────────────────────────────────────

// SaveProgress upserts the mirrored score and level. The stored rank is
// only written by AssignRanks.
func (s *Store) SaveProgress(ctx context.Context, p models.UserProgress) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, score, level_index, level_name, computed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		     score = EXCLUDED.score,
		     level_index = EXCLUDED.level_index,
		     level_name = EXCLUDED.level_name,
		     computed_at = EXCLUDED.computed_at`,
		p.UserID, p.Score, p.LevelIndex, p.LevelName, p.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// AssignRanks writes a dense 1..N position into every mirror row, highest
// score first, ties broken by user id.
func (s *Store) AssignRanks(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_progress p SET rank = r.position
		 FROM (
		     SELECT user_id, ROW_NUMBER() OVER (ORDER BY score DESC, user_id) AS position
		     FROM user_progress
		 ) r
		 WHERE p.user_id = r.user_id`)
	if err != nil {
		return 0, fmt.Errorf("assign ranks: %w", err)
	}
	return res.RowsAffected()
}

// ── Leaderboard ─────────────────────────────────────────

// rankedEntries expects the streak cutoff as $2.
const rankedEntries = `
	SELECT ROW_NUMBER() OVER (ORDER BY p.score DESC, p.user_id) AS position,
	       p.user_id, u.name, u.username, u.avatar, p.score, p.level_name,
	       CASE WHEN st.last_practice_date IS NULL OR st.last_practice_date < $2::date THEN 0
	            ELSE st.current_streak END AS current_streak
	FROM user_progress p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN user_streaks st ON st.user_id = p.user_id`

func (s *Store) TopEntries(ctx context.Context, limit int, streakCutoff time.Time) ([]models.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT * FROM (`+rankedEntries+`) ranked
		 WHERE position <= $1
		 ORDER BY position`,
		limit, streakCutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// EntryFor returns the user's leaderboard row, or nil if the user has no
// mirrored score yet.
func (s *Store) EntryFor(ctx context.Context, userID int64, streakCutoff time.Time) (*models.LeaderboardEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT * FROM (`+rankedEntries+`) ranked WHERE user_id = $1`,
		userID, streakCutoff,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(sc scanner) (models.LeaderboardEntry, error) {
	var e models.LeaderboardEntry
	var name string
	err := sc.Scan(&e.Rank, &e.UserID, &name, &e.Username, &e.Avatar, &e.Score, &e.LevelName, &e.CurrentStreak)
	if errors.Is(err, sql.ErrNoRows) {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("scan leaderboard entry: %w", err)
	}
	e.DisplayName = models.FormatDisplayName(name)
	return e, nil
}
