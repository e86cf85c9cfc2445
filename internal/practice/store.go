package practice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sadhana-path/backend/internal/models"
)

// Repository is the persistence surface used by Service. Store is the
// Postgres implementation.
type Repository interface {
	// LogJapa, LogMeditation and CreateJournalEntry write the practice and
	// pass the user's streak through advance in one transaction.
	LogJapa(ctx context.Context, userID int64, day time.Time, mantra string, count int, advance StreakFunc) (int, models.UserStreak, error)
	LogMeditation(ctx context.Context, userID int64, day time.Time, minutes int, advance StreakFunc) (int, models.UserStreak, error)

	CreateJournalEntry(ctx context.Context, e *models.JournalEntry, advance StreakFunc) (models.UserStreak, error)
	UpdateJournalEntry(ctx context.Context, e *models.JournalEntry) error
	DeleteJournalEntry(ctx context.Context, userID, id int64) error
	ListJournalEntries(ctx context.Context, userID int64, tag string, limit, offset int) ([]models.JournalEntry, int, error)

	DailyTotals(ctx context.Context, userID int64, from, to time.Time) ([]models.DailyPractice, error)

	GetStreak(ctx context.Context, userID int64) (models.UserStreak, error)
	LapseStreaks(ctx context.Context, before time.Time) (int64, error)

	TotalJapa(ctx context.Context, userID int64) (int, error)
	TotalMeditation(ctx context.Context, userID int64) (int, error)
	JournalCounts(ctx context.Context, userID int64, tag string) (total, tagged int, err error)
	UserCreatedAt(ctx context.Context, userID int64) (time.Time, error)
	ActiveUserIDs(ctx context.Context) ([]int64, error)
}

// StreakFunc maps the locked streak row to its new state.
type StreakFunc func(models.UserStreak) models.UserStreak

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Japa & Meditation ───────────────────────────────────

func (s *Store) LogJapa(ctx context.Context, userID int64, day time.Time, mantra string, count int, advance StreakFunc) (int, models.UserStreak, error) {
	var total int
	st, err := s.withStreak(ctx, userID, advance, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO japa_logs (user_id, practice_date, mantra, count)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id, practice_date, mantra)
			 DO UPDATE SET count = japa_logs.count + EXCLUDED.count, updated_at = NOW()
			 RETURNING count`,
			userID, day, mantra, count,
		).Scan(&total)
		if err != nil {
			return fmt.Errorf("upsert japa log: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, models.UserStreak{}, err
	}
	return total, st, nil
}

func (s *Store) LogMeditation(ctx context.Context, userID int64, day time.Time, minutes int, advance StreakFunc) (int, models.UserStreak, error) {
	var total int
	st, err := s.withStreak(ctx, userID, advance, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO meditation_logs (user_id, practice_date, minutes)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, practice_date)
			 DO UPDATE SET minutes = meditation_logs.minutes + EXCLUDED.minutes, updated_at = NOW()
			 RETURNING minutes`,
			userID, day, minutes,
		).Scan(&total)
		if err != nil {
			return fmt.Errorf("upsert meditation log: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, models.UserStreak{}, err
	}
	return total, st, nil
}

// ── Journal ─────────────────────────────────────────────

func (s *Store) CreateJournalEntry(ctx context.Context, e *models.JournalEntry, advance StreakFunc) (models.UserStreak, error) {
	return s.withStreak(ctx, e.UserID, advance, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO journal_entries (user_id, title, body, tags, entry_date)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at, updated_at`,
			e.UserID, e.Title, e.Body, pq.Array(e.Tags), e.EntryDate,
		).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert journal entry: %w", err)
		}
		return nil
	})
}

func (s *Store) UpdateJournalEntry(ctx context.Context, e *models.JournalEntry) error {
	err := s.db.QueryRowContext(ctx,
		`UPDATE journal_entries
		 SET title = $3, body = $4, tags = $5, entry_date = $6, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING created_at, updated_at`,
		e.ID, e.UserID, e.Title, e.Body, pq.Array(e.Tags), e.EntryDate,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update journal entry: %w", err)
	}
	return nil
}

func (s *Store) DeleteJournalEntry(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListJournalEntries returns one page of entries, newest first, and the
// total number of matching entries. An empty tag matches every entry.
func (s *Store) ListJournalEntries(ctx context.Context, userID int64, tag string, limit, offset int) ([]models.JournalEntry, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journal_entries
		 WHERE user_id = $1 AND ($2 = '' OR $2 = ANY(tags))`,
		userID, tag,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count journal entries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, body, tags, entry_date, created_at, updated_at
		 FROM journal_entries
		 WHERE user_id = $1 AND ($2 = '' OR $2 = ANY(tags))
		 ORDER BY entry_date DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		userID, tag, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Body, pq.Array(&e.Tags),
			&e.EntryDate, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// ── History ─────────────────────────────────────────────

// DailyTotals returns one row per calendar day in [from, to], newest first.
// Days without practice are present with zero totals.
func (s *Store) DailyTotals(ctx context.Context, userID int64, from, to time.Time) ([]models.DailyPractice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT to_char(d.day, 'YYYY-MM-DD'),
		        COALESCE(j.total, 0), COALESCE(m.minutes, 0), COALESCE(e.entries, 0)
		 FROM generate_series($2::date, $3::date, interval '1 day') AS d(day)
		 LEFT JOIN (
		     SELECT practice_date, SUM(count) AS total
		     FROM japa_logs WHERE user_id = $1 GROUP BY practice_date
		 ) j ON j.practice_date = d.day::date
		 LEFT JOIN meditation_logs m ON m.user_id = $1 AND m.practice_date = d.day::date
		 LEFT JOIN (
		     SELECT entry_date, COUNT(*) AS entries
		     FROM journal_entries WHERE user_id = $1 GROUP BY entry_date
		 ) e ON e.entry_date = d.day::date
		 ORDER BY d.day DESC`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	var days []models.DailyPractice
	for rows.Next() {
		var d models.DailyPractice
		if err := rows.Scan(&d.Date, &d.JapaCount, &d.MeditationMinutes, &d.JournalEntries); err != nil {
			return nil, fmt.Errorf("scan daily totals: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// ── Streaks ─────────────────────────────────────────────

// GetStreak returns the user's streak row, or a zero streak if the user
// has never practiced.
func (s *Store) GetStreak(ctx context.Context, userID int64) (models.UserStreak, error) {
	st := models.UserStreak{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT current_streak, run_length, longest_streak, last_practice_date, updated_at
		 FROM user_streaks WHERE user_id = $1`,
		userID,
	).Scan(&st.CurrentStreak, &st.RunLength, &st.LongestStreak, &st.LastPracticeDate, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("get streak: %w", err)
	}
	return st, nil
}

// withStreak locks the user's streak row, runs write, passes the row
// through advance and saves it. Nothing is kept unless every step succeeds.
func (s *Store) withStreak(ctx context.Context, userID int64, advance StreakFunc, write func(*sql.Tx) error) (models.UserStreak, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.UserStreak{}, fmt.Errorf("begin practice tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_streaks (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return models.UserStreak{}, fmt.Errorf("ensure streak row: %w", err)
	}

	st := models.UserStreak{UserID: userID}
	if err := tx.QueryRowContext(ctx,
		`SELECT current_streak, run_length, longest_streak, last_practice_date, updated_at
		 FROM user_streaks WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&st.CurrentStreak, &st.RunLength, &st.LongestStreak, &st.LastPracticeDate, &st.UpdatedAt); err != nil {
		return models.UserStreak{}, fmt.Errorf("lock streak row: %w", err)
	}

	if err := write(tx); err != nil {
		return models.UserStreak{}, err
	}

	st = advance(st)

	if err := tx.QueryRowContext(ctx,
		`UPDATE user_streaks
		 SET current_streak = $2, run_length = $3, longest_streak = $4, last_practice_date = $5, updated_at = NOW()
		 WHERE user_id = $1
		 RETURNING updated_at`,
		userID, st.CurrentStreak, st.RunLength, st.LongestStreak, st.LastPracticeDate,
	).Scan(&st.UpdatedAt); err != nil {
		return models.UserStreak{}, fmt.Errorf("save streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.UserStreak{}, fmt.Errorf("commit practice: %w", err)
	}
	return st, nil
}

// LapseStreaks zeroes the current streak of every run whose last practice
// date is before the given day and reports how many were reset. The run
// length is kept so a back-filled next day still extends it.
func (s *Store) LapseStreaks(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_streaks SET current_streak = 0, updated_at = NOW()
		 WHERE current_streak > 0 AND last_practice_date < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("lapse streaks: %w", err)
	}
	return res.RowsAffected()
}

// ── Counter Sources ─────────────────────────────────────

func (s *Store) TotalJapa(ctx context.Context, userID int64) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(count), 0) FROM japa_logs WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum japa: %w", err)
	}
	return total, nil
}

func (s *Store) TotalMeditation(ctx context.Context, userID int64) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(minutes), 0) FROM meditation_logs WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum meditation: %w", err)
	}
	return total, nil
}

func (s *Store) JournalCounts(ctx context.Context, userID int64, tag string) (int, int, error) {
	var total, tagged int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE $2 = ANY(tags))
		 FROM journal_entries WHERE user_id = $1`,
		userID, tag,
	).Scan(&total, &tagged)
	if err != nil {
		return 0, 0, fmt.Errorf("count journal: %w", err)
	}
	return total, tagged, nil
}

func (s *Store) UserCreatedAt(ctx context.Context, userID int64) (time.Time, error) {
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM users WHERE id = $1`, userID,
	).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get user created_at: %w", err)
	}
	return createdAt, nil
}

// ActiveUserIDs lists every registered user, oldest first.
func (s *Store) ActiveUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
