package practice

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/sadhana-path/backend/internal/models"
)

type dayKey struct {
	user int64
	day  string
}

// memRepo is an in-memory Repository. Setting fail[method] makes that
// method return the error; fail["streak"] fails the streak step of a log.
type memRepo struct {
	mu         sync.Mutex
	japa       map[dayKey]map[string]int
	meditation map[dayKey]int
	journal    map[int64]*models.JournalEntry
	nextID     int64
	streaks    map[int64]models.UserStreak
	createdAt  map[int64]time.Time
	fail       map[string]error
}

func newMemRepo() *memRepo {
	return &memRepo{
		japa:       map[dayKey]map[string]int{},
		meditation: map[dayKey]int{},
		journal:    map[int64]*models.JournalEntry{},
		streaks:    map[int64]models.UserStreak{},
		createdAt:  map[int64]time.Time{},
		fail:       map[string]error{},
	}
}

func (m *memRepo) err(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fail[method]
}

// advanceLocked runs advance against the stored row. A "streak" fault
// fails it before anything is written, like a rolled-back transaction.
func (m *memRepo) advanceLocked(userID int64, advance StreakFunc) (models.UserStreak, error) {
	if err := m.fail["streak"]; err != nil {
		return models.UserStreak{}, err
	}
	st, ok := m.streaks[userID]
	if !ok {
		st.UserID = userID
	}
	return advance(st), nil
}

func (m *memRepo) LogJapa(_ context.Context, userID int64, day time.Time, mantra string, count int, advance StreakFunc) (int, models.UserStreak, error) {
	if err := m.err("LogJapa"); err != nil {
		return 0, models.UserStreak{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, err := m.advanceLocked(userID, advance)
	if err != nil {
		return 0, models.UserStreak{}, err
	}
	k := dayKey{userID, day.Format(dateLayout)}
	if m.japa[k] == nil {
		m.japa[k] = map[string]int{}
	}
	m.japa[k][mantra] += count
	m.streaks[userID] = st
	return m.japa[k][mantra], st, nil
}

func (m *memRepo) LogMeditation(_ context.Context, userID int64, day time.Time, minutes int, advance StreakFunc) (int, models.UserStreak, error) {
	if err := m.err("LogMeditation"); err != nil {
		return 0, models.UserStreak{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, err := m.advanceLocked(userID, advance)
	if err != nil {
		return 0, models.UserStreak{}, err
	}
	k := dayKey{userID, day.Format(dateLayout)}
	m.meditation[k] += minutes
	m.streaks[userID] = st
	return m.meditation[k], st, nil
}

func (m *memRepo) CreateJournalEntry(_ context.Context, e *models.JournalEntry, advance StreakFunc) (models.UserStreak, error) {
	if err := m.err("CreateJournalEntry"); err != nil {
		return models.UserStreak{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, err := m.advanceLocked(e.UserID, advance)
	if err != nil {
		return models.UserStreak{}, err
	}
	m.nextID++
	e.ID = m.nextID
	cp := *e
	m.journal[e.ID] = &cp
	m.streaks[e.UserID] = st
	return st, nil
}

func (m *memRepo) UpdateJournalEntry(_ context.Context, e *models.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.journal[e.ID]
	if !ok || cur.UserID != e.UserID {
		return ErrNotFound
	}
	cp := *e
	m.journal[e.ID] = &cp
	return nil
}

func (m *memRepo) DeleteJournalEntry(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.journal[id]
	if !ok || cur.UserID != userID {
		return ErrNotFound
	}
	delete(m.journal, id)
	return nil
}

func (m *memRepo) ListJournalEntries(_ context.Context, userID int64, tag string, limit, offset int) ([]models.JournalEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.JournalEntry
	for _, e := range m.journal {
		if e.UserID == userID && (tag == "" || slices.Contains(e.Tags, tag)) {
			all = append(all, *e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if offset >= total {
		return []models.JournalEntry{}, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (m *memRepo) DailyTotals(_ context.Context, userID int64, from, to time.Time) ([]models.DailyPractice, error) {
	if err := m.err("DailyTotals"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var days []models.DailyPractice
	for d := to; !d.Before(from); d = d.AddDate(0, 0, -1) {
		k := dayKey{userID, d.Format(dateLayout)}
		dp := models.DailyPractice{Date: k.day, MeditationMinutes: m.meditation[k]}
		for _, c := range m.japa[k] {
			dp.JapaCount += c
		}
		for _, e := range m.journal {
			if e.UserID == userID && e.EntryDate.Equal(d) {
				dp.JournalEntries++
			}
		}
		days = append(days, dp)
	}
	return days, nil
}

func (m *memRepo) GetStreak(_ context.Context, userID int64) (models.UserStreak, error) {
	if err := m.err("GetStreak"); err != nil {
		return models.UserStreak{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.streaks[userID]
	if !ok {
		st.UserID = userID
	}
	return st, nil
}

func (m *memRepo) LapseStreaks(_ context.Context, before time.Time) (int64, error) {
	if err := m.err("LapseStreaks"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, st := range m.streaks {
		if st.CurrentStreak > 0 && st.LastPracticeDate != nil && st.LastPracticeDate.Before(before) {
			st.CurrentStreak = 0
			m.streaks[id] = st
			n++
		}
	}
	return n, nil
}

func (m *memRepo) TotalJapa(_ context.Context, userID int64) (int, error) {
	if err := m.err("TotalJapa"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for k, byMantra := range m.japa {
		if k.user == userID {
			for _, c := range byMantra {
				total += c
			}
		}
	}
	return total, nil
}

func (m *memRepo) TotalMeditation(_ context.Context, userID int64) (int, error) {
	if err := m.err("TotalMeditation"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for k, v := range m.meditation {
		if k.user == userID {
			total += v
		}
	}
	return total, nil
}

func (m *memRepo) JournalCounts(_ context.Context, userID int64, tag string) (int, int, error) {
	if err := m.err("JournalCounts"); err != nil {
		return 0, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var total, tagged int
	for _, e := range m.journal {
		if e.UserID != userID {
			continue
		}
		total++
		if slices.Contains(e.Tags, tag) {
			tagged++
		}
	}
	return total, tagged, nil
}

func (m *memRepo) UserCreatedAt(_ context.Context, userID int64) (time.Time, error) {
	if err := m.err("UserCreatedAt"); err != nil {
		return time.Time{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.createdAt[userID]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return t, nil
}

func (m *memRepo) ActiveUserIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id := range m.createdAt {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
