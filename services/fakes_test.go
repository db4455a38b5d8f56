package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"carbonsense/models"
)

// memStore is an in-memory DataService and UserStore for tests.
type memStore struct {
	mu        sync.Mutex
	entries   []models.CarbonEntry
	earned    map[string]bool
	users     map[uint]*models.User
	nextID    uint
	fetchErr  error
	insertErr error
	lastFrom  time.Time

	earnedErr error
	// achievementErrs fails InsertAchievement for specific badge ids.
	achievementErrs map[string]error
}

func newMemStore() *memStore {
	return &memStore{earned: map[string]bool{}, users: map[uint]*models.User{}}
}

func (m *memStore) FetchEntries(_ context.Context, userID uint) ([]models.CarbonEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []models.CarbonEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *memStore) FetchEntriesSince(ctx context.Context, userID uint, from time.Time) ([]models.CarbonEntry, error) {
	m.mu.Lock()
	m.lastFrom = from
	m.mu.Unlock()

	all, err := m.FetchEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	day := models.DateOf(from)
	var out []models.CarbonEntry
	for _, e := range all {
		if !e.EntryDate.Before(day) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) FetchEarnedBadges(_ context.Context, _ uint) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.earnedErr != nil {
		return nil, m.earnedErr
	}
	out := make(map[string]bool, len(m.earned))
	for id := range m.earned {
		out[id] = true
	}
	return out, nil
}

func (m *memStore) InsertAchievement(_ context.Context, _ uint, badgeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.achievementErrs[badgeID]; err != nil {
		return err
	}
	if m.earned[badgeID] {
		return ErrAlreadyEarned
	}
	m.earned[badgeID] = true
	return nil
}

func (m *memStore) InsertEntry(_ context.Context, entry *models.CarbonEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.nextID++
	entry.ID = m.nextID
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := m.FindUserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memStore) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email != nil && *u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) SaveUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

type notified struct {
	userID    uint
	eventType string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notified
}

func (r *recordingNotifier) Notify(userID uint, eventType string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, notified{userID, eventType})
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.eventType
	}
	return out
}

type fixedPredictor struct {
	value float64
	err   error
	calls int
}

func (p *fixedPredictor) Predict(context.Context, LifestyleForm) (float64, error) {
	p.calls++
	return p.value, p.err
}

type fakeRanker struct {
	rows  []LeaderboardRow
	err   error
	calls int
}

func (f *fakeRanker) WeeklyLeaderboard(context.Context) ([]LeaderboardRow, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]LeaderboardRow, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
