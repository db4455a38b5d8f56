// services/demo.go - In-memory demo mode
package services

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"carbonsense/badges"
	"carbonsense/emissions"
	"carbonsense/models"

	"github.com/google/uuid"
)

// DemoUser is the fixed identity shown in demo mode.
type DemoUser struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

var demoUser = DemoUser{
	ID:       "demo-user",
	FullName: "Eco Explorer",
	Email:    "demo@carbonsense.app",
}

var demoPresetBadges = []string{badges.EcoStarter, badges.BikeLover, badges.VegDay}

// DemoSession is a throwaway DataService seeded with a sample week. The
// userID arguments of its methods are ignored.
type DemoSession struct {
	ID        string    `json:"id"`
	User      DemoUser  `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	mu      sync.RWMutex
	entries []models.CarbonEntry // newest first
	earned  map[string]bool
	nextID  uint
}

func newDemoSession(now time.Time, ttl time.Duration, rng *rand.Rand) *DemoSession {
	s := &DemoSession{
		ID:        uuid.NewString(),
		User:      demoUser,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		earned:    make(map[string]bool, len(demoPresetBadges)),
	}

	for _, day := range emissions.MockWeek(now, rng) {
		s.nextID++
		s.entries = append(s.entries, models.CarbonEntry{
			ID:               s.nextID,
			EntryDate:        models.DateOf(day.Date),
			TotalEmissions:   day.Total,
			TravelDistanceKm: day.TravelDistanceKm,
			TravelMode:       day.TravelMode,
			FoodType:         day.FoodType,
			ElectricityKwh:   day.ElectricityKwh,
			Source:           models.SourceDemo,
			CreatedAt:        day.Date,
		})
	}
	sortNewestFirst(s.entries)

	for _, id := range demoPresetBadges {
		s.earned[id] = true
	}
	return s
}

func (s *DemoSession) expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *DemoSession) FetchEntries(_ context.Context, _ uint) ([]models.CarbonEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CarbonEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *DemoSession) FetchEntriesSince(_ context.Context, _ uint, from time.Time) ([]models.CarbonEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := models.DateOf(from)
	var out []models.CarbonEntry
	for _, e := range s.entries {
		if !e.EntryDate.Before(day) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *DemoSession) FetchEarnedBadges(_ context.Context, _ uint) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.earned))
	for id := range s.earned {
		out[id] = true
	}
	return out, nil
}

func (s *DemoSession) InsertAchievement(_ context.Context, _ uint, badgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.earned[badgeID] {
		return ErrAlreadyEarned
	}
	s.earned[badgeID] = true
	return nil
}

func (s *DemoSession) InsertEntry(_ context.Context, entry *models.CarbonEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.entries = append(s.entries, *entry)
	sortNewestFirst(s.entries)
	return nil
}

func sortNewestFirst(entries []models.CarbonEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.After(entries[j].EntryDate)
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// DemoRegistry owns the live demo sessions. A session starts with Enable and
// ends with Disable or when Sweep finds it expired.
type DemoRegistry struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*DemoSession
	rng      *rand.Rand
}

func NewDemoRegistry(ttl time.Duration) *DemoRegistry {
	return &DemoRegistry{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*DemoSession),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *DemoRegistry) Enable() *DemoSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := newDemoSession(r.now(), r.ttl, r.rng)
	r.sessions[s.ID] = s
	return s
}

func (r *DemoRegistry) Get(id string) (*DemoSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrDemoSessionNotFound
	}
	if s.expired(r.now()) {
		delete(r.sessions, id)
		return nil, ErrDemoSessionNotFound
	}
	return s, nil
}

// Disable ends a session. It reports whether the session existed.
func (r *DemoRegistry) Disable(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Sweep drops expired sessions and returns how many were removed.
func (r *DemoRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, s := range r.sessions {
		if s.expired(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *DemoRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
