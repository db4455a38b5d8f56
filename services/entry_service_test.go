package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"carbonsense/badges"
	"carbonsense/cache"
	"carbonsense/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 10, 16, 15, 30, 0, 0, time.UTC)

type entryFixture struct {
	svc      *EntryService
	store    *memStore
	notifier *recordingNotifier
	ranker   *fakeRanker
	board    *LeaderboardService
}

func newEntryFixture(p Prediction) *entryFixture {
	log := zap.NewNop()
	notifier := &recordingNotifier{}
	ranker := &fakeRanker{rows: []LeaderboardRow{{UserID: 1, WeeklyEmissions: 3}}}
	board := NewLeaderboardService(ranker, cache.NewMemory(), time.Minute, log)

	svc := NewEntryService(p, NewBadgeService(notifier, log), board, notifier, log)
	svc.now = fixedClock(testNow)
	return &entryFixture{svc: svc, store: newMemStore(), notifier: notifier, ranker: ranker, board: board}
}

func badgeIDs(bs []badges.Badge) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func TestSubmitManual(t *testing.T) {
	f := newEntryFixture(nil)
	ctx := context.Background()

	// Prime the leaderboard cache so invalidation is observable.
	_, err := f.board.Weekly(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 1, f.ranker.calls)

	res, err := f.svc.SubmitManual(ctx, f.store, 7, ManualEntry{
		TravelDistanceKm: 10,
		TravelMode:       "car",
		ElectricityKwh:   5,
		FoodType:         "veg",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Breakdown)
	assert.Equal(t, 1.2, res.Breakdown.Travel)
	assert.Equal(t, 2.25, res.Breakdown.Electricity)
	assert.Equal(t, 0.8, res.Breakdown.Food)
	assert.Equal(t, 4.25, res.Entry.TotalEmissions)
	assert.Equal(t, models.SourceCalculator, res.Entry.Source)
	assert.Equal(t, "2026-10-16", res.Entry.Day())
	assert.Equal(t, uint(7), res.Entry.UserID)
	assert.NotZero(t, res.Entry.ID)

	assert.Equal(t, []string{badges.EcoStarter, badges.CarbonCutter}, badgeIDs(res.Badges))
	assert.Equal(t, []string{EventBadgeEarned, EventEntryCreated}, f.notifier.types())

	_, err = f.board.Weekly(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, f.ranker.calls)

	// A second entry earns nothing new.
	res, err = f.svc.SubmitManual(ctx, f.store, 7, ManualEntry{TravelMode: "walk", FoodType: "vegan"})
	require.NoError(t, err)
	assert.Empty(t, res.Badges)
	assert.NotNil(t, res.Badges)
}

func TestSubmitPredicted(t *testing.T) {
	p := &fixedPredictor{value: 12.5}
	f := newEntryFixture(p)

	form := NewLifestyleForm()
	form.Transport = "private"
	form.Diet = "vegan"
	form.Distance = 42

	res, err := f.svc.SubmitPredicted(context.Background(), f.store, 3, form)
	require.NoError(t, err)

	assert.Nil(t, res.Breakdown)
	assert.Equal(t, 12.5, res.Entry.TotalEmissions)
	assert.Equal(t, models.SourceML, res.Entry.Source)
	assert.Equal(t, "car", res.Entry.TravelMode)
	assert.Equal(t, "vegan", res.Entry.FoodType)
	assert.Equal(t, 42.0, res.Entry.TravelDistanceKm)
	assert.Len(t, f.store.entries, 1)
}

func TestSubmitPredictedFailureSavesNothing(t *testing.T) {
	cases := map[string]*fixedPredictor{
		"upstream error": {err: ErrPredictionFailed},
		"negative value": {value: -4},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			f := newEntryFixture(p)
			_, err := f.svc.SubmitPredicted(context.Background(), f.store, 3, NewLifestyleForm())
			assert.ErrorIs(t, err, ErrPredictionFailed)
			assert.Empty(t, f.store.entries)
			assert.Empty(t, f.notifier.types())
		})
	}
}

func TestSubmitStoreError(t *testing.T) {
	f := newEntryFixture(nil)
	f.store.insertErr = errors.New("disk full")

	_, err := f.svc.SubmitManual(context.Background(), f.store, 1, ManualEntry{TravelMode: "bus", FoodType: "veg"})
	assert.EqualError(t, err, "disk full")
	assert.Empty(t, f.notifier.types())
}

func TestSubmitToDemoSessionStaysPrivate(t *testing.T) {
	f := newEntryFixture(nil)
	ctx := context.Background()
	_, err := f.board.Weekly(ctx, 0)
	require.NoError(t, err)

	registry := NewDemoRegistry(time.Hour)
	registry.now = fixedClock(testNow)
	demo := registry.Enable()

	res, err := f.svc.SubmitManual(ctx, demo, 0, ManualEntry{TravelMode: "cycle", FoodType: "vegan"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Entry.TotalEmissions)

	entries, err := demo.FetchEntries(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 8)

	assert.NotContains(t, f.notifier.types(), EventEntryCreated)
	_, err = f.board.Weekly(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, f.ranker.calls)
}

func TestTodayAndRecent(t *testing.T) {
	f := newEntryFixture(nil)
	ctx := context.Background()

	f.store.entries = []models.CarbonEntry{
		{UserID: 1, EntryDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), TotalEmissions: 1},
		{UserID: 1, EntryDate: time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC), TotalEmissions: 2},
		{UserID: 1, EntryDate: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), TotalEmissions: 3},
		{UserID: 2, EntryDate: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), TotalEmissions: 4},
	}

	today, err := f.svc.Today(ctx, f.store, 1)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, 3.0, today[0].TotalEmissions)

	week, err := f.svc.Recent(ctx, f.store, 1, 7)
	require.NoError(t, err)
	assert.Len(t, week, 2)
	assert.Equal(t, "2026-10-10", f.store.lastFrom.Format(models.DateLayout))

	_, err = f.svc.Recent(ctx, f.store, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", f.store.lastFrom.Format(models.DateLayout))
}
