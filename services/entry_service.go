// services/entry_service.go - Entry submission and history
package services

import (
	"context"
	"fmt"
	"time"

	"carbonsense/badges"
	"carbonsense/emissions"
	"carbonsense/models"

	"go.uber.org/zap"
)

// ManualEntry is a calculator submission.
type ManualEntry struct {
	TravelDistanceKm float64 `json:"travel_distance_km" validate:"gte=0"`
	TravelMode       string  `json:"travel_mode" validate:"required,travel_mode"`
	ElectricityKwh   float64 `json:"electricity_kwh" validate:"gte=0"`
	FoodType         string  `json:"food_type" validate:"required,food_type"`
}

// EntryResult is a saved entry with whatever badges it unlocked. Breakdown
// is only set for calculator entries.
type EntryResult struct {
	Entry     models.CarbonEntry   `json:"entry"`
	Breakdown *emissions.Breakdown `json:"breakdown,omitempty"`
	Badges    []badges.Badge       `json:"new_badges"`
}

type EntryService struct {
	predictor   Prediction
	badges      *BadgeService
	leaderboard *LeaderboardService
	notifier    Notifier
	log         *zap.Logger
	now         func() time.Time
}

func NewEntryService(predictor Prediction, badgeService *BadgeService, leaderboard *LeaderboardService, notifier Notifier, log *zap.Logger) *EntryService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &EntryService{
		predictor:   predictor,
		badges:      badgeService,
		leaderboard: leaderboard,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

// SubmitPredicted asks the model for today's total and saves it. Nothing is
// saved when the prediction fails.
func (s *EntryService) SubmitPredicted(ctx context.Context, store DataService, userID uint, form LifestyleForm) (*EntryResult, error) {
	total, err := s.predictor.Predict(ctx, form)
	if err != nil {
		return nil, err
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: negative prediction %.2f", ErrPredictionFailed, total)
	}

	entry := &models.CarbonEntry{
		UserID:           userID,
		EntryDate:        models.DateOf(s.now()),
		TotalEmissions:   total,
		TravelDistanceKm: form.Distance,
		TravelMode:       form.TravelMode(),
		FoodType:         form.FoodType(),
		Source:           models.SourceML,
	}
	return s.save(ctx, store, entry, nil)
}

// SubmitManual runs the calculator and saves today's entry with its total.
func (s *EntryService) SubmitManual(ctx context.Context, store DataService, userID uint, in ManualEntry) (*EntryResult, error) {
	breakdown := emissions.Calculate(emissions.Entry{
		TravelDistanceKm: in.TravelDistanceKm,
		TravelMode:       in.TravelMode,
		ElectricityKwh:   in.ElectricityKwh,
		FoodType:         in.FoodType,
	})

	entry := &models.CarbonEntry{
		UserID:           userID,
		EntryDate:        models.DateOf(s.now()),
		TotalEmissions:   breakdown.Total,
		TravelDistanceKm: in.TravelDistanceKm,
		TravelMode:       in.TravelMode,
		FoodType:         in.FoodType,
		ElectricityKwh:   in.ElectricityKwh,
		Source:           models.SourceCalculator,
	}
	return s.save(ctx, store, entry, &breakdown)
}

func (s *EntryService) save(ctx context.Context, store DataService, entry *models.CarbonEntry, breakdown *emissions.Breakdown) (*EntryResult, error) {
	if err := store.InsertEntry(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info("Carbon entry saved",
		zap.Uint("user_id", entry.UserID),
		zap.String("source", entry.Source),
		zap.Float64("total_kg", entry.TotalEmissions))

	earned := s.badges.Award(ctx, store, entry.UserID)

	// Demo sessions are private to their token holder.
	if _, demo := store.(*DemoSession); !demo {
		s.notifier.Notify(entry.UserID, EventEntryCreated, entry)
		if s.leaderboard != nil {
			s.leaderboard.Invalidate(ctx)
		}
	}

	return &EntryResult{Entry: *entry, Breakdown: breakdown, Badges: earned}, nil
}

// Today returns today's entries, newest first.
func (s *EntryService) Today(ctx context.Context, store DataService, userID uint) ([]models.CarbonEntry, error) {
	return store.FetchEntriesSince(ctx, userID, s.now())
}

// Recent returns entries from the last days days, today included.
func (s *EntryService) Recent(ctx context.Context, store DataService, userID uint, days int) ([]models.CarbonEntry, error) {
	if days < 1 {
		days = 1
	}
	from := models.DateOf(s.now()).AddDate(0, 0, -(days - 1))
	return store.FetchEntriesSince(ctx, userID, from)
}
