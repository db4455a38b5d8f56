// services/dashboard.go - Weekly stats and eco tips
package services

import (
	"context"
	"time"

	"carbonsense/emissions"
	"carbonsense/models"
)

const weekDays = 7

// DayPoint is one bar of the seven day chart.
type DayPoint struct {
	Date      string  `json:"date"`
	Name      string  `json:"name"`
	Emissions float64 `json:"emissions"`
}

// Categories sums calculator parts over a set of entries.
type Categories struct {
	Travel      float64 `json:"travel"`
	Electricity float64 `json:"electricity"`
	Food        float64 `json:"food"`
}

func (c Categories) total() float64 {
	return c.Travel + c.Electricity + c.Food
}

type Dashboard struct {
	TodayTotal        float64    `json:"today_total"`
	WeeklyTotal       float64    `json:"weekly_total"`
	AvgEmission       float64    `json:"avg_emission"`
	EntriesCount      int        `json:"entries_count"`
	TodayEntriesCount int        `json:"today_entries_count"`
	Chart             []DayPoint `json:"chart"`
	Categories        Categories `json:"categories"`
	Level             string     `json:"level"`
	Color             string     `json:"color"`

	TodayText   string `json:"today_text"`
	WeeklyText  string `json:"weekly_text"`
	AverageText string `json:"average_text"`
}

// BuildDashboard summarises the entries of the seven days ending on now.
// Entries outside that window are ignored.
func BuildDashboard(entries []models.CarbonEntry, now time.Time) Dashboard {
	today := models.DateOf(now)
	start := today.AddDate(0, 0, -(weekDays - 1))

	byDate := make(map[string]float64, weekDays)
	var d Dashboard
	for _, e := range entries {
		if e.EntryDate.Before(start) || e.EntryDate.After(today) {
			continue
		}
		d.EntriesCount++
		d.WeeklyTotal += e.TotalEmissions
		byDate[e.Day()] += e.TotalEmissions
		if e.EntryDate.Equal(today) {
			d.TodayEntriesCount++
			d.TodayTotal += e.TotalEmissions
		}

		parts := emissions.Calculate(emissions.Entry{
			TravelDistanceKm: e.TravelDistanceKm,
			TravelMode:       e.TravelMode,
			ElectricityKwh:   e.ElectricityKwh,
			FoodType:         e.FoodType,
		})
		d.Categories.Travel += parts.Travel
		d.Categories.Electricity += parts.Electricity
		d.Categories.Food += parts.Food
	}

	if d.EntriesCount > 0 {
		d.AvgEmission = d.WeeklyTotal / float64(d.EntriesCount)
	}

	d.Chart = make([]DayPoint, 0, weekDays)
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format(models.DateLayout)
		d.Chart = append(d.Chart, DayPoint{
			Date:      key,
			Name:      day.Format("Mon"),
			Emissions: byDate[key],
		})
	}

	level := emissions.LevelOf(d.TodayTotal)
	d.Level = string(level)
	d.Color = level.Color()
	d.TodayText = emissions.Format(d.TodayTotal)
	d.WeeklyText = emissions.Format(d.WeeklyTotal)
	d.AverageText = emissions.Format(d.AvgEmission)
	return d
}

// InsightService serves the read-only dashboard views.
type InsightService struct {
	now func() time.Time
}

func NewInsightService() *InsightService {
	return &InsightService{now: time.Now}
}

func (s *InsightService) week(ctx context.Context, store DataService, userID uint) ([]models.CarbonEntry, time.Time, error) {
	now := s.now()
	from := models.DateOf(now).AddDate(0, 0, -(weekDays - 1))
	entries, err := store.FetchEntriesSince(ctx, userID, from)
	return entries, now, err
}

func (s *InsightService) Dashboard(ctx context.Context, store DataService, userID uint) (Dashboard, error) {
	entries, now, err := s.week(ctx, store, userID)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(entries, now), nil
}

func (s *InsightService) Tips(ctx context.Context, store DataService, userID uint) ([]Tip, error) {
	d, err := s.Dashboard(ctx, store, userID)
	if err != nil {
		return nil, err
	}
	return GenerateTips(d), nil
}
