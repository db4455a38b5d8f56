// models/carbon_entry.go
package models

import (
	"time"

	"carbonsense/badges"
)

const DateLayout = "2006-01-02"

// Entry sources.
const (
	SourceML         = "ml"
	SourceCalculator = "calculator"
	SourceImport     = "import"
	SourceDemo       = "demo"
)

// CarbonEntry is one logged day of lifestyle data. Entries are append-only
// and a user may log several per day.
type CarbonEntry struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index:idx_entries_user_date,priority:1" json:"user_id"`
	EntryDate        time.Time `gorm:"type:date;not null;index:idx_entries_user_date,priority:2" json:"entry_date"`
	TotalEmissions   float64   `gorm:"not null" json:"total_emissions"`
	TravelDistanceKm float64   `gorm:"default:0" json:"travel_distance_km"`
	TravelMode       string    `gorm:"size:20" json:"travel_mode"`
	FoodType         string    `gorm:"size:20" json:"food_type"`
	ElectricityKwh   float64   `gorm:"default:0" json:"electricity_kwh"`
	Source           string    `gorm:"size:20;default:'calculator'" json:"source"`
	CreatedAt        time.Time `json:"created_at"`
}

func (CarbonEntry) TableName() string {
	return "carbon_entries"
}

// Day returns the entry date as YYYY-MM-DD.
func (e CarbonEntry) Day() string {
	return e.EntryDate.Format(DateLayout)
}

// History converts entries into evaluator input, keeping their order.
func History(entries []CarbonEntry) []badges.HistoryEntry {
	out := make([]badges.HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = badges.HistoryEntry{
			TravelMode:     e.TravelMode,
			FoodType:       e.FoodType,
			TotalEmissions: e.TotalEmissions,
			ElectricityKwh: e.ElectricityKwh,
			EntryDate:      e.Day(),
		}
	}
	return out
}

// DateOf returns t's calendar date as UTC midnight so date columns
// round-trip unchanged.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
