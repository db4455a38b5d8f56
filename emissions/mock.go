package emissions

import (
	"math/rand"
	"time"
)

var (
	mockModes = []string{"car", "bus", "train", "cycle", "walk"}
	mockFoods = []string{"vegan", "veg", "non-veg"}
)

// DayEntry is a generated day of sample data.
type DayEntry struct {
	Date time.Time `json:"date"`
	Entry
	Breakdown
}

// MockWeek generates seven days of sample entries ending on now's date,
// oldest first. Distances fall in [5,44] km and electricity in [2,9] kWh.
func MockWeek(now time.Time, rng *rand.Rand) []DayEntry {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	week := make([]DayEntry, 0, 7)

	for i := 6; i >= 0; i-- {
		e := Entry{
			TravelMode:       mockModes[rng.Intn(len(mockModes))],
			FoodType:         mockFoods[rng.Intn(len(mockFoods))],
			TravelDistanceKm: float64(rng.Intn(40) + 5),
			ElectricityKwh:   float64(rng.Intn(8) + 2),
		}
		week = append(week, DayEntry{
			Date:      day.AddDate(0, 0, -i),
			Entry:     e,
			Breakdown: Calculate(e),
		})
	}

	return week
}
