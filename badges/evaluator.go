package badges

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// HistoryEntry is the slice of an entry the rules look at.
type HistoryEntry struct {
	TravelMode     string
	FoodType       string
	TotalEmissions float64
	ElectricityKwh float64
	EntryDate      string // YYYY-MM-DD
}

// carbonCutterThreshold is compared against stored totals as-is. Totals are
// kilograms, so in practice every entry passes.
const carbonCutterThreshold = 5000

const (
	bikeLoverDays   = 5
	vegDays         = 3
	streakDays      = 7
	transitTrips    = 10
	lowPowerEntries = 7
	lowPowerKwh     = 5
)

// rules maps a badge to its predicate. earth_hero has none and is never awarded.
var rules = map[string]func([]HistoryEntry) bool{
	EcoStarter: func(h []HistoryEntry) bool {
		return len(h) >= 1
	},
	BikeLover: func(h []HistoryEntry) bool {
		return distinctDates(h, func(e HistoryEntry) bool {
			return e.TravelMode == "cycle" || e.TravelMode == "walk"
		}) >= bikeLoverDays
	},
	VegDay: func(h []HistoryEntry) bool {
		return distinctDates(h, func(e HistoryEntry) bool {
			return e.FoodType == "veg" || e.FoodType == "vegan"
		}) >= vegDays
	},
	CarbonCutter: func(h []HistoryEntry) bool {
		return count(h, func(e HistoryEntry) bool {
			return e.TotalEmissions < carbonCutterThreshold
		}) > 0
	},
	GreenStreak: func(h []HistoryEntry) bool {
		return hasStreak(h, streakDays)
	},
	TransitPro: func(h []HistoryEntry) bool {
		return count(h, func(e HistoryEntry) bool {
			return e.TravelMode == "bus" || e.TravelMode == "train"
		}) >= transitTrips
	},
	SolarSaver: func(h []HistoryEntry) bool {
		return count(h, func(e HistoryEntry) bool {
			return e.ElectricityKwh < lowPowerKwh
		}) >= lowPowerEntries
	},
}

// Evaluate returns the badges the whole history qualifies for that are not
// already earned, in catalog order. It does not modify its inputs.
func Evaluate(history []HistoryEntry, earned map[string]bool) []string {
	var newly []string
	for _, b := range catalog {
		if earned[b.ID] {
			continue
		}
		rule, ok := rules[b.ID]
		if !ok {
			continue
		}
		if rule(history) {
			newly = append(newly, b.ID)
		}
	}
	return newly
}

// HasRule reports whether the evaluator can ever award id.
func HasRule(id string) bool {
	_, ok := rules[id]
	return ok
}

func count(h []HistoryEntry, match func(HistoryEntry) bool) int {
	n := 0
	for _, e := range h {
		if match(e) {
			n++
		}
	}
	return n
}

func distinctDates(h []HistoryEntry, match func(HistoryEntry) bool) int {
	seen := make(map[string]struct{})
	for _, e := range h {
		if match(e) {
			seen[e.EntryDate] = struct{}{}
		}
	}
	return len(seen)
}

// hasStreak scans distinct dates newest first and stops once a run of
// consecutive days reaches want.
func hasStreak(h []HistoryEntry, want int) bool {
	seen := make(map[string]struct{}, len(h))
	dates := make([]string, 0, len(h))
	for _, e := range h {
		if _, ok := seen[e.EntryDate]; ok {
			continue
		}
		seen[e.EntryDate] = struct{}{}
		dates = append(dates, e.EntryDate)
	}
	if len(dates) < want {
		return false
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	run := 1
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i], dates[i-1]) == 1 {
			run++
			if run >= want {
				return true
			}
		} else {
			run = 1
		}
	}
	return run >= want
}

// daysBetween returns later minus earlier in whole days, or -1 if either
// date does not parse.
func daysBetween(earlier, later string) int {
	a, err := time.Parse(dateLayout, earlier)
	if err != nil {
		return -1
	}
	b, err := time.Parse(dateLayout, later)
	if err != nil {
		return -1
	}
	return int(b.Sub(a).Hours() / 24)
}
