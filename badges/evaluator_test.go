package badges

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heavy is an entry that satisfies no rule on its own apart from eco_starter.
func heavy(date string) HistoryEntry {
	return HistoryEntry{
		TravelMode:     "car",
		FoodType:       "non-veg",
		TotalEmissions: 6000,
		ElectricityKwh: 12,
		EntryDate:      date,
	}
}

// days returns n consecutive dates ending on end, newest first.
func days(end string, n int) []string {
	t, _ := time.Parse(dateLayout, end)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = t.AddDate(0, 0, -i).Format(dateLayout)
	}
	return out
}

func TestEvaluateSingleEntry(t *testing.T) {
	got := Evaluate([]HistoryEntry{heavy("2026-05-01")}, map[string]bool{})
	assert.Equal(t, []string{EcoStarter}, got)
}

func TestEvaluateEmptyHistory(t *testing.T) {
	assert.Empty(t, Evaluate(nil, nil))
}

func TestEvaluateCarbonCutterThresholdIsLiteral(t *testing.T) {
	small := heavy("2026-05-01")
	small.TotalEmissions = 4.25

	got := Evaluate([]HistoryEntry{small}, nil)
	assert.ElementsMatch(t, []string{EcoStarter, CarbonCutter}, got)

	edge := heavy("2026-05-01")
	edge.TotalEmissions = 5000
	assert.NotContains(t, Evaluate([]HistoryEntry{edge}, nil), CarbonCutter)
}

func TestEvaluateBikeLoverCountsDistinctDates(t *testing.T) {
	var history []HistoryEntry
	for _, d := range days("2026-05-10", 5) {
		e := heavy(d)
		e.TravelMode = "cycle"
		history = append(history, e)
	}
	// five days cannot make a seven day run.
	got := Evaluate(history, map[string]bool{EcoStarter: true})
	assert.Equal(t, []string{BikeLover}, got)

	dup := heavy(history[2].EntryDate)
	dup.TravelMode = "walk"
	withDup := append([]HistoryEntry{dup}, history...)
	assert.Equal(t, got, Evaluate(withDup, map[string]bool{EcoStarter: true}))
}

func TestEvaluateBikeLoverNeedsFiveDates(t *testing.T) {
	var history []HistoryEntry
	for _, d := range days("2026-05-10", 4) {
		e := heavy(d)
		e.TravelMode = "walk"
		history = append(history, e, e)
	}
	assert.NotContains(t, Evaluate(history, nil), BikeLover)
}

func TestEvaluateVegDay(t *testing.T) {
	history := []HistoryEntry{heavy("2026-05-03"), heavy("2026-05-02"), heavy("2026-05-01")}
	history[0].FoodType = "veg"
	history[1].FoodType = "vegan"
	assert.NotContains(t, Evaluate(history, nil), VegDay)

	history[2].FoodType = "veg"
	assert.Contains(t, Evaluate(history, nil), VegDay)
}

func TestEvaluateGreenStreak(t *testing.T) {
	var history []HistoryEntry
	for _, d := range days("2026-05-07", 7) {
		history = append(history, heavy(d))
	}
	assert.Contains(t, Evaluate(history, nil), GreenStreak)

	// 2026-05-01 .. 05-03 then 05-05 .. 05-08: a two day gap splits the run.
	gapped := []HistoryEntry{
		heavy("2026-05-08"), heavy("2026-05-07"), heavy("2026-05-06"), heavy("2026-05-05"),
		heavy("2026-05-03"), heavy("2026-05-02"), heavy("2026-05-01"),
	}
	assert.NotContains(t, Evaluate(gapped, nil), GreenStreak)
}

func TestEvaluateGreenStreakIgnoresOrderAndDuplicates(t *testing.T) {
	dates := days("2026-01-03", 7) // crosses the year boundary
	history := []HistoryEntry{heavy(dates[3]), heavy(dates[3])}
	for i := len(dates) - 1; i >= 0; i-- {
		history = append(history, heavy(dates[i]))
	}
	assert.Contains(t, Evaluate(history, nil), GreenStreak)
}

func TestEvaluateGreenStreakFoundInOlderRun(t *testing.T) {
	var history []HistoryEntry
	history = append(history, heavy("2026-06-20"), heavy("2026-06-18"))
	for _, d := range days("2026-06-10", 8) {
		history = append(history, heavy(d))
	}
	assert.Contains(t, Evaluate(history, nil), GreenStreak)
}

func TestEvaluateTransitProCountsEveryEntry(t *testing.T) {
	var history []HistoryEntry
	for i := 0; i < 10; i++ {
		e := heavy("2026-05-01")
		if i%2 == 0 {
			e.TravelMode = "bus"
		} else {
			e.TravelMode = "train"
		}
		history = append(history, e)
	}
	assert.Contains(t, Evaluate(history, nil), TransitPro)
	assert.NotContains(t, Evaluate(history[:9], nil), TransitPro)
}

func TestEvaluateSolarSaver(t *testing.T) {
	var history []HistoryEntry
	for i := 0; i < 7; i++ {
		e := heavy(fmt.Sprintf("2026-05-%02d", i*3+1))
		e.ElectricityKwh = 4.99
		history = append(history, e)
	}
	assert.Contains(t, Evaluate(history, nil), SolarSaver)

	history[0].ElectricityKwh = 5
	assert.NotContains(t, Evaluate(history, nil), SolarSaver)
}

func TestEvaluateSkipsEarned(t *testing.T) {
	small := heavy("2026-05-01")
	small.TotalEmissions = 1
	history := []HistoryEntry{small}

	earned := map[string]bool{EcoStarter: true, CarbonCutter: true}
	assert.Empty(t, Evaluate(history, earned))
}

func TestEvaluateIsDisjointFromEarnedAndIdempotent(t *testing.T) {
	var history []HistoryEntry
	for i, d := range days("2026-05-20", 12) {
		e := HistoryEntry{TravelMode: "bus", FoodType: "vegan", TotalEmissions: 2, ElectricityKwh: 3, EntryDate: d}
		if i%3 == 0 {
			e.TravelMode = "cycle"
		}
		history = append(history, e)
	}
	earned := map[string]bool{VegDay: true, GreenStreak: true}

	first := Evaluate(history, earned)
	second := Evaluate(history, earned)
	require.Equal(t, first, second)

	for _, id := range first {
		assert.False(t, earned[id], id)
	}
	assert.Len(t, earned, 2)
}

func TestEarthHeroIsNeverAwarded(t *testing.T) {
	var history []HistoryEntry
	for i, d := range days("2026-05-30", 30) {
		mode := "train"
		if i >= 10 {
			mode = "walk"
		}
		history = append(history, HistoryEntry{TravelMode: mode, FoodType: "vegan", TotalEmissions: 0.5, ElectricityKwh: 1, EntryDate: d})
	}
	got := Evaluate(history, nil)
	assert.NotContains(t, got, EarthHero)
	assert.False(t, HasRule(EarthHero))
	assert.Len(t, got, len(Catalog())-1)
}

func TestCatalog(t *testing.T) {
	all := Catalog()
	require.Len(t, all, 8)
	assert.Equal(t, EcoStarter, all[0].ID)

	all[0].Name = "changed"
	b, ok := Lookup(EcoStarter)
	require.True(t, ok)
	assert.Equal(t, "Eco Starter", b.Name)

	_, ok = Lookup("unknown")
	assert.False(t, ok)
}
