package entryfile

import (
	"strings"
	"testing"
	"time"

	"carbonsense/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `[
  {"date": "2026-04-01", "travel_distance_km": 10, "travel_mode": "car", "electricity_kwh": 5, "food_type": "veg"},
  {"date": "2026-04-02", "travel_distance_km": 3, "travel_mode": "walk", "electricity_kwh": 2, "food_type": "vegan", "total_emissions": 1.25}
]`

func TestDecodeAndConvert(t *testing.T) {
	records, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, Check(records))

	first, err := records[0].Entry(42)
	require.NoError(t, err)
	assert.Equal(t, uint(42), first.UserID)
	assert.Equal(t, 4.25, first.TotalEmissions)
	assert.Equal(t, models.SourceImport, first.Source)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), first.EntryDate)

	second, err := records[1].Entry(42)
	require.NoError(t, err)
	assert.Equal(t, 1.25, second.TotalEmissions)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader(`[{"date": "2026-04-01", "mood": "happy"}]`))
	require.Error(t, err)
}

func TestCheckReportsEveryBadRecord(t *testing.T) {
	negative := -1.0
	records := []Record{
		{Date: "2026-04-01", TravelMode: "car", FoodType: "veg"},
		{Date: "04/01/2026", TravelMode: "car", FoodType: "veg"},
		{Date: "2026-04-03", TravelMode: "scooter", FoodType: "veg"},
		{Date: "2026-04-04", TravelMode: "bus", FoodType: "keto", ElectricityKwh: -2},
		{Date: "2026-04-05", TravelMode: "bus", FoodType: "veg", TotalEmissions: &negative},
	}

	problems := Check(records)
	require.Len(t, problems, 4)
	assert.Equal(t, 1, problems[0].Index)
	assert.Contains(t, problems[0].Message, "date")
	assert.Contains(t, problems[1].Message, "travel_mode")
	assert.Contains(t, problems[2].Message, "food_type")
	assert.Contains(t, problems[2].Message, "electricity_kwh")
	assert.Contains(t, problems[3].Message, "total_emissions")
	assert.Equal(t, "entry 2: "+problems[0].Message, problems[0].String())
}
