// emissions/emissions.go - CO₂ emission factors, breakdown and display helpers
package emissions

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// Travel emission factors in kg CO₂ per km.
var travelFactors = map[string]float64{
	"car":       0.12,
	"motorbike": 0.09,
	"bus":       0.07,
	"train":     0.04,
	"cycle":     0,
	"walk":      0,
}

// ElectricityFactor is kg CO₂ per kWh.
const ElectricityFactor = 0.45

// Food emission factors in kg CO₂ per entry (diet type only, not meal count).
var foodFactors = map[string]float64{
	"vegan":   0.5,
	"veg":     0.8,
	"non-veg": 2.5,
}

const defaultFood = "veg"

// TravelModes lists the accepted travel modes in display order.
var TravelModes = []string{"car", "motorbike", "bus", "train", "cycle", "walk"}

// FoodTypes lists the accepted food types in display order.
var FoodTypes = []string{"vegan", "veg", "non-veg"}

// Entry is one day's lifestyle input.
type Entry struct {
	TravelDistanceKm float64 `json:"travel_distance_km"`
	TravelMode       string  `json:"travel_mode"`
	ElectricityKwh   float64 `json:"electricity_kwh"`
	FoodType         string  `json:"food_type"`
}

// Breakdown holds kilograms of CO₂ per category, each rounded to two decimals.
type Breakdown struct {
	Travel      float64 `json:"travel"`
	Electricity float64 `json:"electricity"`
	Food        float64 `json:"food"`
	Total       float64 `json:"total"`
}

// Calculate never fails. An unknown travel mode contributes nothing and an
// unknown food type falls back to the veg factor. The total is summed before
// rounding, so it can differ from the sum of the rounded parts by a few
// hundredths.
func Calculate(e Entry) Breakdown {
	travel := e.TravelDistanceKm * travelFactors[e.TravelMode]
	electricity := e.ElectricityKwh * ElectricityFactor

	food, ok := foodFactors[e.FoodType]
	if !ok {
		food = foodFactors[defaultFood]
	}

	total := travel + electricity + food

	return Breakdown{
		Travel:      round2(travel),
		Electricity: round2(electricity),
		Food:        round2(food),
		Total:       round2(total),
	}
}

// Format renders kilograms as tonnes, kilograms or grams.
func Format(kg float64) string {
	if kg >= 1000 {
		return toFixed2(kg/1000) + "t"
	}
	if kg >= 1 {
		return toFixed2(kg) + "kg"
	}
	return fmt.Sprintf("%dg", int64(math.Round(kg*1000)))
}

// IsTravelMode reports whether mode has a known factor.
func IsTravelMode(mode string) bool {
	_, ok := travelFactors[mode]
	return ok
}

// IsFoodType reports whether food has a known factor.
func IsFoodType(food string) bool {
	_, ok := foodFactors[food]
	return ok
}

func round2(v float64) float64 {
	f, _ := strconv.ParseFloat(toFixed2(v), 64)
	return f
}

// toFixed2 renders v with two decimals, rounding the exact binary value of v
// half away from zero.
func toFixed2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return new(big.Rat).SetFloat64(v).FloatString(2)
}
