// Package entryfile reads the JSON entry files accepted by the importer.
package entryfile

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"carbonsense/emissions"
	"carbonsense/models"
	"carbonsense/utils"
)

// Record is one entry in a file. A missing total is computed with the
// calculator on import.
type Record struct {
	Date             string   `json:"date" validate:"required,datetime=2006-01-02"`
	TravelDistanceKm float64  `json:"travel_distance_km" validate:"gte=0"`
	TravelMode       string   `json:"travel_mode" validate:"required,travel_mode"`
	ElectricityKwh   float64  `json:"electricity_kwh" validate:"gte=0"`
	FoodType         string   `json:"food_type" validate:"required,food_type"`
	TotalEmissions   *float64 `json:"total_emissions,omitempty" validate:"omitempty,gte=0"`
}

// Problem is a validation failure for the record at Index (0-based).
type Problem struct {
	Index   int
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("entry %d: %s", p.Index+1, p.Message)
}

// Decode reads a JSON array of records. Unknown fields are rejected.
func Decode(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("parse entries: %w", err)
	}
	return records, nil
}

// Check validates every record and returns all problems found.
func Check(records []Record) []Problem {
	var problems []Problem
	for i, rec := range records {
		if err := utils.Validate(rec); err != nil {
			problems = append(problems, Problem{Index: i, Message: err.Error()})
		}
	}
	return problems
}

// Breakdown runs the calculator on the record's inputs.
func (r Record) Breakdown() emissions.Breakdown {
	return emissions.Calculate(emissions.Entry{
		TravelDistanceKm: r.TravelDistanceKm,
		TravelMode:       r.TravelMode,
		ElectricityKwh:   r.ElectricityKwh,
		FoodType:         r.FoodType,
	})
}

// Entry converts a validated record for userID.
func (r Record) Entry(userID uint) (models.CarbonEntry, error) {
	date, err := time.Parse(models.DateLayout, r.Date)
	if err != nil {
		return models.CarbonEntry{}, fmt.Errorf("entry date %q: %w", r.Date, err)
	}

	total := r.Breakdown().Total
	if r.TotalEmissions != nil {
		total = *r.TotalEmissions
	}

	return models.CarbonEntry{
		UserID:           userID,
		EntryDate:        models.DateOf(date),
		TotalEmissions:   total,
		TravelDistanceKm: r.TravelDistanceKm,
		TravelMode:       r.TravelMode,
		FoodType:         r.FoodType,
		ElectricityKwh:   r.ElectricityKwh,
		Source:           models.SourceImport,
	}, nil
}
