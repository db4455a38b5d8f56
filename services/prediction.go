// services/prediction.go - ML emission prediction proxy
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"go.uber.org/zap"
)

// LifestyleForm is the questionnaire behind an ML prediction. Missing fields
// take the defaults below.
type LifestyleForm struct {
	Grocery   float64 `json:"grocery" default:"3000" validate:"gte=0"`
	Distance  float64 `json:"distance" default:"10" validate:"gte=0"`
	Waste     float64 `json:"waste" default:"2" validate:"gte=0"`
	TV        float64 `json:"tv" default:"3" validate:"gte=0,lte=24"`
	Internet  float64 `json:"internet" default:"5" validate:"gte=0,lte=24"`
	Clothes   float64 `json:"clothes" default:"1" validate:"gte=0"`
	Gender    string  `json:"gender" default:"male" validate:"oneof=male female"`
	Body      string  `json:"body" default:"overweight" validate:"oneof=underweight overweight obese"`
	Diet      string  `json:"diet" default:"vegetarian" validate:"oneof=vegetarian vegan pescatarian"`
	Transport string  `json:"transport" default:"public" validate:"oneof=public walk private"`
	Vehicle   string  `json:"vehicle" default:"petrol" validate:"oneof=petrol electric hybrid lpg"`
}

// NewLifestyleForm returns a form filled with defaults.
func NewLifestyleForm() LifestyleForm {
	var f LifestyleForm
	_ = defaults.Set(&f)
	return f
}

// TravelMode maps the transport answer onto the calculator's travel modes.
func (f LifestyleForm) TravelMode() string {
	switch f.Transport {
	case "walk":
		return "walk"
	case "private":
		return "car"
	default:
		return "bus"
	}
}

// FoodType maps the diet answer onto the calculator's food types.
func (f LifestyleForm) FoodType() string {
	switch f.Diet {
	case "vegan":
		return "vegan"
	case "vegetarian":
		return "veg"
	default:
		return "non-veg"
	}
}

// Features is the model's input vector. One-hot fields are 0 or 1.
type Features struct {
	MonthlyGroceryBill       float64 `json:"Monthly_Grocery_Bill"`
	VehicleMonthlyDistanceKm float64 `json:"Vehicle_Monthly_Distance_Km"`
	WasteBagWeeklyCount      float64 `json:"Waste_Bag_Weekly_Count"`
	TVPCDailyHours           float64 `json:"How_Long_TV_PC_Daily_Hour"`
	NewClothesMonthly        float64 `json:"How_Many_New_Clothes_Monthly"`
	InternetDailyHours       float64 `json:"How_Long_Internet_Daily_Hour"`

	BodyTypeObese       int `json:"Body_Type_obese"`
	BodyTypeOverweight  int `json:"Body_Type_overweight"`
	BodyTypeUnderweight int `json:"Body_Type_underweight"`

	SexMale int `json:"Sex_male"`

	DietPescatarian int `json:"Diet_pescatarian"`
	DietVegan       int `json:"Diet_vegan"`
	DietVegetarian  int `json:"Diet_vegetarian"`

	TransportPublic      int `json:"Transport_public"`
	TransportWalkBicycle int `json:"Transport_walk_bicycle"`

	VehicleTypeElectric int `json:"Vehicle_Type_electric"`
	VehicleTypeHybrid   int `json:"Vehicle_Type_hybrid"`
	VehicleTypeLPG      int `json:"Vehicle_Type_lpg"`
	VehicleTypePetrol   int `json:"Vehicle_Type_petrol"`
}

func (f LifestyleForm) Features() Features {
	return Features{
		MonthlyGroceryBill:       f.Grocery,
		VehicleMonthlyDistanceKm: f.Distance,
		WasteBagWeeklyCount:      f.Waste,
		TVPCDailyHours:           f.TV,
		NewClothesMonthly:        f.Clothes,
		InternetDailyHours:       f.Internet,

		BodyTypeObese:       oneHot(f.Body == "obese"),
		BodyTypeOverweight:  oneHot(f.Body == "overweight"),
		BodyTypeUnderweight: oneHot(f.Body == "underweight"),

		SexMale: oneHot(f.Gender == "male"),

		DietPescatarian: oneHot(f.Diet == "pescatarian"),
		DietVegan:       oneHot(f.Diet == "vegan"),
		DietVegetarian:  oneHot(f.Diet == "vegetarian"),

		TransportPublic:      oneHot(f.Transport == "public"),
		TransportWalkBicycle: oneHot(f.Transport == "walk"),

		VehicleTypeElectric: oneHot(f.Vehicle == "electric"),
		VehicleTypeHybrid:   oneHot(f.Vehicle == "hybrid"),
		VehicleTypeLPG:      oneHot(f.Vehicle == "lpg"),
		VehicleTypePetrol:   oneHot(f.Vehicle == "petrol"),
	}
}

func oneHot(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Prediction estimates a day's emissions in kg from a lifestyle form.
type Prediction interface {
	Predict(ctx context.Context, form LifestyleForm) (float64, error)
}

// Predictor calls the hosted model. Its response is free text; the first
// number in it is taken as the prediction.
type Predictor struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewPredictor(url string, timeout time.Duration, log *zap.Logger) *Predictor {
	return &Predictor{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

var firstNumber = regexp.MustCompile(`[-+]?[0-9]*\.?[0-9]+`)

// ExtractPrediction returns the first number found in body.
func ExtractPrediction(body string) (float64, bool) {
	match := firstNumber.FindString(body)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Predict makes a single attempt. Any transport error, non-2xx status or a
// body without a number returns ErrPredictionFailed.
func (p *Predictor) Predict(ctx context.Context, form LifestyleForm) (float64, error) {
	payload, err := json.Marshal(form.Features())
	if err != nil {
		return 0, fmt.Errorf("%w: encode features: %v", ErrPredictionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn("ML prediction request failed", zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %v", ErrPredictionFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.log.Warn("ML prediction returned error status", zap.Int("status", resp.StatusCode))
		return 0, fmt.Errorf("%w: status %d", ErrPredictionFailed, resp.StatusCode)
	}

	value, ok := ExtractPrediction(string(body))
	if !ok {
		p.log.Warn("ML prediction response had no number", zap.String("body", truncate(string(body), 200)))
		return 0, fmt.Errorf("%w: no number in response", ErrPredictionFailed)
	}
	return value, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
