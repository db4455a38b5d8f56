// services/distance.go - OpenRouteService geocoding and routing proxy
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DistanceError is returned for every distance failure. Its message is safe
// to show to the user.
type DistanceError struct {
	Message string
}

func (e *DistanceError) Error() string { return e.Message }

func distanceErr(format string, args ...interface{}) error {
	return &DistanceError{Message: fmt.Sprintf(format, args...)}
}

type DistanceRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Mode        string `json:"mode"`
}

type DistanceValue struct {
	Km   float64 `json:"km"`
	Text string  `json:"text"`
}

type DurationValue struct {
	Minutes int    `json:"minutes"`
	Text    string `json:"text"`
}

type DistanceResult struct {
	Distance    DistanceValue `json:"distance"`
	Duration    DurationValue `json:"duration"`
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
}

// routingProfiles maps travel modes to ORS profiles. Buses and trains are
// approximated by the car profile.
var routingProfiles = map[string]string{
	"car":       "driving-car",
	"motorbike": "driving-car",
	"bus":       "driving-car",
	"train":     "driving-car",
	"cycle":     "cycling-regular",
	"walk":      "foot-walking",
}

// RoutingProfile returns the ORS profile for mode, defaulting to driving.
func RoutingProfile(mode string) string {
	if p, ok := routingProfiles[mode]; ok {
		return p
	}
	return "driving-car"
}

var coordinatePattern = regexp.MustCompile(`^-?\d+\.?\d*,-?\d+\.?\d*$`)

// DistanceService resolves two places and asks ORS for a route between them.
// It makes one attempt per upstream call.
type DistanceService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewDistanceService(apiKey, baseURL string, log *zap.Logger) *DistanceService {
	return &DistanceService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

func (s *DistanceService) Calculate(ctx context.Context, req DistanceRequest) (*DistanceResult, error) {
	if s.apiKey == "" {
		return nil, distanceErr("OpenRouteService API key not configured")
	}

	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if origin == "" || destination == "" {
		return nil, distanceErr("Origin and destination are required")
	}

	from, err := s.resolve(ctx, origin)
	if err != nil {
		return nil, err
	}
	to, err := s.resolve(ctx, destination)
	if err != nil {
		return nil, err
	}

	profile := RoutingProfile(req.Mode)
	meters, seconds, err := s.route(ctx, profile, from, to)
	if err != nil {
		return nil, err
	}

	km := meters / 1000
	minutes := int(math.Round(seconds / 60))

	s.log.Debug("Route calculated",
		zap.String("profile", profile),
		zap.Float64("km", km),
		zap.Int("minutes", minutes),
	)

	return &DistanceResult{
		Distance:    DistanceValue{Km: km, Text: FormatDistance(km)},
		Duration:    DurationValue{Minutes: minutes, Text: FormatDuration(minutes)},
		Origin:      origin,
		Destination: destination,
	}, nil
}

// resolve returns [lng, lat]. "lat,lng" input is used without geocoding.
func (s *DistanceService) resolve(ctx context.Context, place string) ([2]float64, error) {
	if coordinatePattern.MatchString(place) {
		parts := strings.SplitN(place, ",", 2)
		lat, _ := strconv.ParseFloat(parts[0], 64)
		lng, _ := strconv.ParseFloat(parts[1], 64)
		return [2]float64{lng, lat}, nil
	}
	return s.geocode(ctx, place)
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func (s *DistanceService) geocode(ctx context.Context, text string) ([2]float64, error) {
	q := url.Values{}
	q.Set("api_key", s.apiKey)
	q.Set("text", text)
	q.Set("size", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/geocode/search?"+q.Encode(), nil)
	if err != nil {
		return [2]float64{}, distanceErr("Could not geocode address: %s", text)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("Geocoding request failed", zap.String("text", text), zap.Error(err))
		return [2]float64{}, distanceErr("Could not geocode address: %s", text)
	}
	defer resp.Body.Close()

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil ||
		len(body.Features) == 0 || len(body.Features[0].Geometry.Coordinates) < 2 {
		return [2]float64{}, distanceErr("Could not geocode address: %s", text)
	}

	c := body.Features[0].Geometry.Coordinates
	return [2]float64{c[0], c[1]}, nil
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
	} `json:"routes"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// route returns meters and seconds.
func (s *DistanceService) route(ctx context.Context, profile string, from, to [2]float64) (float64, float64, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"coordinates": [][2]float64{from, to},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v2/directions/"+profile, bytes.NewReader(payload))
	if err != nil {
		return 0, 0, distanceErr("Failed to calculate distance")
	}
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("Directions request failed", zap.String("profile", profile), zap.Error(err))
		return 0, 0, distanceErr("Failed to calculate distance")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, 0, distanceErr("Failed to calculate distance")
	}

	var body directionsResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, 0, distanceErr("Failed to calculate distance")
	}
	if body.Error != nil {
		msg := body.Error.Message
		if msg == "" {
			msg = "OpenRouteService API error"
		}
		return 0, 0, &DistanceError{Message: msg}
	}
	if len(body.Routes) == 0 {
		return 0, 0, distanceErr("Could not calculate route for the given locations")
	}

	sum := body.Routes[0].Summary
	return sum.Distance, sum.Duration, nil
}

// FormatDistance renders km with one decimal, or whole meters under 1 km.
func FormatDistance(km float64) string {
	if km >= 1 {
		return fmt.Sprintf("%.1f km", km)
	}
	return fmt.Sprintf("%d m", int(math.Round(km*1000)))
}

// FormatDuration renders minutes as "H hr M min", "H hr" or "M min".
func FormatDuration(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%d hr %d min", h, m)
	case h > 0:
		return fmt.Sprintf("%d hr", h)
	default:
		return fmt.Sprintf("%d min", m)
	}
}
