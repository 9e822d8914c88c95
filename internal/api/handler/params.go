package handler

import (
	"net/http"
	"strconv"

	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/weather"
)

// queryPoint reads the lat and lon query parameters. ok is false when both
// are absent; supplying only one of them is a field error.
func queryPoint(r *http.Request) (p models.Point, ok bool, fieldErrors []models.FieldError) {
	q := r.URL.Query()
	rawLat, rawLon := q.Get("lat"), q.Get("lon")
	if rawLat == "" && rawLon == "" {
		return p, false, nil
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lat", Message: "must be a number", Code: "INVALID_NUMBER"})
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lon", Message: "must be a number", Code: "INVALID_NUMBER"})
	}
	if len(fieldErrors) == 0 {
		fieldErrors = pointErrors(lat, lon)
	}

	return models.Point{Lat: lat, Lon: lon}, true, fieldErrors
}

func pointErrors(lat, lon float64) []models.FieldError {
	if err := weather.ValidateCoordinates(lat, lon); err == nil {
		return nil
	}

	var fieldErrors []models.FieldError
	if !(lat >= -90 && lat <= 90) {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lat", Message: "must be between -90 and 90", Code: "OUT_OF_RANGE"})
	}
	if !(lon >= -180 && lon <= 180) {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lon", Message: "must be between -180 and 180", Code: "OUT_OF_RANGE"})
	}
	return fieldErrors
}

// queryLimit parses an optional positive limit, clamped to max.
func queryLimit(r *http.Request, def, max int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, false
	}
	if limit > max {
		limit = max
	}
	return limit, true
}
