package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/api/response"
	"github.com/airsight/airsight/internal/weather"
)

const (
	minSearchQueryLength = 2
	defaultSearchLimit   = 5
	maxSearchLimit       = 5

	// CurrentLocationName labels a point reverse geocoding could not name.
	CurrentLocationName = "Current Location"
)

// Geocoder resolves place names and points.
type Geocoder interface {
	Geocode(ctx context.Context, query string, limit int) ([]weather.Place, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (*weather.Place, error)
}

// LocationHandler handles location search and presets.
type LocationHandler struct {
	geocoder Geocoder
	logger   zerolog.Logger
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(geocoder Geocoder, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{
		geocoder: geocoder,
		logger:   logger,
	}
}

// Search handles GET /v1/locations:search?q=&limit=.
func (h *LocationHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(query) < minSearchQueryLength {
		response.BadRequest(w, r, "search query too short", []models.FieldError{
			{Field: "q", Message: "must be at least 2 characters", Code: "TOO_SHORT"},
		})
		return
	}

	limit, ok := queryLimit(r, defaultSearchLimit, maxSearchLimit)
	if !ok {
		response.BadRequest(w, r, "invalid limit", []models.FieldError{
			{Field: "limit", Message: "must be a positive integer", Code: "OUT_OF_RANGE"},
		})
		return
	}

	places, err := h.geocoder.Geocode(r.Context(), query, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("location search failed")
		response.ServiceUnavailable(w, r, "location search unavailable")
		return
	}

	list := models.PlaceList{Items: make([]models.Place, 0, len(places))}
	for _, p := range places {
		list.Items = append(list.Items, toPlace(p))
	}
	response.JSON(w, r, http.StatusOK, list)
}

// Reverse handles GET /v1/locations:reverse?lat=&lon=. A point that cannot
// be named is returned as CurrentLocationName.
func (h *LocationHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	point, ok, fieldErrors := queryPoint(r)
	if !ok {
		fieldErrors = []models.FieldError{
			{Field: "lat", Message: "is required", Code: "REQUIRED"},
			{Field: "lon", Message: "is required", Code: "REQUIRED"},
		}
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid location", fieldErrors)
		return
	}

	place, err := h.geocoder.ReverseGeocode(r.Context(), point.Lat, point.Lon)
	if err != nil {
		if !errors.Is(err, weather.ErrPlaceNotFound) {
			h.logger.Warn().Err(err).
				Float64("lat", point.Lat).
				Float64("lon", point.Lon).
				Msg("reverse geocoding failed")
		}
		response.JSON(w, r, http.StatusOK, models.Place{
			Name:        CurrentLocationName,
			DisplayName: CurrentLocationName,
			Point:       point,
		})
		return
	}

	response.JSON(w, r, http.StatusOK, toPlace(*place))
}

// Presets handles GET /v1/locations/presets.
func (h *LocationHandler) Presets(w http.ResponseWriter, r *http.Request) {
	list := models.PresetList{
		Items:   make([]models.Location, 0, len(airquality.PresetLocations)),
		Default: toLocation(airquality.DefaultLocation),
	}
	for _, l := range airquality.PresetLocations {
		list.Items = append(list.Items, toLocation(l))
	}
	response.JSON(w, r, http.StatusOK, list)
}

func toPlace(p weather.Place) models.Place {
	return models.Place{
		Name:        p.Name,
		DisplayName: p.DisplayName(),
		Point:       models.Point{Lat: p.Lat, Lon: p.Lon},
		Country:     p.Country,
		State:       p.State,
	}
}

func toLocation(l airquality.Location) models.Location {
	return models.Location{Name: l.Name, Point: models.Point{Lat: l.Lat, Lon: l.Lon}}
}
