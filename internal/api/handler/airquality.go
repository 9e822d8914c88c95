package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/alert"
	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/api/response"
	"github.com/airsight/airsight/internal/aqi"
	"github.com/airsight/airsight/internal/weather"
)

// AirQualityService serves scored readings.
type AirQualityService interface {
	Outdoor(ctx context.Context, lat, lon float64) (*airquality.Assessment, error)
	Indoor(ctx context.Context) (*airquality.Assessment, error)
}

// AlertEvaluator raises alerts for a reading.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, key string, reading *airquality.Reading) ([]alert.Alert, error)
}

// AirQualityHandler handles the outdoor and indoor air quality endpoints.
type AirQualityHandler struct {
	service AirQualityService
	alerts  AlertEvaluator
	logger  zerolog.Logger
}

// NewAirQualityHandler creates a new AirQualityHandler. alerts may be nil.
func NewAirQualityHandler(service AirQualityService, alerts AlertEvaluator, logger zerolog.Logger) *AirQualityHandler {
	return &AirQualityHandler{
		service: service,
		alerts:  alerts,
		logger:  logger,
	}
}

// Outdoor handles GET /v1/air-quality/outdoor?lat=&lon=&name=. Without
// coordinates the default location is used.
func (h *AirQualityHandler) Outdoor(w http.ResponseWriter, r *http.Request) {
	point, ok, fieldErrors := queryPoint(r)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid location", fieldErrors)
		return
	}

	name := r.URL.Query().Get("name")
	if !ok {
		point = models.Point{Lat: airquality.DefaultLocation.Lat, Lon: airquality.DefaultLocation.Lon}
		name = airquality.DefaultLocation.Name
	}

	assessment, err := h.service.Outdoor(r.Context(), point.Lat, point.Lon)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := toAirQuality(assessment)
	resp.Location = &models.Location{Name: name, Point: point}
	resp.Alerts = h.evaluate(r.Context(), airquality.LocationKey(point.Lat, point.Lon), assessment.Reading)

	response.JSON(w, r, http.StatusOK, resp)
}

// Indoor handles GET /v1/air-quality/indoor.
func (h *AirQualityHandler) Indoor(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.service.Indoor(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := toAirQuality(assessment)
	resp.Alerts = h.evaluate(r.Context(), airquality.IndoorKey, assessment.Reading)

	response.JSON(w, r, http.StatusOK, resp)
}

func (h *AirQualityHandler) evaluate(ctx context.Context, key string, reading *airquality.Reading) []models.Alert {
	if h.alerts == nil {
		return nil
	}
	alerts, err := h.alerts.Evaluate(ctx, key, reading)
	if err != nil {
		h.logger.Warn().Err(err).Str("key", key).Msg("alert delivery failed")
	}
	return toAlerts(alerts)
}

func (h *AirQualityHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, airquality.ErrInvalidLocation):
		response.BadRequest(w, r, "invalid location", nil)
	case errors.Is(err, airquality.ErrIndoorNotConfigured):
		response.NotFound(w, r, "no indoor sensor is configured")
	case errors.Is(err, airquality.ErrNoIndoorData):
		response.ServiceUnavailable(w, r, "no indoor reading has been received yet")
	case errors.Is(err, airquality.ErrProviderUnavailable):
		response.ServiceUnavailable(w, r, "air quality provider unavailable")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("air quality request failed")
		response.InternalError(w, r, "failed to load air quality")
	}
}

func toAirQuality(a *airquality.Assessment) models.AirQuality {
	reading := a.Reading

	resp := models.AirQuality{
		Source:          string(reading.Source),
		Provider:        reading.Provider,
		AQI:             models.NewAQIResult(a.Result),
		Pollutants:      make([]models.PollutantReading, 0, len(aqi.Pollutants)),
		Recommendations: models.NewRecommendations(a.Recommendations),
		ObservedAt:      models.Timestamp(reading.ObservedAt),
		FetchedAt:       models.Timestamp(reading.FetchedAt),
	}

	for _, p := range aqi.Pollutants {
		resp.Pollutants = append(resp.Pollutants, models.PollutantReading{
			Pollutant:   p,
			DisplayName: p.DisplayName(),
			Unit:        reading.Unit(p),
			Value:       reading.Concentrations.Get(p),
			Level:       a.MetricLevels[p],
		})
	}

	if reading.Weather != nil {
		resp.Weather = toWeather(reading.Source, reading.Weather)
	}

	if a.PredictedAQI != nil && a.PredictedLevel != nil {
		resp.Prediction = &models.Prediction{
			AQI:   *a.PredictedAQI,
			Level: *a.PredictedLevel,
			Label: a.PredictedLevel.Label(),
		}
	}

	return resp
}

func toWeather(source airquality.Source, obs *weather.Observation) *models.Weather {
	out := &models.Weather{
		Temperature: obs.Temperature,
		FeelsLike:   obs.FeelsLike,
		Humidity:    obs.Humidity,
		Pressure:    obs.Pressure,
	}
	if source != airquality.SourceOutdoor {
		return out
	}

	cloud, speed, dir := obs.CloudCover, obs.WindSpeed, obs.WindDirection
	out.CloudCover = &cloud
	out.WindSpeed = &speed
	out.WindDirection = &dir
	out.Rain1h = obs.Rain1h
	out.Rain3h = obs.Rain3h
	out.Condition = string(obs.Condition)
	out.Description = obs.Description

	if obs.UVIndex != nil {
		level := weather.ClassifyUV(*obs.UVIndex)
		out.UV = &models.UVIndex{
			Value:  *obs.UVIndex,
			Level:  string(level),
			Advice: level.Advice(),
		}
	}
	return out
}

func toAlerts(alerts []alert.Alert) []models.Alert {
	if len(alerts) == 0 {
		return nil
	}
	out := make([]models.Alert, len(alerts))
	for i, a := range alerts {
		out[i] = models.Alert{
			ID:        a.ID,
			Key:       a.Key,
			Source:    string(a.Source),
			Pollutant: a.Pollutant,
			Level:     a.Level,
			Value:     a.Value,
			Unit:      a.Unit,
			Message:   a.Message,
			RaisedAt:  models.Timestamp(a.RaisedAt),
		}
	}
	return out
}
