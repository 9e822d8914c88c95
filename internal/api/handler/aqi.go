package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/api/response"
	"github.com/airsight/airsight/internal/aqi"
)

// AQIHandler exposes the AQI engine.
type AQIHandler struct{}

// NewAQIHandler creates a new AQIHandler.
func NewAQIHandler() *AQIHandler {
	return &AQIHandler{}
}

// Calculate handles POST /v1/aqi:calculate.
func (h *AQIHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var input models.CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	c, fieldErrors := concentrationsFromRequest(&input)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid concentrations", fieldErrors)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewAQIResult(aqi.Calculate(c)))
}

func concentrationsFromRequest(input *models.CalculateRequest) (aqi.Concentrations, []models.FieldError) {
	var c aqi.Concentrations
	var fieldErrors []models.FieldError

	fields := []struct {
		name  string
		value *float64
		dst   *float64
	}{
		{"pm25", input.PM25, &c.PM25},
		{"pm10", input.PM10, &c.PM10},
		{"co", input.CO, &c.CO},
		{"no2", input.NO2, &c.NO2},
		{"so2", input.SO2, &c.SO2},
		{"o3", input.O3, &c.O3},
	}

	for _, f := range fields {
		if f.value == nil {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field: f.name, Message: "is required", Code: "REQUIRED",
			})
			continue
		}
		if err := aqi.ValidateConcentration(*f.value); err != nil {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field: f.name, Message: err.Error(), Code: "OUT_OF_RANGE",
			})
			continue
		}
		*f.dst = *f.value
	}

	return c, fieldErrors
}

// Classify handles GET /v1/aqi/classify?aqi=.
func (h *AQIHandler) Classify(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("aqi")
	if raw == "" {
		response.BadRequest(w, r, "aqi is required", []models.FieldError{
			{Field: "aqi", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	index, err := strconv.Atoi(raw)
	if err != nil || index < aqi.MinIndex {
		response.BadRequest(w, r, "aqi must be a non-negative integer", []models.FieldError{
			{Field: "aqi", Message: "must be a non-negative integer", Code: "OUT_OF_RANGE"},
		})
		return
	}

	level := aqi.ClassifyAQI(index)
	response.JSON(w, r, http.StatusOK, models.Classification{
		AQI:             index,
		Level:           level,
		Label:           level.Label(),
		ColorToken:      level.ColorToken(),
		Description:     aqi.Describe(index),
		Recommendations: models.NewRecommendations(aqi.Recommendations(level)),
	})
}

// Levels handles GET /v1/aqi/levels?pollutant=&value=.
func (h *AQIHandler) Levels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var fieldErrors []models.FieldError

	p, err := aqi.ParsePollutant(q.Get("pollutant"))
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "pollutant", Message: "must be one of PM25, PM10, CO, NO2, SO2, O3", Code: "INVALID_ENUM",
		})
	}

	value, err := strconv.ParseFloat(q.Get("value"), 64)
	if err == nil {
		err = aqi.ValidateConcentration(value)
	}
	if err != nil {
		msg := "must be a number"
		if errors.Is(err, aqi.ErrNegativeConcentration) {
			msg = err.Error()
		}
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "value", Message: msg, Code: "OUT_OF_RANGE",
		})
	}

	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid pollutant concentration", fieldErrors)
		return
	}

	level := aqi.LevelForConcentration(p, value)
	response.JSON(w, r, http.StatusOK, models.ConcentrationLevel{
		Pollutant:   p,
		DisplayName: p.DisplayName(),
		Unit:        p.Unit(),
		Value:       value,
		Level:       level,
		Label:       level.Label(),
		SubIndex:    aqi.PollutantSubIndex(p, value),
	})
}

// Breakpoints handles GET /v1/aqi/breakpoints.
func (h *AQIHandler) Breakpoints(w http.ResponseWriter, r *http.Request) {
	tables := models.BreakpointTables{Items: make([]models.BreakpointTable, 0, len(aqi.Pollutants))}

	for _, p := range aqi.Pollutants {
		bps := aqi.Breakpoints(p)
		segments := make([]models.Breakpoint, len(bps))
		for i, bp := range bps {
			segments[i] = models.Breakpoint{
				ConcLow:   bp.ConcLow,
				ConcHigh:  bp.ConcHigh,
				IndexLow:  bp.IndexLow,
				IndexHigh: bp.IndexHigh,
			}
		}
		tables.Items = append(tables.Items, models.BreakpointTable{
			Pollutant:   p,
			DisplayName: p.DisplayName(),
			Unit:        p.Unit(),
			Segments:    segments,
		})
	}

	response.JSON(w, r, http.StatusOK, tables)
}
