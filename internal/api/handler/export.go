package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/api/response"
	"github.com/airsight/airsight/internal/export"
)

// ExportHandler renders air quality snapshots as downloads.
type ExportHandler struct {
	service AirQualityService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(service AirQualityService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the clock used for timestamps and filenames.
func (h *ExportHandler) WithClock(now func() time.Time) *ExportHandler {
	h.now = now
	return h
}

// Export handles GET /v1/export?lat=&lon=&name=&format=. Sections whose
// source is unavailable are exported as N/A; the request only fails when
// neither reading could be loaded.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.BadRequest(w, r, "unsupported export format", []models.FieldError{
			{Field: "format", Message: "must be csv or json", Code: "INVALID_ENUM"},
		})
		return
	}

	point, ok, fieldErrors := queryPoint(r)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid location", fieldErrors)
		return
	}

	name := r.URL.Query().Get("name")
	switch {
	case !ok:
		point = models.Point{Lat: airquality.DefaultLocation.Lat, Lon: airquality.DefaultLocation.Lon}
		name = airquality.DefaultLocation.Name
	case name == "":
		name = CurrentLocationName
	}

	outdoor := h.outdoor(r.Context(), point)
	indoor := h.indoor(r.Context())
	if outdoor == nil && indoor == nil {
		response.ServiceUnavailable(w, r, "no air quality data available to export")
		return
	}

	now := h.now()
	snapshot := export.NewSnapshot(now, export.Location{Name: name, Lat: point.Lat, Lon: point.Lon}, indoor, outdoor)

	err = response.Attachment(w, r, export.Filename(format, now), format.ContentType(), func(out io.Writer) error {
		return export.Write(out, format, snapshot)
	})
	if err != nil {
		h.logger.Error().Err(err).Str("format", string(format)).Msg("failed to write export")
	}
}

func (h *ExportHandler) outdoor(ctx context.Context, point models.Point) *airquality.Reading {
	a, err := h.service.Outdoor(ctx, point.Lat, point.Lon)
	if err != nil {
		h.logger.Warn().Err(err).Msg("exporting without outdoor data")
		return nil
	}
	return a.Reading
}

func (h *ExportHandler) indoor(ctx context.Context) *airquality.Reading {
	a, err := h.service.Indoor(ctx)
	if err != nil {
		if !errors.Is(err, airquality.ErrIndoorNotConfigured) {
			h.logger.Warn().Err(err).Msg("exporting without indoor data")
		}
		return nil
	}
	return a.Reading
}
