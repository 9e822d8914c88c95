package handler

import (
	"net/http"

	"github.com/airsight/airsight/internal/alert"
	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/api/response"
)

const (
	defaultRecentAlerts = 20
	maxRecentAlerts     = alert.DefaultHistorySize
)

// AlertHistory returns recently delivered alerts.
type AlertHistory interface {
	Recent(limit int) []alert.Alert
}

// AlertHandler handles alert endpoints.
type AlertHandler struct {
	history AlertHistory
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(history AlertHistory) *AlertHandler {
	return &AlertHandler{history: history}
}

// RecentAlerts handles GET /v1/alerts/recent?limit=.
func (h *AlertHandler) RecentAlerts(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r, defaultRecentAlerts, maxRecentAlerts)
	if !ok {
		response.BadRequest(w, r, "invalid limit", []models.FieldError{
			{Field: "limit", Message: "must be a positive integer", Code: "OUT_OF_RANGE"},
		})
		return
	}

	items := toAlerts(h.history.Recent(limit))
	if items == nil {
		items = []models.Alert{}
	}
	response.JSON(w, r, http.StatusOK, models.AlertList{Items: items})
}
