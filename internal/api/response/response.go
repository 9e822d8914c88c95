// Package response writes API responses: JSON bodies, RFC 7807 problems and
// file downloads. Every response echoes the request's correlation ID.
package response

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/airsight/airsight/internal/api/middleware"
	"github.com/airsight/airsight/internal/api/models"
)

func correlate(w http.ResponseWriter, r *http.Request) {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		w.Header().Set(middleware.RequestIDHeader, id)
	}
}

// JSON encodes data with the given status. A nil data writes headers only.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	correlate(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Created answers 201 and points Location at the new resource.
func Created(w http.ResponseWriter, r *http.Request, location string, data any) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	JSON(w, r, http.StatusCreated, data)
}

// NoContent answers 204.
func NoContent(w http.ResponseWriter, r *http.Request) {
	correlate(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Attachment streams a download such as an air quality export. Headers are
// committed before write runs, so a write error can only be logged.
func Attachment(w http.ResponseWriter, r *http.Request, filename, contentType string, write func(io.Writer) error) error {
	correlate(w, r)
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	return write(w)
}

// Error sends problem, stamping it with the request path.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.WithInstance(r.URL.Path).Write(w)
}

func status(w http.ResponseWriter, r *http.Request, code int, detail string) {
	Error(w, r, models.ForStatus(code, middleware.GetRequestID(r.Context()), detail))
}

// BadRequest answers 400 with per-field validation errors.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Error(w, r, models.NewBadRequest(middleware.GetRequestID(r.Context()), detail, errors))
}

// Unauthorized answers 401.
func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	status(w, r, http.StatusUnauthorized, detail)
}

// NotFound answers 404.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	status(w, r, http.StatusNotFound, detail)
}

// Conflict answers 409.
func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	status(w, r, http.StatusConflict, detail)
}

// UnprocessableEntity answers 422.
func UnprocessableEntity(w http.ResponseWriter, r *http.Request, detail string) {
	status(w, r, http.StatusUnprocessableEntity, detail)
}

// InternalError answers 500.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	status(w, r, http.StatusInternalServerError, detail)
}

// ServiceUnavailable answers 503.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	status(w, r, http.StatusServiceUnavailable, detail)
}
