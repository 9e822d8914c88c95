package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsight/airsight/internal/api/middleware"
	"github.com/airsight/airsight/internal/api/models"
)

func TestRecovery_WritesProblem(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.RequestID(middleware.Recovery(zerolog.New(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("breakpoint table missing")
	})))

	req := httptest.NewRequest(http.MethodPost, "/v1/aqi:calculate", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "req-panic")
	rec := httptest.NewRecorder()

	require.NotPanics(t, func() { handler.ServeHTTP(rec, req) })

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, models.ProblemTypeInternal, p.Type)
	assert.Equal(t, "req-panic", p.TraceID)
	assert.Equal(t, "/v1/aqi:calculate", p.Instance)
	assert.NotContains(t, rec.Body.String(), "breakpoint table missing")

	logged := buf.String()
	assert.Contains(t, logged, "handler panicked")
	assert.Contains(t, logged, "breakpoint table missing")
	assert.Contains(t, logged, `"request_id":"req-panic"`)
	assert.Contains(t, logged, `"stack"`)
}

func TestRecovery_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.Recovery(zerolog.Nop())(statusHandler(http.StatusAccepted)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRecovery_RepanicsAbort(t *testing.T) {
	handler := middleware.Recovery(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/export", http.NoBody))
	})
}
