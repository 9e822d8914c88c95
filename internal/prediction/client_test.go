package prediction_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsight/airsight/internal/aqi"
	"github.com/airsight/airsight/internal/prediction"
	"github.com/airsight/airsight/internal/provider/resilience"
)

func fastHTTPClient() *resilience.Client {
	cfg := resilience.DefaultClientConfig(prediction.ProviderName)
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 5 * time.Millisecond
	return resilience.NewClient(cfg)
}

func newClient(url string) *prediction.Client {
	return prediction.NewClient(prediction.ClientConfig{
		BaseURL:    url + "/",
		HTTPClient: fastHTTPClient(),
	})
}

func TestClient_Predict(t *testing.T) {
	var got prediction.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"predicted_aqi": 57.5}`))
	}))
	defer server.Close()

	value, err := newClient(server.URL).Predict(context.Background(), aqi.Concentrations{
		PM25: 8, PM10: 20, CO: 0.4, NO2: 10, SO2: 1, O3: 12,
	})
	require.NoError(t, err)

	assert.Equal(t, 58, value)
	assert.Equal(t, prediction.Request{PM25: 8, PM10: 20, SO2: 1, O3: 12, NO2: 10, CO: 0.4}, got)
}

func TestClient_Predict_RequestFieldNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]float64{
			"PM2_5": 1, "PM10": 2, "SO2": 3, "O3": 4, "NO2": 5, "CO": 6,
		}, body)
		_, _ = w.Write([]byte(`10`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Predict(context.Background(), aqi.Concentrations{
		PM25: 1, PM10: 2, SO2: 3, O3: 4, NO2: 5, CO: 6,
	})
	require.NoError(t, err)
}

func TestClient_Predict_RetriesWithBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req prediction.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 35.0, req.PM25)

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"prediction": [99.4]}`))
	}))
	defer server.Close()

	value, err := newClient(server.URL).Predict(context.Background(), aqi.Concentrations{PM25: 35})
	require.NoError(t, err)
	assert.Equal(t, 99, value)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Predict_Errors(t *testing.T) {
	t.Run("client error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer server.Close()

		_, err := newClient(server.URL).Predict(context.Background(), aqi.Concentrations{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "422")
	})

	t.Run("unknown shape", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		_, err := newClient(server.URL).Predict(context.Background(), aqi.Concentrations{})
		assert.ErrorIs(t, err, prediction.ErrUnknownResponse)
	})
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected float64
		wantErr  bool
	}{
		{"predicted_aqi", `{"predicted_aqi": 42}`, 42, false},
		{"bare number", `73.2`, 73.2, false},
		{"prediction number", `{"prediction": 12.5}`, 12.5, false},
		{"prediction array", `{"prediction": [150.2, 3]}`, 150.2, false},
		{"predicted_aqi wins", `{"predicted_aqi": 1, "prediction": 2}`, 1, false},
		{"empty array", `{"prediction": []}`, 0, true},
		{"string prediction", `{"prediction": "high"}`, 0, true},
		{"empty object", `{}`, 0, true},
		{"not json", `<html>`, 0, true},
		{"null", `null`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := prediction.ParseResponse([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, prediction.ErrUnknownResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}
}
