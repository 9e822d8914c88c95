// Package prediction calls the remote AQI model that estimates an index from
// the indoor sensor concentrations.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/aqi"
	"github.com/airsight/airsight/internal/provider/resilience"
)

// ProviderName identifies the predictor in the provider registry.
const ProviderName = "predictor"

// ErrUnknownResponse is returned when the model answers with a body that
// carries no recognisable prediction.
var ErrUnknownResponse = errors.New("unrecognised prediction response")

// ClientConfig holds configuration for the prediction client.
type ClientConfig struct {
	// BaseURL is the model server root, e.g. http://localhost:8000 (required).
	BaseURL string

	// HTTPClient is optional. If nil, a resilient client with defaults is used.
	HTTPClient *resilience.Client
}

// Client posts concentrations to <BaseURL>/predict.
type Client struct {
	endpoint   string
	httpClient *resilience.Client
}

var _ airquality.Predictor = (*Client)(nil)

// NewClient creates a new prediction client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/predict",
		httpClient: httpClient,
	}
}

// Request is the model input. Field names match the training columns.
type Request struct {
	PM25 float64 `json:"PM2_5"`
	PM10 float64 `json:"PM10"`
	SO2  float64 `json:"SO2"`
	O3   float64 `json:"O3"`
	NO2  float64 `json:"NO2"`
	CO   float64 `json:"CO"`
}

// Predict returns the predicted AQI, rounded to the nearest integer.
func (c *Client) Predict(ctx context.Context, conc aqi.Concentrations) (int, error) {
	body, err := json.Marshal(Request{
		PM25: conc.PM25,
		PM10: conc.PM10,
		SO2:  conc.SO2,
		O3:   conc.O3,
		NO2:  conc.NO2,
		CO:   conc.CO,
	})
	if err != nil {
		return 0, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading response: %w", err)
	}

	value, err := ParseResponse(raw)
	if err != nil {
		return 0, err
	}
	return int(math.Round(value)), nil
}

// ParseResponse extracts the prediction from any of the shapes the model
// server has used: {"predicted_aqi": n}, a bare number, {"prediction": n}
// or {"prediction": [n, ...]}.
func ParseResponse(raw []byte) (float64, error) {
	if isNull(raw) {
		return 0, ErrUnknownResponse
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return checkFinite(number)
	}

	var obj struct {
		PredictedAQI *float64        `json:"predicted_aqi"`
		Prediction   json.RawMessage `json:"prediction"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnknownResponse, err)
	}

	if obj.PredictedAQI != nil {
		return checkFinite(*obj.PredictedAQI)
	}

	if len(obj.Prediction) > 0 && !isNull(obj.Prediction) {
		if err := json.Unmarshal(obj.Prediction, &number); err == nil {
			return checkFinite(number)
		}
		var values []float64
		if err := json.Unmarshal(obj.Prediction, &values); err == nil && len(values) > 0 {
			return checkFinite(values[0])
		}
	}

	return 0, ErrUnknownResponse
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func checkFinite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrUnknownResponse
	}
	return v, nil
}
