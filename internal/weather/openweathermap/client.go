// Package openweathermap is the outdoor provider: current weather, air
// pollution components and geocoding from the OpenWeatherMap APIs.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/aqi"
	"github.com/airsight/airsight/internal/provider/resilience"
	"github.com/airsight/airsight/internal/weather"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap data API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// DefaultGeoURL is the OpenWeatherMap geocoding API base URL.
	DefaultGeoURL = "https://api.openweathermap.org/geo/1.0"

	// DefaultSearchLimit is the number of geocoding candidates requested.
	DefaultSearchLimit = 5

	// MaxSearchLimit is the upstream cap on geocoding candidates.
	MaxSearchLimit = 5
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// GeoURL overrides DefaultGeoURL.
	GeoURL string

	// HTTPClient is optional. If nil, a resilient client with defaults is used.
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	geoURL     string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

var _ airquality.OutdoorProvider = (*Client)(nil)

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	geoURL := cfg.GeoURL
	if geoURL == "" {
		geoURL = DefaultGeoURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		geoURL:     strings.TrimRight(geoURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Components are the pollutant concentrations reported by /air_pollution,
// all in µg/m³.
type Components struct {
	CO   float64 `json:"co"`
	NO   float64 `json:"no"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
	SO2  float64 `json:"so2"`
	PM25 float64 `json:"pm2_5"`
	PM10 float64 `json:"pm10"`
	NH3  float64 `json:"nh3"`
}

// AirPollution is the current air pollution at a point.
type AirPollution struct {
	Lat float64
	Lon float64

	// Index is OpenWeatherMap's own 1-5 scale. It is informational only.
	Index int

	Components Components
	ObservedAt time.Time
}

// GetCurrentWeather fetches current weather for a location.
func (c *Client) GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error) {
	endpoint := fmt.Sprintf("%s/weather?lat=%.6f&lon=%.6f&appid=%s&units=metric",
		c.baseURL, lat, lon, c.apiKey)

	var resp currentWeatherResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	return toObservation(&resp), nil
}

// GetAirPollution fetches the current pollutant components for a location.
func (c *Client) GetAirPollution(ctx context.Context, lat, lon float64) (*AirPollution, error) {
	endpoint := fmt.Sprintf("%s/air_pollution?lat=%.6f&lon=%.6f&appid=%s",
		c.baseURL, lat, lon, c.apiKey)

	var resp airPollutionResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	if len(resp.List) == 0 {
		return nil, weather.ErrNoDataForLocation
	}

	entry := resp.List[0]
	return &AirPollution{
		Lat:        resp.Coord.Lat,
		Lon:        resp.Coord.Lon,
		Index:      entry.Main.AQI,
		Components: entry.Components,
		ObservedAt: time.Unix(entry.Dt, 0),
	}, nil
}

// FetchOutdoor combines current weather and air pollution into one reading.
func (c *Client) FetchOutdoor(ctx context.Context, lat, lon float64) (*airquality.Reading, error) {
	obs, err := c.GetCurrentWeather(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}

	pollution, err := c.GetAirPollution(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("fetching air pollution: %w", err)
	}

	c.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Float64("pm25", pollution.Components.PM25).
		Msg("fetched outdoor reading")

	return &airquality.Reading{
		Source:   airquality.SourceOutdoor,
		Provider: ProviderName,
		Lat:      lat,
		Lon:      lon,
		Concentrations: aqi.Concentrations{
			PM25: pollution.Components.PM25,
			PM10: pollution.Components.PM10,
			CO:   pollution.Components.CO,
			NO2:  pollution.Components.NO2,
			SO2:  pollution.Components.SO2,
			O3:   pollution.Components.O3,
		},
		Weather:    obs,
		ObservedAt: pollution.ObservedAt,
		FetchedAt:  time.Now(),
	}, nil
}

// Geocode resolves a place name to candidate locations. limit is clamped to
// [1, MaxSearchLimit].
func (c *Client) Geocode(ctx context.Context, query string, limit int) ([]weather.Place, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	params := url.Values{}
	params.Set("q", strings.TrimSpace(query))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("appid", c.apiKey)

	var resp []geocodingResult
	if err := c.getJSON(ctx, c.geoURL+"/direct?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	places := make([]weather.Place, 0, len(resp))
	for _, r := range resp {
		places = append(places, r.toPlace())
	}
	return places, nil
}

// ReverseGeocode returns the nearest named place to a point, or
// weather.ErrPlaceNotFound.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*weather.Place, error) {
	endpoint := fmt.Sprintf("%s/reverse?lat=%.6f&lon=%.6f&limit=1&appid=%s",
		c.geoURL, lat, lon, c.apiKey)

	var resp []geocodingResult
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	if len(resp) == 0 {
		return nil, weather.ErrPlaceNotFound
	}

	place := resp[0].toPlace()
	return &place, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func toObservation(resp *currentWeatherResponse) *weather.Observation {
	obs := &weather.Observation{
		Lat:           resp.Coord.Lat,
		Lon:           resp.Coord.Lon,
		Temperature:   resp.Main.Temp,
		FeelsLike:     resp.Main.FeelsLike,
		Humidity:      resp.Main.Humidity,
		Pressure:      resp.Main.Pressure,
		UVIndex:       resp.UVI,
		CloudCover:    resp.Clouds.All,
		WindSpeed:     resp.Wind.Speed,
		WindDirection: resp.Wind.Deg,
		Condition:     weather.ConditionUnknown,
		ObservedAt:    time.Unix(resp.Dt, 0),
		FetchedAt:     time.Now(),
	}

	if resp.Rain != nil {
		obs.Rain1h = resp.Rain.OneHour
		obs.Rain3h = resp.Rain.ThreeHours
	}

	if len(resp.Weather) > 0 {
		obs.Condition = mapCondition(resp.Weather[0].Main)
		obs.Description = resp.Weather[0].Description
	}

	return obs
}

// mapCondition maps an OpenWeatherMap condition group to a domain condition.
func mapCondition(owmCondition string) weather.Condition {
	switch owmCondition {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionClouds
	case "Rain":
		return weather.ConditionRain
	case "Drizzle":
		return weather.ConditionDrizzle
	case "Thunderstorm":
		return weather.ConditionThunderstorm
	case "Snow":
		return weather.ConditionSnow
	case "Mist":
		return weather.ConditionMist
	case "Fog":
		return weather.ConditionFog
	case "Haze", "Dust", "Sand", "Ash", "Smoke", "Squall", "Tornado":
		return weather.ConditionHaze
	default:
		return weather.ConditionUnknown
	}
}

// OpenWeatherMap API response structures.

type currentWeatherResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain *struct {
		OneHour    *float64 `json:"1h"`
		ThreeHours *float64 `json:"3h"`
	} `json:"rain"`
	UVI *float64 `json:"uvi"`
	Dt  int64    `json:"dt"`
}

type airPollutionResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components Components `json:"components"`
		Dt         int64      `json:"dt"`
	} `json:"list"`
}

type geocodingResult struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

func (r geocodingResult) toPlace() weather.Place {
	return weather.Place{
		Name:    r.Name,
		Lat:     r.Lat,
		Lon:     r.Lon,
		Country: r.Country,
		State:   r.State,
	}
}
