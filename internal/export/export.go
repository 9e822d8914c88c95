// Package export renders a point-in-time air quality snapshot as a CSV or
// JSON download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/airsight/airsight/internal/airquality"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for formats other than csv and json.
var ErrUnknownFormat = errors.New("unknown export format")

// NotAvailable fills CSV cells for sections that are missing.
const NotAvailable = "N/A"

// timestampLayout matches JavaScript's Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// ParseFormat parses a format name, defaulting to CSV when empty.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// Location is the point the snapshot was taken for.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Pollutants are raw indoor concentrations.
type Pollutants struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	NO2  float64 `json:"no2"`
	CO   float64 `json:"co"`
	SO2  float64 `json:"so2"`
	O3   float64 `json:"o3"`
}

// OutdoorFigures are raw outdoor concentrations plus weather.
type OutdoorFigures struct {
	PM25        float64  `json:"pm25"`
	PM10        float64  `json:"pm10"`
	CO          float64  `json:"co"`
	NO2         float64  `json:"no2"`
	SO2         float64  `json:"so2"`
	O3          float64  `json:"o3"`
	Temperature float64  `json:"temperature"`
	Humidity    float64  `json:"humidity"`
	UVI         *float64 `json:"uvi,omitempty"`
}

// Snapshot is the exported document. Figures are the provider values, not
// engine output.
type Snapshot struct {
	Timestamp string          `json:"timestamp"`
	Location  Location        `json:"location"`
	Indoor    *Pollutants     `json:"indoor,omitempty"`
	Outdoor   *OutdoorFigures `json:"outdoor,omitempty"`
}

// NewSnapshot builds a snapshot from the readings available. Either reading
// may be nil.
func NewSnapshot(now time.Time, loc Location, indoor, outdoor *airquality.Reading) *Snapshot {
	s := &Snapshot{
		Timestamp: now.UTC().Format(timestampLayout),
		Location:  loc,
	}

	if indoor != nil {
		c := indoor.Concentrations
		s.Indoor = &Pollutants{PM25: c.PM25, PM10: c.PM10, NO2: c.NO2, CO: c.CO, SO2: c.SO2, O3: c.O3}
	}

	if outdoor != nil {
		c := outdoor.Concentrations
		s.Outdoor = &OutdoorFigures{PM25: c.PM25, PM10: c.PM10, CO: c.CO, NO2: c.NO2, SO2: c.SO2, O3: c.O3}
		if w := outdoor.Weather; w != nil {
			s.Outdoor.Temperature = w.Temperature
			s.Outdoor.Humidity = w.Humidity
			s.Outdoor.UVI = w.UVIndex
		}
	}

	return s
}

// Columns is the CSV header, in order.
var Columns = []string{
	"timestamp", "location_name", "location_lat", "location_lon",
	"indoor_pm25", "indoor_pm10", "indoor_no2", "indoor_co", "indoor_so2", "indoor_o3",
	"outdoor_pm25", "outdoor_pm10", "outdoor_co", "outdoor_no2", "outdoor_so2", "outdoor_o3",
	"outdoor_temp", "outdoor_humidity", "outdoor_uvi",
}

// Row flattens the snapshot into one CSV record matching Columns.
func (s *Snapshot) Row() []string {
	row := make([]string, 0, len(Columns))
	row = append(row, s.Timestamp, s.Location.Name, formatFloat(s.Location.Lat), formatFloat(s.Location.Lon))

	if in := s.Indoor; in != nil {
		row = append(row, formatFloats(in.PM25, in.PM10, in.NO2, in.CO, in.SO2, in.O3)...)
	} else {
		row = append(row, repeat(NotAvailable, 6)...)
	}

	if out := s.Outdoor; out != nil {
		row = append(row, formatFloats(out.PM25, out.PM10, out.CO, out.NO2, out.SO2, out.O3, out.Temperature, out.Humidity)...)
		if out.UVI != nil {
			row = append(row, formatFloat(*out.UVI))
		} else {
			row = append(row, NotAvailable)
		}
	} else {
		row = append(row, repeat(NotAvailable, 9)...)
	}

	return row
}

// WriteCSV writes a header row and one value row.
func WriteCSV(w io.Writer, s *Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	if err := cw.Write(s.Row()); err != nil {
		return fmt.Errorf("writing csv row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the snapshot indented by two spaces.
func WriteJSON(w io.Writer, s *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// Write renders s in format f.
func Write(w io.Writer, f Format, s *Snapshot) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, s)
	case FormatJSON:
		return WriteJSON(w, s)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Filename returns the download name, e.g.
// air-quality-data-2024-06-01T08-00-00-000Z.csv.
func Filename(f Format, now time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(now.UTC().Format(timestampLayout))
	return "air-quality-data-" + stamp + "." + string(f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloats(values ...float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = formatFloat(v)
	}
	return out
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
