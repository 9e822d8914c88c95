package aqi

// Breakpoint is one linear segment of the EPA concentration-to-index mapping.
// ConcLow and ConcHigh are inclusive.
type Breakpoint struct {
	ConcLow   float64
	ConcHigh  float64
	IndexLow  int
	IndexHigh int
}

// Contains reports whether c lies within the segment, both ends inclusive.
func (b Breakpoint) Contains(c float64) bool {
	return c >= b.ConcLow && c <= b.ConcHigh
}

// EPA breakpoint tables. Each has six contiguous segments covering the index
// ranges 0-50, 51-100, 101-150, 151-200, 201-300 and 301-500.
var (
	// PM2.5, µg/m³, 24-hour average.
	pm25Breakpoints = []Breakpoint{
		{ConcLow: 0, ConcHigh: 12, IndexLow: 0, IndexHigh: 50},
		{ConcLow: 12.1, ConcHigh: 35.4, IndexLow: 51, IndexHigh: 100},
		{ConcLow: 35.5, ConcHigh: 55.4, IndexLow: 101, IndexHigh: 150},
		{ConcLow: 55.5, ConcHigh: 150.4, IndexLow: 151, IndexHigh: 200},
		{ConcLow: 150.5, ConcHigh: 250.4, IndexLow: 201, IndexHigh: 300},
		{ConcLow: 250.5, ConcHigh: 500.4, IndexLow: 301, IndexHigh: 500},
	}

	// PM10, µg/m³, 24-hour average.
	pm10Breakpoints = []Breakpoint{
		{ConcLow: 0, ConcHigh: 54, IndexLow: 0, IndexHigh: 50},
		{ConcLow: 55, ConcHigh: 154, IndexLow: 51, IndexHigh: 100},
		{ConcLow: 155, ConcHigh: 254, IndexLow: 101, IndexHigh: 150},
		{ConcLow: 255, ConcHigh: 354, IndexLow: 151, IndexHigh: 200},
		{ConcLow: 355, ConcHigh: 424, IndexLow: 201, IndexHigh: 300},
		{ConcLow: 425, ConcHigh: 604, IndexLow: 301, IndexHigh: 500},
	}

	// CO, ppm, 8-hour average.
	coBreakpoints = []Breakpoint{
		{ConcLow: 0, ConcHigh: 4.4, IndexLow: 0, IndexHigh: 50},
		{ConcLow: 4.5, ConcHigh: 9.4, IndexLow: 51, IndexHigh: 100},
		{ConcLow: 9.5, ConcHigh: 12.4, IndexLow: 101, IndexHigh: 150},
		{ConcLow: 12.5, ConcHigh: 15.4, IndexLow: 151, IndexHigh: 200},
		{ConcLow: 15.5, ConcHigh: 30.4, IndexLow: 201, IndexHigh: 300},
		{ConcLow: 30.5, ConcHigh: 50.4, IndexLow: 301, IndexHigh: 500},
	}

	// NO2, ppb, 1-hour average.
	no2Breakpoints = []Breakpoint{
		{ConcLow: 0, ConcHigh: 53, IndexLow: 0, IndexHigh: 50},
		{ConcLow: 54, ConcHigh: 100, IndexLow: 51, IndexHigh: 100},
		{ConcLow: 101, ConcHigh: 360, IndexLow: 101, IndexHigh: 150},
		{ConcLow: 361, ConcHigh: 649, IndexLow: 151, IndexHigh: 200},
		{ConcLow: 650, ConcHigh: 1249, IndexLow: 201, IndexHigh: 300},
		{ConcLow: 1250, ConcHigh: 2049, IndexLow: 301, IndexHigh: 500},
	}

	// SO2, ppb, 1-hour average.
	so2Breakpoints = []Breakpoint{
		{ConcLow: 0, ConcHigh: 35, IndexLow: 0, IndexHigh: 50},
		{ConcLow: 36, ConcHigh: 75, IndexLow: 51, IndexHigh: 100},
		{ConcLow: 76, ConcHigh: 185, IndexLow: 101, IndexHigh: 150},
		{ConcLow: 186, ConcHigh: 304, IndexLow: 151, IndexHigh: 200},
		{ConcLow: 305, ConcHigh: 604, IndexLow: 201, IndexHigh: 300},
		{ConcLow: 605, ConcHigh: 1004, IndexLow: 301, IndexHigh: 500},
	}

	// O3, ppb, 8-hour average.
	o3Breakpoints = []Breakpoint{
		{ConcLow: 0, ConcHigh: 54, IndexLow: 0, IndexHigh: 50},
		{ConcLow: 55, ConcHigh: 70, IndexLow: 51, IndexHigh: 100},
		{ConcLow: 71, ConcHigh: 85, IndexLow: 101, IndexHigh: 150},
		{ConcLow: 86, ConcHigh: 105, IndexLow: 151, IndexHigh: 200},
		{ConcLow: 106, ConcHigh: 200, IndexLow: 201, IndexHigh: 300},
		{ConcLow: 201, ConcHigh: 504, IndexLow: 301, IndexHigh: 500},
	}
)

func table(p Pollutant) []Breakpoint {
	switch p {
	case PollutantPM25:
		return pm25Breakpoints
	case PollutantPM10:
		return pm10Breakpoints
	case PollutantCO:
		return coBreakpoints
	case PollutantNO2:
		return no2Breakpoints
	case PollutantSO2:
		return so2Breakpoints
	case PollutantO3:
		return o3Breakpoints
	default:
		return nil
	}
}

// Breakpoints returns a copy of the breakpoint table for p, or nil for an
// unknown pollutant. Callers may modify the returned slice freely.
func Breakpoints(p Pollutant) []Breakpoint {
	t := table(p)
	if t == nil {
		return nil
	}
	out := make([]Breakpoint, len(t))
	copy(out, t)
	return out
}
