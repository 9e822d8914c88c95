package aqi

// concentrationThresholds holds the inclusive upper bound of the good,
// moderate, unhealthy and very-unhealthy bands for a single pollutant.
// Anything above the last bound is hazardous.
//
// These are maintained separately from the breakpoint tables and drive the
// per-metric badges. They are not derived from SubIndex: a value inside a
// gap between two breakpoint segments can classify differently on the two
// paths.
type concentrationThresholds [4]float64

var levelThresholds = map[Pollutant]concentrationThresholds{
	PollutantPM25: {12, 35.4, 55.4, 150.4},
	PollutantPM10: {54, 154, 254, 354},
	PollutantCO:   {4.4, 9.4, 12.4, 15.4},
	PollutantNO2:  {53, 100, 360, 649},
	PollutantSO2:  {35, 75, 185, 304},
	PollutantO3:   {54, 70, 85, 105},
}

func (t concentrationThresholds) classify(value float64) Level {
	for i, upper := range t {
		if value <= upper {
			return Levels[i]
		}
	}
	return LevelHazardous
}

// LevelForConcentration classifies a raw concentration of p. NaN is
// classified as hazardous since it compares false against every bound.
// Unknown pollutants are hazardous as well.
func LevelForConcentration(p Pollutant, value float64) Level {
	t, ok := levelThresholds[p]
	if !ok {
		return LevelHazardous
	}
	return t.classify(value)
}

// PM25Level classifies a PM2.5 concentration in µg/m³.
func PM25Level(value float64) Level { return LevelForConcentration(PollutantPM25, value) }

// PM10Level classifies a PM10 concentration in µg/m³.
func PM10Level(value float64) Level { return LevelForConcentration(PollutantPM10, value) }

// COLevel classifies a CO concentration in ppm.
func COLevel(value float64) Level { return LevelForConcentration(PollutantCO, value) }

// NO2Level classifies an NO2 concentration in ppb.
func NO2Level(value float64) Level { return LevelForConcentration(PollutantNO2, value) }

// SO2Level classifies an SO2 concentration in ppb.
func SO2Level(value float64) Level { return LevelForConcentration(PollutantSO2, value) }

// O3Level classifies an O3 concentration in ppb.
func O3Level(value float64) Level { return LevelForConcentration(PollutantO3, value) }

// MetricLevels classifies every concentration independently.
func MetricLevels(c Concentrations) map[Pollutant]Level {
	levels := make(map[Pollutant]Level, len(Pollutants))
	for _, p := range Pollutants {
		levels[p] = LevelForConcentration(p, c.Get(p))
	}
	return levels
}
