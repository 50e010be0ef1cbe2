package aqi

import "math"

// breakpoint is one row of an EPA piecewise-linear index table: measured
// concentrations in [concLo, concHi] map linearly onto [indexLo, indexHi].
type breakpoint struct {
	concLo, concHi   float64
	indexLo, indexHi int
}

// EPA breakpoint tables. Particulates are tabulated in µg/m³, gases in
// ppm (CO) or ppb (O3, SO2, NO2) per the EPA technical assistance
// document for the reporting of the daily AQI.
var epaBreakpoints = map[Pollutant][]breakpoint{
	PollutantPM25: {
		{0.0, 12.0, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 500.4, 301, 500},
	},
	PollutantPM10: {
		{0, 54, 0, 50},
		{55, 154, 51, 100},
		{155, 254, 101, 150},
		{255, 354, 151, 200},
		{355, 424, 201, 300},
		{425, 604, 301, 500},
	},
	PollutantO3: {
		{0, 54, 0, 50},
		{55, 70, 51, 100},
		{71, 85, 101, 150},
		{86, 105, 151, 200},
		{106, 200, 201, 300},
	},
	PollutantCO: {
		{0.0, 4.4, 0, 50},
		{4.5, 9.4, 51, 100},
		{9.5, 12.4, 101, 150},
		{12.5, 15.4, 151, 200},
		{15.5, 30.4, 201, 300},
		{30.5, 50.4, 301, 500},
	},
	PollutantSO2: {
		{0, 35, 0, 50},
		{36, 75, 51, 100},
		{76, 185, 101, 150},
		{186, 304, 151, 200},
		{305, 604, 201, 300},
		{605, 1004, 301, 500},
	},
	PollutantNO2: {
		{0, 53, 0, 50},
		{54, 100, 51, 100},
		{101, 360, 101, 150},
		{361, 649, 151, 200},
		{650, 1249, 201, 300},
		{1250, 2049, 301, 500},
	},
}

// unitDivisor converts provider µg/m³ values into the unit of the
// pollutant's breakpoint table, assuming 25 °C and 1 atm.
// Particulates are already tabulated in µg/m³.
var unitDivisor = map[Pollutant]float64{
	PollutantPM25: 1,
	PollutantPM10: 1,
	PollutantO3:   1.96,   // µg/m³ per ppb
	PollutantNO2:  1.88,   // µg/m³ per ppb
	PollutantSO2:  2.62,   // µg/m³ per ppb
	PollutantCO:   1145.0, // µg/m³ per ppm
}

// epaLevels are the six EPA category labels with their index ceilings.
var epaLevels = []struct {
	ceiling int
	label   string
}{
	{50, "Good"},
	{100, "Moderate"},
	{150, "Unhealthy for Sensitive Groups"},
	{200, "Unhealthy"},
	{300, "Very Unhealthy"},
}

const epaHazardous = "Hazardous"

// EPAScore computes the US EPA composite AQI from raw concentrations.
// Each pollutant with a defined concentration and a breakpoint table
// yields a sub-index; the composite is the maximum sub-index (the
// dominant pollutant rule). NO and NH3 have no EPA breakpoints and never
// contribute. Returns ErrInsufficientData when no pollutant contributes.
func EPAScore(conc Concentrations) (Score, error) {
	composite := -1

	for pollutant, value := range conc {
		table, ok := epaBreakpoints[pollutant]
		if !ok {
			continue
		}
		sub := subIndex(value/unitDivisor[pollutant], table)
		if sub > composite {
			composite = sub
		}
	}

	if composite < 0 {
		return Score{}, ErrInsufficientData
	}

	return Score{Index: composite, Level: levelLabel(composite)}, nil
}

// subIndex maps a concentration (already in table units) onto the index
// scale. Values above the top breakpoint clamp to the top ceiling;
// negative values clamp to zero.
func subIndex(c float64, table []breakpoint) int {
	if c <= 0 {
		return 0
	}

	top := table[len(table)-1]
	if c > top.concHi {
		return top.indexHi
	}

	for _, bp := range table {
		if c <= bp.concHi {
			if c < bp.concLo {
				// Between two rows (table gaps from rounding); use the
				// lower bound of this row.
				return bp.indexLo
			}
			span := bp.concHi - bp.concLo
			frac := (c - bp.concLo) / span
			return bp.indexLo + int(math.Round(frac*float64(bp.indexHi-bp.indexLo)))
		}
	}

	return top.indexHi
}

// levelLabel returns the EPA category label for a composite index.
func levelLabel(index int) string {
	for _, l := range epaLevels {
		if index <= l.ceiling {
			return l.label
		}
	}
	return epaHazardous
}
