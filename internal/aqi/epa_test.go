package aqi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airgrid/airgrid/internal/aqi"
)

func TestEPAScore_DominantPollutant(t *testing.T) {
	// PM2.5 at 10.1 µg/m³ yields sub-index 42, NO2 at 59.8 µg/m³
	// (~31.8 ppb) yields sub-index 30. The composite is the maximum.
	conc := aqi.Concentrations{
		aqi.PollutantPM25: 10.1,
		aqi.PollutantNO2:  59.8,
	}

	score, err := aqi.EPAScore(conc)
	require.NoError(t, err)
	assert.Equal(t, 42, score.Index)
	assert.Equal(t, "Good", score.Level)
}

func TestEPAScore_Levels(t *testing.T) {
	tests := []struct {
		name  string
		conc  aqi.Concentrations
		index int
		level string
	}{
		{
			name:  "pm25 boundary of good",
			conc:  aqi.Concentrations{aqi.PollutantPM25: 12.0},
			index: 50,
			level: "Good",
		},
		{
			name:  "pm25 moderate",
			conc:  aqi.Concentrations{aqi.PollutantPM25: 35.4},
			index: 100,
			level: "Moderate",
		},
		{
			name:  "pm25 unhealthy for sensitive groups",
			conc:  aqi.Concentrations{aqi.PollutantPM25: 55.4},
			index: 150,
			level: "Unhealthy for Sensitive Groups",
		},
		{
			name:  "pm25 unhealthy",
			conc:  aqi.Concentrations{aqi.PollutantPM25: 150.4},
			index: 200,
			level: "Unhealthy",
		},
		{
			name:  "pm25 very unhealthy",
			conc:  aqi.Concentrations{aqi.PollutantPM25: 250.4},
			index: 300,
			level: "Very Unhealthy",
		},
		{
			name:  "pm25 hazardous",
			conc:  aqi.Concentrations{aqi.PollutantPM25: 350.0},
			index: 380,
			level: "Hazardous",
		},
		{
			name:  "pm10 midrange",
			conc:  aqi.Concentrations{aqi.PollutantPM10: 54},
			index: 50,
			level: "Good",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := aqi.EPAScore(tt.conc)
			require.NoError(t, err)
			assert.Equal(t, tt.index, score.Index)
			assert.Equal(t, tt.level, score.Level)
		})
	}
}

func TestEPAScore_ClampsAboveTopBreakpoint(t *testing.T) {
	// PM2.5 beyond the table tops out at 500, never extrapolates.
	score, err := aqi.EPAScore(aqi.Concentrations{aqi.PollutantPM25: 900})
	require.NoError(t, err)
	assert.Equal(t, 500, score.Index)
	assert.Equal(t, "Hazardous", score.Level)

	// The O3 table ends at index 300; higher concentrations clamp there.
	score, err = aqi.EPAScore(aqi.Concentrations{aqi.PollutantO3: 500})
	require.NoError(t, err)
	assert.Equal(t, 300, score.Index)
}

func TestEPAScore_InsufficientData(t *testing.T) {
	_, err := aqi.EPAScore(aqi.Concentrations{})
	assert.ErrorIs(t, err, aqi.ErrInsufficientData)

	// NO and NH3 have no EPA breakpoints; alone they contribute nothing.
	_, err = aqi.EPAScore(aqi.Concentrations{
		aqi.PollutantNO:  12.0,
		aqi.PollutantNH3: 3.5,
	})
	assert.ErrorIs(t, err, aqi.ErrInsufficientData)
}

func TestEPAScore_NegativeClampsToZero(t *testing.T) {
	score, err := aqi.EPAScore(aqi.Concentrations{aqi.PollutantPM25: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, score.Index)
	assert.Equal(t, "Good", score.Level)
}

func TestOpenWeatherScore(t *testing.T) {
	tests := []struct {
		bucket int
		level  string
	}{
		{1, "Good"},
		{2, "Fair"},
		{3, "Moderate"},
		{4, "Poor"},
		{5, "Very Poor"},
	}

	for _, tt := range tests {
		score, err := aqi.OpenWeatherScore(tt.bucket)
		require.NoError(t, err)
		assert.Equal(t, tt.bucket, score.Index)
		assert.Equal(t, tt.level, score.Level)
	}
}

func TestOpenWeatherScore_InvalidBucket(t *testing.T) {
	for _, bucket := range []int{0, -1, 6, 42} {
		_, err := aqi.OpenWeatherScore(bucket)
		assert.ErrorIs(t, err, aqi.ErrInvalidIndexInput)
	}
}
