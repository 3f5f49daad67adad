package weather

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/netatmo-mcp/internal/netatmo"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestFormatCurrentReadings(t *testing.T) {
	stations := []netatmo.Station{{
		ID:          "S1",
		StationName: "Home",
		Name:        "Living Room",
		Reading:     &netatmo.Reading{Temperature: fp(21.5), Humidity: ip(45)},
		Modules: []netatmo.Module{
			{ID: "M1", Name: "Outdoor", Reading: &netatmo.Reading{Temperature: fp(-3.25)}},
			{ID: "M2", Name: "Rain gauge"},
			{ID: "M3", Name: "Bedroom", Reading: &netatmo.Reading{Humidity: ip(60)}},
		},
	}}

	want := strings.Join([]string{
		"Current readings:",
		"  Home - Living Room: 21.5C, 45% humidity",
		"  Home - Outdoor: -3.3C",
		"  Home - Bedroom:, 60% humidity",
	}, "\n")

	assert.Equal(t, want, FormatCurrentReadings(stations))
}

func TestFormatCurrentReadings_TemperatureOnly(t *testing.T) {
	stations := []netatmo.Station{{
		StationName: "Home",
		Name:        "Living Room",
		Reading:     &netatmo.Reading{Temperature: fp(21.5)},
	}}

	got := FormatCurrentReadings(stations)
	assert.Equal(t, "Current readings:\n  Home - Living Room: 21.5C", got)
	assert.NotContains(t, got, "humidity")
}

func TestFormatCurrentReadings_NoStations(t *testing.T) {
	assert.Equal(t, NoStationsMessage, FormatCurrentReadings(nil))
	assert.Equal(t, NoStationsMessage, FormatCurrentReadings([]netatmo.Station{}))
}

func TestFormatMeasurements(t *testing.T) {
	begin := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC).Unix()
	blocks := []netatmo.MeasureBlock{
		{
			BegTime:  begin,
			StepTime: 1800,
			Values: [][]*float64{
				{fp(20), fp(40)},
				{nil, fp(45)},
			},
		},
		{
			BegTime:  begin + 3600,
			StepTime: 1800,
			Values: [][]*float64{
				{fp(22.5), nil},
				{fp(21)},
			},
		},
	}

	got := FormatMeasurements(blocks, "Living Room", 6, Scale30Min, time.UTC)

	rule := strings.Repeat("-", 52)
	want := strings.Join([]string{
		"Historical data for 'Living Room' (last 6h, scale: 30min):",
		"Timestamp                Temp (C)   Humidity (%)",
		rule,
		"2026-01-15 10:00          20.0         40",
		"2026-01-15 10:30            --         45",
		"2026-01-15 11:00          22.5         --",
		"2026-01-15 11:30          21.0         --",
		rule,
		"Temperature  - min: 20.0C, max: 22.5C, avg: 21.2C",
		"Humidity     - min: 40%, max: 45%, avg: 43%",
	}, "\n")

	assert.Equal(t, want, got)
}

func TestFormatMeasurements_ColumnWithoutValues(t *testing.T) {
	blocks := []netatmo.MeasureBlock{{
		BegTime:  0,
		StepTime: 3600,
		Values:   [][]*float64{{fp(5), nil}, {fp(7), nil}},
	}}

	got := FormatMeasurements(blocks, "Outdoor", 2, Scale30Min, time.UTC)

	assert.Contains(t, got, "Temperature  - min: 5.0C, max: 7.0C, avg: 6.0C")
	assert.NotContains(t, got, "Humidity     -")
	assert.True(t, strings.HasSuffix(got, "avg: 6.0C"))
}

func TestFormatMeasurements_UsesLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	blocks := []netatmo.MeasureBlock{{
		BegTime:  time.Date(2026, 1, 15, 23, 30, 0, 0, time.UTC).Unix(),
		StepTime: 1800,
		Values:   [][]*float64{{fp(1), fp(2)}},
	}}

	got := FormatMeasurements(blocks, "Outdoor", 1, Scale30Min, loc)
	assert.Contains(t, got, "2026-01-16 00:30")
}

func TestFormatMeasurements_TableWidth(t *testing.T) {
	blocks := []netatmo.MeasureBlock{{
		BegTime:  0,
		StepTime: 1800,
		Values:   [][]*float64{{fp(-12.3), fp(100)}},
	}}

	lines := strings.Split(FormatMeasurements(blocks, "x", 1, Scale30Min, time.UTC), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "1970-01-01 00:00         -12.3        100", lines[3])
}

func TestHasMeasurements(t *testing.T) {
	assert.False(t, HasMeasurements(nil))
	assert.False(t, HasMeasurements([]netatmo.MeasureBlock{{BegTime: 1}}))
	assert.True(t, HasMeasurements([]netatmo.MeasureBlock{{}, {Values: [][]*float64{{fp(1)}}}}))
}

func TestNoDataMessage(t *testing.T) {
	assert.Equal(t,
		"No historical data available for 'Outdoor' in the requested time range.",
		NoDataMessage("Outdoor"))
}

func TestFormatFixed(t *testing.T) {
	assert.Equal(t, "46", formatFixed(45.5, 0))
	assert.Equal(t, "43", formatFixed(42.5, 0))
	assert.Equal(t, "0", formatFixed(-0.4, 0))
	assert.Equal(t, "21.5", formatFixed(21.5, 1))
	assert.Equal(t, "-3.0", formatFixed(-3, 1))
	assert.Equal(t, "21.3", formatFixed(21.25, 1))
	assert.Equal(t, "-3.3", formatFixed(-3.25, 1))
	assert.Equal(t, "0.0", formatFixed(-0.04, 1))
}

func TestFormatMeasurements_AverageRoundsHalfAwayFromZero(t *testing.T) {
	blocks := []netatmo.MeasureBlock{{
		BegTime:  1768471200,
		StepTime: 1800,
		Values:   [][]*float64{{fp(21.0)}, {fp(21.5)}},
	}}

	got := FormatMeasurements(blocks, "Outdoor", 1, Scale30Min, time.UTC)

	assert.Contains(t, got, "Temperature  - min: 21.0C, max: 21.5C, avg: 21.3C")
}
