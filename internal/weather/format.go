package weather

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/netatmo-mcp/internal/netatmo"
)

// Fixed texts returned to tool callers.
const (
	NoStationsMessage = "No Netatmo weather stations found."
	currentHeader     = "Current readings:"
	tableHeader       = "Timestamp                Temp (C)   Humidity (%)"
	timestampLayout   = "2006-01-02 15:04"
	missingTemp       = "  --"
	missingHumidity   = "--"
)

var tableRule = strings.Repeat("-", 52)

// FormatCurrentReadings renders the latest reading of every station and
// module that reported one.
func FormatCurrentReadings(stations []netatmo.Station) string {
	if len(stations) == 0 {
		return NoStationsMessage
	}

	var b strings.Builder
	b.WriteString(currentHeader)
	b.WriteByte('\n')

	for _, st := range stations {
		writeReading(&b, st.StationName, st.Name, st.Reading)
		for _, m := range st.Modules {
			writeReading(&b, st.StationName, m.Name, m.Reading)
		}
	}

	return strings.TrimRight(b.String(), " \n")
}

func writeReading(b *strings.Builder, stationName, moduleName string, r *netatmo.Reading) {
	if r == nil {
		return
	}
	fmt.Fprintf(b, "  %s - %s:", stationName, moduleName)
	if r.Temperature != nil {
		fmt.Fprintf(b, " %sC", formatFixed(*r.Temperature, 1))
	}
	if r.Humidity != nil {
		fmt.Fprintf(b, ", %d%% humidity", *r.Humidity)
	}
	b.WriteByte('\n')
}

// HasMeasurements reports whether any block carries at least one value.
func HasMeasurements(blocks []netatmo.MeasureBlock) bool {
	for _, blk := range blocks {
		if len(blk.Values) > 0 {
			return true
		}
	}
	return false
}

// NoDataMessage is returned when a module has no samples in the window.
func NoDataMessage(moduleName string) string {
	return fmt.Sprintf("No historical data available for '%s' in the requested time range.", moduleName)
}

// ModuleNotFoundMessage lists the names that would have resolved.
func ModuleNotFoundMessage(name string, available []string) string {
	return fmt.Sprintf("Module '%s' not found. Available modules: %s", name, strings.Join(available, ", "))
}

// FormatMeasurements renders a history table followed by min/max/avg
// summaries. Timestamps are shown in loc. Each value pair is
// [temperature, humidity]; missing samples are shown as "--" and left out
// of the summaries.
func FormatMeasurements(blocks []netatmo.MeasureBlock, moduleName string, hoursBack int, scale string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Historical data for '%s' (last %dh, scale: %s):\n", moduleName, hoursBack, scale)
	b.WriteString(tableHeader)
	b.WriteByte('\n')
	b.WriteString(tableRule)
	b.WriteByte('\n')

	var temps, hums summary
	for _, blk := range blocks {
		for i, values := range blk.Values {
			temp := valueAt(values, 0)
			hum := valueAt(values, 1)

			tempStr, humStr := missingTemp, missingHumidity
			if temp != nil {
				tempStr = formatFixed(*temp, 1)
				temps.add(*temp)
			}
			if hum != nil {
				humStr = formatFixed(*hum, 0)
				hums.add(*hum)
			}

			ts := time.Unix(blk.TimestampAt(i), 0).In(loc)
			fmt.Fprintf(&b, "%s       %7s      %5s\n", ts.Format(timestampLayout), tempStr, humStr)
		}
	}

	b.WriteString(tableRule)
	b.WriteByte('\n')

	if temps.count > 0 {
		fmt.Fprintf(&b, "Temperature  - min: %sC, max: %sC, avg: %sC\n",
			formatFixed(temps.min, 1), formatFixed(temps.max, 1), formatFixed(temps.avg(), 1))
	}
	if hums.count > 0 {
		fmt.Fprintf(&b, "Humidity     - min: %s%%, max: %s%%, avg: %s%%\n",
			formatFixed(hums.min, 0), formatFixed(hums.max, 0), formatFixed(hums.avg(), 0))
	}

	return strings.TrimRight(b.String(), " \n")
}

func valueAt(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

// formatFixed formats v with the given number of decimals, rounding halves
// away from zero.
func formatFixed(v float64, decimals int) string {
	scale := math.Pow10(decimals)
	v = math.Round(v*scale) / scale
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

type summary struct {
	count    int
	sum      float64
	min, max float64
}

func (s *summary) add(v float64) {
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.sum += v
	s.count++
}

func (s *summary) avg() float64 {
	return s.sum / float64(s.count)
}
