package weather

// Measurement scales accepted by the getmeasure endpoint.
const (
	Scale30Min  = "30min"
	Scale1Hour  = "1hour"
	Scale3Hours = "3hours"
	Scale1Day   = "1day"
)

// Scales lists the valid scales from finest to coarsest.
var Scales = []string{Scale30Min, Scale1Hour, Scale3Hours, Scale1Day}

// Bounds of the history window, in hours.
const (
	MinHoursBack     = 1
	MaxHoursBack     = 720
	DefaultHoursBack = 24
)

// SelectScale picks a scale that keeps the number of data points readable
// for a window of hoursBack hours.
func SelectScale(hoursBack int) string {
	switch {
	case hoursBack <= 6:
		return Scale30Min
	case hoursBack <= 48:
		return Scale1Hour
	case hoursBack <= 168:
		return Scale3Hours
	default:
		return Scale1Day
	}
}

// IsValidScale reports whether s is one of Scales.
func IsValidScale(s string) bool {
	for _, v := range Scales {
		if v == s {
			return true
		}
	}
	return false
}

// ValidHoursBack reports whether hoursBack lies within [MinHoursBack, MaxHoursBack].
func ValidHoursBack(hoursBack int) bool {
	return hoursBack >= MinHoursBack && hoursBack <= MaxHoursBack
}
