package netatmo

// Reading is the latest dashboard reading of a station or module.
// Either value may be absent; absent means "not reported", not zero.
type Reading struct {
	Temperature *float64 `json:"Temperature,omitempty"`
	Humidity    *int     `json:"Humidity,omitempty"`
}

// Module is a sensor attached to a station.
type Module struct {
	ID      string   `json:"_id"`
	Name    string   `json:"module_name"`
	Reading *Reading `json:"dashboard_data,omitempty"`
}

// Station is a weather station. Name is the name of the station's own
// (indoor) module; StationName is the name of the station as a whole.
type Station struct {
	ID          string   `json:"_id"`
	StationName string   `json:"station_name"`
	Name        string   `json:"module_name"`
	Reading     *Reading `json:"dashboard_data,omitempty"`
	Modules     []Module `json:"modules"`
}

type stationsResponse struct {
	Body struct {
		Devices []Station `json:"devices"`
	} `json:"body"`
}

// MeasureBlock is one block of a measurement series. The timestamp of the
// Nth value is BegTime + N*StepTime. Each value is [temperature, humidity],
// with nil for a missing sample.
type MeasureBlock struct {
	BegTime  int64        `json:"beg_time"`
	StepTime int64        `json:"step_time"`
	Values   [][]*float64 `json:"value"`
}

// TimestampAt returns the epoch-seconds timestamp of the nth value.
func (b MeasureBlock) TimestampAt(n int) int64 {
	return b.BegTime + int64(n)*b.StepTime
}

type measureResponse struct {
	Body   []MeasureBlock `json:"body"`
	Status string         `json:"status"`
}
