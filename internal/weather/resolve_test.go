package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/netatmo-mcp/internal/netatmo"
)

func testStations() []netatmo.Station {
	return []netatmo.Station{
		{
			ID:          "S1",
			StationName: "Home",
			Name:        "Living Room",
			Modules: []netatmo.Module{
				{ID: "M1", Name: "Outdoor"},
				{ID: "M2", Name: "Bedroom"},
			},
		},
		{
			ID:          "S2",
			StationName: "Cabin",
			Name:        "Kitchen",
			Modules: []netatmo.Module{
				{ID: "M3", Name: "outdoor"},
			},
		},
	}
}

func TestResolveModule(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		want   Resolution
		wantOK bool
	}{
		{"station module", "Living Room", Resolution{DeviceID: "S1", Name: "Living Room"}, true},
		{"case insensitive station", "living room", Resolution{DeviceID: "S1", Name: "Living Room"}, true},
		{"attached module", "Bedroom", Resolution{DeviceID: "S1", ModuleID: "M2", Name: "Bedroom"}, true},
		{"first match wins", "OUTDOOR", Resolution{DeviceID: "S1", ModuleID: "M1", Name: "Outdoor"}, true},
		{"second station", "kitchen", Resolution{DeviceID: "S2", Name: "Kitchen"}, true},
		{"unknown", "Garage", Resolution{}, false},
		{"no partial match", "Living", Resolution{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveModule(testStations(), tt.query)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveModule_StationBeforeModules(t *testing.T) {
	stations := []netatmo.Station{{
		ID:      "S1",
		Name:    "Outdoor",
		Modules: []netatmo.Module{{ID: "M1", Name: "Outdoor"}},
	}}

	got, ok := ResolveModule(stations, "outdoor")
	assert.True(t, ok)
	assert.Equal(t, Resolution{DeviceID: "S1", Name: "Outdoor"}, got)
}

func TestAvailableModuleNames(t *testing.T) {
	assert.Equal(t,
		[]string{"Living Room", "Outdoor", "Bedroom", "Kitchen", "outdoor"},
		AvailableModuleNames(testStations()))
	assert.Empty(t, AvailableModuleNames(nil))
}

func TestModuleNotFoundMessage(t *testing.T) {
	assert.Equal(t,
		"Module 'Garage' not found. Available modules: Living Room, Outdoor, Bedroom",
		ModuleNotFoundMessage("Garage", []string{"Living Room", "Outdoor", "Bedroom"}))
}
