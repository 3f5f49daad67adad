package weather

import (
	"strings"

	"github.com/teemow/netatmo-mcp/internal/netatmo"
)

// Resolution identifies the measurement source for a module name.
// ModuleID is empty when the name refers to a station's own module.
type Resolution struct {
	DeviceID string
	ModuleID string
	Name     string
}

// ResolveModule finds the module called name, ignoring case. Stations are
// searched in order; for each station its own module is checked before its
// attached modules. The first match wins.
func ResolveModule(stations []netatmo.Station, name string) (Resolution, bool) {
	for _, st := range stations {
		if strings.EqualFold(st.Name, name) {
			return Resolution{DeviceID: st.ID, Name: st.Name}, true
		}
		for _, m := range st.Modules {
			if strings.EqualFold(m.Name, name) {
				return Resolution{DeviceID: st.ID, ModuleID: m.ID, Name: m.Name}, true
			}
		}
	}
	return Resolution{}, false
}

// AvailableModuleNames lists every resolvable name in search order.
func AvailableModuleNames(stations []netatmo.Station) []string {
	var names []string
	for _, st := range stations {
		names = append(names, st.Name)
		for _, m := range st.Modules {
			names = append(names, m.Name)
		}
	}
	return names
}
