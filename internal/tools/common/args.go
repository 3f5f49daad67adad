package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ArgModuleName is the argument carrying a station or module name.
const ArgModuleName = "module_name"

// ModuleFromArgs returns the module_name argument as given, or "" when absent.
func ModuleFromArgs(args map[string]interface{}) string {
	module, _ := args[ArgModuleName].(string)
	return module
}

// StringArg returns the named string argument, or def when it is absent or empty.
func StringArg(args map[string]interface{}, name, def string) string {
	if v, ok := args[name].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// IntArg returns the named integer argument, or def when it is absent.
// JSON numbers arrive as float64; numeric strings are accepted as well.
func IntArg(args map[string]interface{}, name string, def int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%s must be a whole number", name)
		}
		if v > math.MaxInt32 || v < math.MinInt32 {
			return 0, fmt.Errorf("%s is out of range", name)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return def, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number", name)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}
