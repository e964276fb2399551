package lang

import (
	"runtime"
	"time"
)

// Global produces the value of an "@name" expression. An [Env] calls Value
// at most once per name and caches the result.
type Global interface {
	Value() (any, error)
}

// GlobalFunc adapts a function to the [Global] interface.
type GlobalFunc func() (any, error)

// Value calls f.
func (f GlobalFunc) Value() (any, error) { return f() }

// DefaultGlobals returns the globals available when none are configured:
//
//   - @os is "linux", "mac", "win", or "unknown"
//   - @hour is the current local hour, 0 through 23
func DefaultGlobals() map[string]Global {
	return map[string]Global{
		"os":   GlobalFunc(osGlobal),
		"hour": GlobalFunc(hourGlobal),
	}
}

func osGlobal() (any, error) {
	switch runtime.GOOS {
	case "linux":
		return "linux", nil
	case "darwin":
		return "mac", nil
	case "windows":
		return "win", nil
	}

	return "unknown", nil
}

func hourGlobal() (any, error) {
	return float64(time.Now().Hour()), nil
}
