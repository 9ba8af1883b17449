// Package env_mode resolves the runtime mode that selects config overlays.
package env_mode

import (
	"os"
	"strings"
	"sync/atomic"
)

// EnvKey names the variable holding the mode.
const EnvKey = "ESSENTIALS_ENV"

type Mode string

const (
	DevMode  Mode = "development"
	ProMode  Mode = "production"
	TestMode Mode = "test"
)

var override atomic.Value // Mode

// Parse normalizes a mode name. Unknown and empty names mean development.
func Parse(env string) Mode {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// Current returns the mode set with Set, else the one named by EnvKey.
func Current() Mode {
	if m, ok := override.Load().(Mode); ok && m != "" {
		return m
	}
	return Parse(os.Getenv(EnvKey))
}

// Set overrides the mode for this process. An empty mode clears the override.
func Set(m Mode) {
	override.Store(m)
}

// Aliases returns the names a config overlay for m may use.
func (m Mode) Aliases() []string {
	switch m {
	case ProMode:
		return []string{"production", "prod", "pro"}
	case TestMode:
		return []string{"test"}
	default:
		return []string{"development", "dev"}
	}
}
