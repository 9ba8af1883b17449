package plugin

import (
	"fmt"
	"strings"
)

// InstallState represents the install lifecycle stage of a plugin.
// The numeric value is the rank used for "minimum state" comparisons.
type InstallState int

const (
	StateDiscovered          InstallState = iota // Listed in the catalog, nothing done yet
	StateAwaitingUserInput                       // Needs install parameters from the user
	StateInstallationPending                     // Blocked on a dependency
	StateInstalling                              // Installed, waiting for rebuild and restart
	StateInstalled                               // Fully installed
)

var stateNames = [...]string{
	StateDiscovered:          "DISCOVERED",
	StateAwaitingUserInput:   "AWAITING_USER_INPUT",
	StateInstallationPending: "INSTALLATION_PENDING",
	StateInstalling:          "INSTALLING",
	StateInstalled:           "INSTALLED",
}

// String returns the canonical state name.
func (s InstallState) String() string {
	if s < StateDiscovered || s > StateInstalled {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// AtLeast reports whether s has reached min in the install order.
func (s InstallState) AtLeast(min InstallState) bool {
	return s >= min
}

// IsTerminal returns true if the state cannot transition further.
func (s InstallState) IsTerminal() bool {
	return s == StateInstalled
}

// ParseInstallState parses a state name, ignoring case.
func ParseInstallState(name string) (InstallState, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range stateNames {
		if n == normalized {
			return InstallState(i), nil
		}
	}
	return StateDiscovered, fmt.Errorf("unknown install state %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s InstallState) MarshalText() ([]byte, error) {
	if s < StateDiscovered || s > StateInstalled {
		return nil, fmt.Errorf("invalid install state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *InstallState) UnmarshalText(text []byte) error {
	parsed, err := ParseInstallState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// StatePtr returns a pointer to s, for building dependencies inline.
func StatePtr(s InstallState) *InstallState {
	return &s
}
