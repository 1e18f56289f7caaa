package featureflags

import (
	"os"
	"strings"
)

// Known flags
const (
	// ActivityFeed exposes the admin websocket stream of circulation events
	ActivityFeed = "activity_feed"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes/on (case-insensitive).
func Enabled(name string) bool {
	return parse(os.Getenv(envName(name)))
}

func envName(name string) string {
	return "FLAG_" + strings.ToUpper(strings.TrimSpace(name))
}

func parse(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
