package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultElectionDuration is used when no duration token is given or the
// token is malformed. Leniency here is deliberate; only an explicit
// non-positive duration is an error, and that is the engine's call.
const DefaultElectionDuration = 3 * 24 * time.Hour

var durationToken = regexp.MustCompile(`(?i)^(\d+)([mhdw])$`)

// ParseDuration turns a human duration token ("3d", "1w", "24h", "45m") or
// a bare hour count into a time.Duration. Unrecognized input falls back to
// the 3-day default.
func ParseDuration(token string) time.Duration {
	if token == "" {
		return DefaultElectionDuration
	}

	if hours, err := strconv.Atoi(token); err == nil {
		return time.Duration(hours) * time.Hour
	}

	match := durationToken.FindStringSubmatch(token)
	if match == nil {
		return DefaultElectionDuration
	}

	value, err := strconv.Atoi(match[1])
	if err != nil {
		return DefaultElectionDuration
	}

	switch strings.ToLower(match[2]) {
	case "m":
		return time.Duration(value) * time.Minute
	case "h":
		return time.Duration(value) * time.Hour
	case "d":
		return time.Duration(value) * 24 * time.Hour
	case "w":
		return time.Duration(value) * 7 * 24 * time.Hour
	}
	return DefaultElectionDuration
}

// FormatDuration renders a duration the way election snapshots display
// remaining time: "2d 4h", "4h 30m" or "45m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := d / (24 * time.Hour)
	hours := (d % (24 * time.Hour)) / time.Hour
	minutes := (d % time.Hour) / time.Minute

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
