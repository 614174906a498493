package plan

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimecode parses a user-supplied time position. Accepted forms are
// "HH:MM:SS", "MM:SS" (both may carry a fractional second) and a plain
// number of seconds. Negative values and malformed strings are errors,
// never clamped.
func ParseTimecode(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time value")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q: too many segments", s)
	}

	var total float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid time %q: %w", s, err)
		}
		if v < 0 {
			return 0, fmt.Errorf("invalid time %q: negative segment", s)
		}
		// Minute and second fields of a multi-segment form must stay under 60.
		if len(parts) > 1 && i > 0 && v >= 60 {
			return 0, fmt.Errorf("invalid time %q: segment %q out of range", s, part)
		}
		total = total*60 + v
	}

	return time.Duration(total * float64(time.Second)), nil
}

// FormatTimecode renders a duration as HH:MM:SS for display.
func FormatTimecode(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
