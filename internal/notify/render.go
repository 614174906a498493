package notify

import (
	"fmt"
	"strings"

	"github.com/lumenmedia/encodebot/pkg/utils/format"
)

const barWidth = 10

// ProgressBar renders a fixed-width bar like "███████░░░" for a percent in
// [0, 100].
func ProgressBar(percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * barWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// ProgressLine renders one progress sample as a single display line, e.g.
//
//	███████░░░ 70.0% | 2.1x | ETA 00:15 | elapsed 00:42
//
// Indeterminate samples show the processed media position instead of a bar.
func ProgressLine(p Progress) string {
	if p.Indeterminate {
		return fmt.Sprintf("processing %s | %.1fx | elapsed %s",
			format.Duration(p.MediaSeconds), p.Speed, format.Clock(p.Elapsed))
	}

	line := fmt.Sprintf("%s %.1f%% | %.1fx", ProgressBar(p.Percent), p.Percent, p.Speed)
	if p.ETAKnown {
		line += " | ETA " + format.Clock(p.ETA)
	}
	return line + " | elapsed " + format.Clock(p.Elapsed)
}

// EventLine renders a lifecycle event for plain-text transports.
func EventLine(e Event) string {
	switch e.Status {
	case StatusFailed:
		if e.Err != nil {
			return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
		}
		return e.Operation + " failed"
	case StatusDone:
		if e.Message != "" {
			return fmt.Sprintf("%s finished: %s", e.Operation, e.Message)
		}
		return e.Operation + " finished"
	case StatusCancelled:
		return e.Operation + " cancelled"
	default:
		if e.Message != "" {
			return fmt.Sprintf("%s: %s", string(e.Status), e.Message)
		}
		return string(e.Status) + " " + e.Operation
	}
}
