package media

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Default trim bounds for the manual fine-tune flow. Pre-cut suggestions may
// arrive longer than the manual cap; the cap applies to edits, not to what
// the backend produced.
const (
	MinTrimMS int64 = 1_000
	MaxTrimMS int64 = 60_000
)

// TrimWindow is the half-open [StartMS, EndMS) interval defining a clip's
// extracted segment.
type TrimWindow struct {
	StartMS int64
	EndMS   int64
}

// DurationMS returns the window length.
func (w TrimWindow) DurationMS() int64 {
	return w.EndMS - w.StartMS
}

// Duration returns the window length as a time.Duration.
func (w TrimWindow) Duration() time.Duration {
	return time.Duration(w.DurationMS()) * time.Millisecond
}

// ValidateTrim checks a window against the trim invariants: non-negative
// start, strictly positive duration within [minMS, maxMS]. Zero bounds fall
// back to the package defaults.
func ValidateTrim(w TrimWindow, minMS, maxMS int64) error {
	if minMS <= 0 {
		minMS = MinTrimMS
	}
	if maxMS <= 0 {
		maxMS = MaxTrimMS
	}
	if w.StartMS < 0 {
		return fmt.Errorf("trim window: start %dms is negative", w.StartMS)
	}
	if w.StartMS >= w.EndMS {
		return fmt.Errorf("trim window: start %dms must precede end %dms", w.StartMS, w.EndMS)
	}
	if d := w.DurationMS(); d < minMS {
		return fmt.Errorf("trim window: duration %dms below minimum %dms", d, minMS)
	} else if d > maxMS {
		return fmt.Errorf("trim window: duration %dms exceeds maximum %dms", d, maxMS)
	}
	return nil
}

// FormatMS renders a millisecond offset as m:ss for presentation.
func FormatMS(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ParseMS parses a user-supplied clip offset into milliseconds. Accepted
// forms are plain seconds ("90", "90.5") and minute:second ("1:30",
// "1:30.250").
func ParseMS(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("time offset is empty")
	}
	var minutes int64
	secPart := value
	if idx := strings.IndexByte(value, ':'); idx >= 0 {
		m, err := strconv.ParseInt(value[:idx], 10, 64)
		if err != nil || m < 0 {
			return 0, fmt.Errorf("invalid time offset %q", value)
		}
		minutes = m
		secPart = value[idx+1:]
	}
	seconds, err := strconv.ParseFloat(secPart, 64)
	if err != nil || seconds < 0 || (minutes > 0 && seconds >= 60) {
		return 0, fmt.Errorf("invalid time offset %q", value)
	}
	return minutes*60_000 + int64(math.Round(seconds*1000)), nil
}
