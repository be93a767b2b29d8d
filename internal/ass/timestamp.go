package ass

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTime renders milliseconds as h:mm:ss.cc, rounding to the nearest centisecond.
func FormatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	cs := (ms + 5) / 10
	h := cs / 360000
	cs -= h * 360000
	m := cs / 6000
	cs -= m * 6000
	s := cs / 100
	cs -= s * 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// ParseTime parses h:mm:ss.cc into milliseconds.
func ParseTime(value string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp hours %q: %w", value, err)
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp minutes %q: %w", value, err)
	}
	secs, frac, _ := strings.Cut(parts[2], ".")
	s, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp seconds %q: %w", value, err)
	}
	var fracMS int64
	if frac != "" {
		if len(frac) > 3 {
			frac = frac[:3]
		}
		n, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timestamp fraction %q: %w", value, err)
		}
		for i := len(frac); i < 3; i++ {
			n *= 10
		}
		fracMS = n
	}
	return ((h*60+m)*60+s)*1000 + fracMS, nil
}
