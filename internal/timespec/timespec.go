// Package timespec parses the duration and time syntaxes accepted on the
// jobman command line: compact "1w2d3h4m5s" durations and times that are
// either a time-of-day (interpreted as today) or a full date/datetime.
package timespec

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jobman-sh/jobman/internal/errs"
)

var unitSeconds = map[string]time.Duration{
	"w": 7 * 24 * time.Hour,
	"d": 24 * time.Hour,
	"h": time.Hour,
	"m": time.Minute,
	"s": time.Second,
}

// unitOrder is the scan order; units may appear in any order in the input but
// each at most once.
var unitOrder = []string{"w", "d", "h", "m", "s"}

var segmentRe = map[string]*regexp.Regexp{
	"w": regexp.MustCompile(`(\d+)w`),
	"d": regexp.MustCompile(`(\d+)d`),
	"h": regexp.MustCompile(`(\d+)h`),
	"m": regexp.MustCompile(`(\d+)m`),
	"s": regexp.MustCompile(`(\d+)s`),
}

// ParseDuration converts a compact duration string like "1w2d3h4m5s" to a
// time.Duration. Every segment is optional and the empty string is zero.
// Repeated units or leftover characters are usage errors.
func ParseDuration(s string) (time.Duration, error) {
	rest := s
	var total time.Duration
	for _, unit := range unitOrder {
		matches := segmentRe[unit].FindAllStringSubmatch(rest, -1)
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			return 0, errs.Usage("can't parse duration %q: multiple values for %q", s, unit)
		}
		v, err := strconv.Atoi(matches[0][1])
		if err != nil {
			return 0, errs.Usage("can't parse duration %q: %q must be an integer", s, matches[0][1])
		}
		total += time.Duration(v) * unitSeconds[unit]
		rest = strings.Replace(rest, matches[0][0], "", 1)
	}
	if strings.TrimSpace(rest) != "" {
		return 0, errs.Usage("can't parse duration %q: uninterpretable characters %q", s, strings.TrimSpace(rest))
	}
	return total, nil
}

// timeLayouts are the accepted full date/datetime forms, tried in order.
var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseTime converts a time string to a concrete local time. A bare
// time-of-day ("HH:MM" or "HH:MM:SS") means today at that time; otherwise the
// value must be a date or datetime.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if tod, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			now := time.Now()
			return time.Date(now.Year(), now.Month(), now.Day(),
				tod.Hour(), tod.Minute(), tod.Second(), 0, time.Local), nil
		}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errs.Usage("can't parse time %q: use HH:MM[:SS] or a date/datetime", s)
}
