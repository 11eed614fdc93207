// Package quiet evaluates configured quiet hours ("class time") during
// which the watcher must not ask the shell to surface the main window.
package quiet

import (
	"strconv"
	"strings"
	"time"
)

// Range is one quiet period in minutes since midnight. Ranges where Start
// is after End cross midnight.
type Range struct {
	Start int
	End   int
}

// Schedule is a set of quiet ranges
type Schedule []Range

// ParseRanges parses "HHMM-HHMM" strings into a Schedule. Malformed
// entries are skipped.
func ParseRanges(specs []string) Schedule {
	var sched Schedule
	for _, spec := range specs {
		parts := strings.Split(spec, "-")
		if len(parts) != 2 {
			continue
		}
		start, ok := parseHHMM(strings.TrimSpace(parts[0]))
		if !ok {
			continue
		}
		end, ok := parseHHMM(strings.TrimSpace(parts[1]))
		if !ok {
			continue
		}
		sched = append(sched, Range{Start: start, End: end})
	}
	return sched
}

// Contains reports whether t falls inside any quiet range. Bounds are
// inclusive.
func (s Schedule) Contains(t time.Time) bool {
	now := t.Hour()*60 + t.Minute()
	for _, r := range s {
		var in bool
		if r.Start <= r.End {
			in = now >= r.Start && now <= r.End
		} else {
			// Crosses midnight
			in = now >= r.Start || now <= r.End
		}
		if in {
			return true
		}
	}
	return false
}

// parseHHMM converts "0830" to minutes since midnight
func parseHHMM(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	hour, err := strconv.Atoi(s[0:2])
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(s[2:4])
	if err != nil {
		return 0, false
	}
	if hour >= 24 || minute >= 60 || hour < 0 || minute < 0 {
		return 0, false
	}
	return hour*60 + minute, true
}
