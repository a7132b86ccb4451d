package scheduling

import (
	"strings"
	"time"
)

// Recurrence modes.
type RecurrenceMode string

const (
	ModeConsecutive  RecurrenceMode = "CONSECUTIVE"
	ModeSpecificDays RecurrenceMode = "SPECIFIC_DAYS"
)

// DefaultMaxLookaheadDays bounds the forward walk when no explicit limit is
// configured. Historically two limits coexisted (365 and 730); the larger one
// is the default and the value is configurable per deployment.
const DefaultMaxLookaheadDays = 730

// EADPrefix marks a remote-learning subject variant. Such subjects run on
// Fridays only, regardless of the class group's configured weekdays.
const EADPrefix = "EAD - "

// IsRemoteSubject reports whether a subject name carries the remote-learning
// prefix.
func IsRemoteSubject(subject string) bool {
	return strings.HasPrefix(strings.TrimSpace(subject), EADPrefix)
}

// AllowedWeekdays resolves the weekday pattern for a subject taught to a
// class group. Remote-learning subjects override the group pattern.
func AllowedWeekdays(subject string, groupWeekdays []time.Weekday) []time.Weekday {
	if IsRemoteSubject(subject) {
		return []time.Weekday{time.Friday}
	}
	return groupWeekdays
}

// RecurrenceRequest expands into a concrete list of dates. Consumed once;
// not persisted.
type RecurrenceRequest struct {
	Start            time.Time
	Mode             RecurrenceMode
	AllowedWeekdays  []time.Weekday
	TargetCount      int
	MaxLookaheadDays int
}

// SkippedDate records a pattern-matching day that was passed over because the
// calendar blocks it.
type SkippedDate struct {
	Date  string `json:"date"`
	Title string `json:"title"`
}

// RecurrenceResult is the outcome of an expansion. len(Accepted) may be less
// than the requested count when the lookahead bound is exhausted; callers
// must treat that as informational, not an error.
type RecurrenceResult struct {
	Accepted []time.Time
	Skipped  []SkippedDate
}

// Complete reports whether the expansion satisfied the full target count.
func (r RecurrenceResult) Complete(target int) bool {
	return len(r.Accepted) >= target
}

// Expand walks forward one calendar day at a time from Start, inclusive,
// collecting days that match the weekday pattern. Pattern-matching days
// blocked by the calendar are recorded as skipped and do not count toward the
// target. The walk stops after TargetCount accepted dates or
// MaxLookaheadDays visited days, whichever comes first.
func Expand(req RecurrenceRequest, cal *Calendar) RecurrenceResult {
	limit := req.MaxLookaheadDays
	if limit <= 0 {
		limit = DefaultMaxLookaheadDays
	}

	allowed := make(map[time.Weekday]bool, len(req.AllowedWeekdays))
	for _, d := range req.AllowedWeekdays {
		allowed[d] = true
	}

	result := RecurrenceResult{}
	day := req.Start
	for i := 0; i < limit && len(result.Accepted) < req.TargetCount; i++ {
		if matchesPattern(req.Mode, allowed, day.Weekday()) {
			if entry, ok := cal.Lookup(day); ok && entry.IsDayOff {
				result.Skipped = append(result.Skipped, SkippedDate{Date: DateKey(day), Title: entry.Title})
			} else {
				result.Accepted = append(result.Accepted, day)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return result
}

// matchesPattern applies the mode. CONSECUTIVE matches every day; an empty
// SPECIFIC_DAYS set also matches every day.
func matchesPattern(mode RecurrenceMode, allowed map[time.Weekday]bool, wd time.Weekday) bool {
	if mode == ModeConsecutive || len(allowed) == 0 {
		return true
	}
	return allowed[wd]
}
