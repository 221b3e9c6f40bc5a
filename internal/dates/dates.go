// Package dates holds the day-of-week arithmetic the schedule pipeline is
// built on. Everything here is pure: callers pass the reference time in.
package dates

import (
	"strings"
	"time"
)

// ISOFormat is the wire format for all schedule dates.
const ISOFormat = "2006-01-02"

// Unknown is the canonical day name for entries whose broadcast day could not
// be resolved.
const Unknown = "Unknown"

var dayAliases = map[string]string{
	"mon": "Monday", "monday": "Monday",
	"tue": "Tuesday", "tues": "Tuesday", "tuesday": "Tuesday",
	"wed": "Wednesday", "weds": "Wednesday", "wednesday": "Wednesday",
	"thu": "Thursday", "thur": "Thursday", "thurs": "Thursday", "thursday": "Thursday",
	"fri": "Friday", "friday": "Friday",
	"sat": "Saturday", "saturday": "Saturday",
	"sun": "Sunday", "sunday": "Sunday",
}

var weekdayByName = map[string]time.Weekday{
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
	"Sunday":    time.Sunday,
}

// NormalizeDay maps a free-form day label ("thurs", "FRIDAY ") to its
// canonical weekday name. Returns Unknown when the label doesn't resolve.
func NormalizeDay(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	if canonical, ok := dayAliases[key]; ok {
		return canonical
	}
	return Unknown
}

// IsWeekday reports whether name is one of the seven canonical day names.
func IsWeekday(name string) bool {
	_, ok := weekdayByName[name]
	return ok
}

// FindWeekday scans free text for the first canonical weekday name,
// case-insensitively. Returns Unknown if none is present.
func FindWeekday(text string) string {
	lower := strings.ToLower(text)
	// Iterate in calendar order so results are deterministic.
	for _, name := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"} {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	return Unknown
}

// NextOccurrence returns the earliest calendar date on or after from whose
// weekday matches day. Same-day counts as the current occurrence, so a Friday
// reference date with day="Friday" returns the reference date itself. Callers
// that need a strictly-future date add seven days themselves. An unresolvable
// day name returns from unchanged.
func NextOccurrence(day string, from time.Time) time.Time {
	target, ok := weekdayByName[NormalizeDay(day)]
	if !ok {
		return from
	}
	offset := (int(target) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}

// ISODate formats t as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format(ISOFormat)
}
