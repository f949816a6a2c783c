package recurrence

import (
	"time"
)

// floating strips the location from t, keeping its wall clock. All engine arithmetic
// happens on these UTC-labelled values so no DST transition can move a day.
func floating(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// localize rebuilds a floating value with the same wall clock in loc
func localize(f time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(f.Year(), f.Month(), f.Day(), f.Hour(), f.Minute(), f.Second(), 0, loc)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// endOfDay is the last second of the calendar day d
func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonths steps a year/month pair by n months without touching the day
func addMonths(year int, month time.Month, n int) (int, time.Month) {
	total := year*12 + int(month-1) + n
	return total / 12, time.Month(total%12 + 1)
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
}

// HasExplicitTime reports whether occurrences of r carry a time of day.
// Rules with an hour, minute or second component do, and so do sub-daily frequencies.
func (r Rule) HasExplicitTime() bool {
	return r.has("BYHOUR") || r.has("BYMINUTE") || r.has("BYSECOND") || r.Frequency.SubDaily()
}

// finalize turns a raw floating occurrence into the value handed back to callers
func (r Rule) finalize(raw time.Time, loc *time.Location) time.Time {
	if !r.HasExplicitTime() {
		raw = midnight(raw)
	}
	return localize(raw, loc)
}

// pastUntil reports whether t lies after the rule's UNTIL day
func (r Rule) pastUntil(t time.Time) bool {
	until, ok := r.Until.Get()
	return ok && t.After(endOfDay(until))
}

// Finalize normalizes an occurrence computed for ruleString. Date-only rules keep the
// calendar day of computed at local midnight; rules with an explicit time keep the wall clock.
// An unparsable rule is treated as date-only.
func Finalize(ruleString string, computed time.Time) time.Time {
	r := ParseRule(ruleString).OrEmpty()
	return r.finalize(floating(computed), computed.Location())
}
