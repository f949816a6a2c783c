/*
Package recurrence computes occurrences of RRULE recurrence specs for date-based reminders.

# Basic Usage

A spec is one or more "RRULE:" lines separated by newlines. The package-level functions use
an uncached engine:

	next, ok := recurrence.NextOccurrence("RRULE:FREQ=MONTHLY", due, false).Get()
	if !ok {
		// malformed or exhausted
	}

	if recurrence.Matches(day, "RRULE:FREQ=WEEKLY;BYDAY=MO,WE", start) {
		...
	}

Nothing in this package returns an error for a bad spec. Malformed rules and finished series
both yield mo.None; use ParseRuleErr to find out why a rule was rejected.

# Dates

Occurrences are calendar values. The engine works on the wall clock of its input and hands
results back in the input's location with the same wall clock, so a due date on the 1st stays
on the 1st regardless of DST. Rules without BYHOUR, BYMINUTE or BYSECOND (and not sub-daily)
produce dates at midnight.

# Monthly Rules

Plain MONTHLY rules, MONTHLY with BYMONTHDAY, and MONTHLY with BYDAY+BYSETPOS are computed by
dedicated calculators that clamp to the end of short months:

	RRULE:FREQ=MONTHLY                         from Jan 31: Feb 28, Mar 31, Apr 30
	RRULE:FREQ=MONTHLY;BYMONTHDAY=31           Jan 31, Feb 28, Mar 31
	RRULE:FREQ=MONTHLY;BYDAY=MO,TU,WE,TH,FR;BYSETPOS=-1    last weekday of the month

Every other shape goes to github.com/teambition/rrule-go.

# Configuration

Engines are built from an EngineConfig:

	engine := recurrence.NewEngineWithConfig(recurrence.CachedEngineConfig,
		recurrence.WithLogger(logger))
	defer engine.Close()

An Engine is safe for concurrent use.
*/
package recurrence
