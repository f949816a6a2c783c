package recurrence

import (
	"time"
)

// Matches reports whether date is an occurrence of spec anchored at reference.
//
// Sub-daily rules need an exact match of the wall clock. Daily and coarser rules compare
// calendar days only: the first occurrence at or after midnight of date must fall on date.
// Any matching line is enough.
func (e *Engine) Matches(date time.Time, spec string, reference time.Time) bool {
	dates := []time.Time{date, reference}
	if e.cache != nil {
		if cached, ok := e.cache.Get("match", spec, dates, false); ok {
			return cached.(bool)
		}
	}

	matched := e.matches(date, spec, reference)

	if e.cache != nil {
		e.cache.Set("match", spec, dates, false, matched)
	}
	return matched
}

func (e *Engine) matches(date time.Time, spec string, reference time.Time) bool {
	anchor := floating(reference)
	target := floating(date)

	for _, line := range SplitSpec(spec) {
		r, err := ParseRuleErr(line)
		if err != nil {
			e.logger.Debug("skipping recurrence line", "line", line, "error", err)
			continue
		}

		if r.Frequency.SubDaily() {
			occ, ok := e.evaluate(r, anchor, target, true).Get()
			if ok && r.finalize(occ, time.UTC).Equal(target) {
				return true
			}
			continue
		}

		occ, ok := e.evaluate(r, anchor, midnight(target), true).Get()
		if ok && sameDay(occ, target) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
