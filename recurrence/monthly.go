package recurrence

import (
	"slices"
	"time"

	"github.com/samber/mo"
)

// daySelector returns the sorted, deduplicated days of a month on which a rule fires
type daySelector func(year int, month time.Month) []int

// monthlyFastPath picks the specialised MONTHLY calculator for r, if its shape allows one.
// Order matters: weekday + set position, then by-month-day, then plain day-of-month.
func monthlyFastPath(r Rule, anchor time.Time) (daySelector, bool) {
	if r.Frequency != Monthly {
		return nil, false
	}
	base := []string{"FREQ", "INTERVAL", "COUNT", "UNTIL", "WKST"}

	if len(r.ByDay) > 0 && len(r.BySetPos) > 0 && r.only(append(base, "BYDAY", "BYSETPOS")...) {
		for _, w := range r.ByDay {
			if w.N != 0 {
				return nil, false
			}
		}
		return r.weekdaySetPosDays, true
	}
	if len(r.ByMonthDay) > 0 && r.only(append(base, "BYMONTHDAY")...) {
		return r.monthDays, true
	}
	if r.only(base...) {
		day := anchor.Day()
		return func(year int, month time.Month) []int {
			return []int{min(day, daysIn(year, month))}
		}, true
	}
	return nil, false
}

// monthDays resolves BYMONTHDAY against a month. Negative values count back from the
// last day (-1 is the last day) and everything is clamped into the month.
func (r Rule) monthDays(year int, month time.Month) []int {
	last := daysIn(year, month)
	days := make([]int, 0, len(r.ByMonthDay))
	for _, v := range r.ByMonthDay {
		if v < 0 {
			v = last + v + 1
		}
		days = append(days, max(1, min(v, last)))
	}
	slices.Sort(days)
	return slices.Compact(days)
}

// weekdaySetPosDays lists the month's days falling on a BYDAY weekday and keeps the
// BYSETPOS picks: positive counts from the first match, negative from the last.
func (r Rule) weekdaySetPosDays(year int, month time.Month) []int {
	var matches []int
	for d := 1; d <= daysIn(year, month); d++ {
		wd := time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Weekday()
		if slices.ContainsFunc(r.ByDay, func(w Weekday) bool { return w.Day == wd }) {
			matches = append(matches, d)
		}
	}

	var days []int
	for _, pos := range r.BySetPos {
		i := pos - 1
		if pos < 0 {
			i = len(matches) + pos
		}
		if i >= 0 && i < len(matches) {
			days = append(days, matches[i])
		}
	}
	slices.Sort(days)
	return slices.Compact(days)
}

// scanMonths walks the monthly series anchored at anchor and returns the first
// occurrence after cursor (or equal to it when inc is set).
//
// The anchor month only contributes the anchor itself and, for INTERVAL=1, the days after
// it; later months are anchor month + k*INTERVAL. COUNT is consumed from the anchor on,
// UNTIL ends the walk, and maxSteps months past the cursor without a hit means none.
func scanMonths(r Rule, anchor, cursor time.Time, inc bool, selectDays daySelector, maxSteps int) mo.Option[time.Time] {
	year, month, anchorDay := anchor.Date()
	hour, minute, second := anchor.Clock()

	limit := maxSteps
	if ahead := monthsBetween(anchor, cursor); ahead > 0 {
		limit += ahead / r.Interval
	}

	seen := 0
	for k := 0; k <= limit; k++ {
		y, m := addMonths(year, month, k*r.Interval)
		for _, d := range selectDays(y, m) {
			if k == 0 && (d < anchorDay || (d > anchorDay && r.Interval > 1)) {
				continue
			}
			occ := time.Date(y, m, d, hour, minute, second, 0, time.UTC)
			if r.pastUntil(occ) {
				return mo.None[time.Time]()
			}
			seen++
			if r.Count > 0 && seen > r.Count {
				return mo.None[time.Time]()
			}
			if occ.After(cursor) || (inc && occ.Equal(cursor)) {
				return mo.Some(occ)
			}
		}
	}
	return mo.None[time.Time]()
}
