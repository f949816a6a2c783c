package recurrence

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

// SplitSpec splits a recurrence spec into its rule lines, dropping blank lines
func SplitSpec(spec string) []string {
	var lines []string
	for _, line := range strings.Split(spec, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// NextOccurrence returns the earliest next occurrence across every line of spec.
// Each line is evaluated on its own; the winner is normalized by its own rule, so a
// date-only line and a timed line in the same spec keep their own shapes.
// None means every line is malformed or exhausted.
func (e *Engine) NextOccurrence(spec string, from time.Time, includeFrom bool) mo.Option[time.Time] {
	dates := []time.Time{from}
	if e.cache != nil {
		if cached, ok := e.cache.Get("next", spec, dates, includeFrom); ok {
			return cached.(mo.Option[time.Time])
		}
	}

	var result mo.Option[time.Time]
	if lines := SplitSpec(spec); len(lines) == 1 {
		result = e.NextRuleOccurrence(lines[0], from, includeFrom)
	} else if occ, ok := e.NextWithLine(spec, from, includeFrom, nil).Get(); ok {
		result = mo.Some(occ.At)
	} else {
		result = mo.None[time.Time]()
	}

	if e.cache != nil {
		e.cache.Set("next", spec, dates, includeFrom, result)
	}
	return result
}

// NextWithLine is NextOccurrence that also reports which line won. Lines for which
// usable returns false are skipped; a nil usable accepts every parsable line.
func (e *Engine) NextWithLine(spec string, from time.Time, includeFrom bool, usable func(Rule) bool) mo.Option[Occurrence] {
	anchor := floating(from)

	var (
		best    Occurrence
		bestRaw time.Time
		found   bool
	)
	for i, line := range SplitSpec(spec) {
		r, err := ParseRuleErr(line)
		if err != nil {
			e.logger.Debug("skipping recurrence line", "line", line, "error", err)
			continue
		}
		if usable != nil && !usable(r) {
			continue
		}
		raw, ok := e.evaluate(r, anchor, anchor, includeFrom).Get()
		if !ok {
			continue
		}
		if !found || raw.Before(bestRaw) {
			best, bestRaw, found = Occurrence{Line: i, Rule: r}, raw, true
		}
	}

	if !found {
		return mo.None[Occurrence]()
	}
	best.At = best.Rule.finalize(bestRaw, from.Location())
	return mo.Some(best)
}

// Occurrences lists up to n occurrences of spec after from, in order. The series of every
// line stays anchored at from, so month-end clamping never sticks.
func (e *Engine) Occurrences(spec string, from time.Time, n int) []time.Time {
	var rules []Rule
	for _, line := range SplitSpec(spec) {
		if r, ok := ParseRule(line).Get(); ok {
			rules = append(rules, r)
		}
	}

	anchor := floating(from)
	cursor := anchor
	var out []time.Time
	for len(out) < n {
		var (
			winner Rule
			next   time.Time
			found  bool
		)
		for _, r := range rules {
			raw, ok := e.evaluate(r, anchor, cursor, false).Get()
			if ok && (!found || raw.Before(next)) {
				winner, next, found = r, raw, true
			}
		}
		if !found {
			break
		}
		out = append(out, winner.finalize(next, from.Location()))
		cursor = next
	}
	return out
}

// WithCount rewrites the COUNT of one line of spec, leaving every other line verbatim.
// Lines are indexed as in SplitSpec.
func WithCount(spec string, line, count int) string {
	lines := SplitSpec(spec)
	if line < 0 || line >= len(lines) {
		return spec
	}

	target := lines[line]
	if len(target) < len(rulePrefix) {
		return spec
	}
	prefix, body := target[:len(rulePrefix)], target[len(rulePrefix):]
	parts := strings.Split(body, ";")
	for i, part := range parts {
		key, _, _ := strings.Cut(part, "=")
		if strings.EqualFold(strings.TrimSpace(key), "COUNT") {
			parts[i] = "COUNT=" + strconv.Itoa(count)
		}
	}
	lines[line] = prefix + strings.Join(parts, ";")
	return strings.Join(lines, "\n")
}
