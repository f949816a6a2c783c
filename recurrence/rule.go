package recurrence

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

const rulePrefix = "RRULE:"

var (
	// ErrMissingPrefix is returned for rule lines that do not start with "RRULE:"
	ErrMissingPrefix = errors.New("rule must start with RRULE:")
	// ErrInvalidFrequency is returned when FREQ is missing or unknown
	ErrInvalidFrequency = errors.New("invalid or missing FREQ")
	// ErrInvalidUntil is returned when UNTIL is not a real calendar date
	ErrInvalidUntil = errors.New("UNTIL is not a valid calendar date")
	// ErrInvalidValue is returned for malformed parts and out-of-range values
	ErrInvalidValue = errors.New("invalid rule part")
)

// UNTIL is a bare YYYYMMDD date. A trailing time as emitted by CalDAV clients is tolerated and dropped.
var untilPattern = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(T\d{6}Z?)?$`)

// Rule is a parsed, validated recurrence rule line
type Rule struct {
	Frequency  Frequency
	Interval   int                  // Always >= 1
	Count      int                  // Remaining occurrences, 0 if the rule has no COUNT
	Until      mo.Option[time.Time] // Calendar date (midnight UTC), inclusive through the end of that day
	ByDay      []Weekday
	ByMonthDay []int
	ByMonth    []int
	BySetPos   []int
	ByHour     []int
	ByMinute   []int
	BySecond   []int

	keys  map[string]bool
	parts []string // KEY=VALUE parts except UNTIL, handed to the generic evaluator
}

// ParseRule parses a single "RRULE:" line. Any failure yields None, never a partial rule.
func ParseRule(s string) mo.Option[Rule] {
	r, err := ParseRuleErr(s)
	if err != nil {
		return mo.None[Rule]()
	}
	return mo.Some(r)
}

// ParseRuleErr is ParseRule with the reason for rejection
func ParseRuleErr(s string) (Rule, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(rulePrefix) || !strings.EqualFold(s[:len(rulePrefix)], rulePrefix) {
		return Rule{}, ErrMissingPrefix
	}

	r := Rule{Interval: 1, keys: make(map[string]bool)}
	for _, part := range strings.Split(s[len(rulePrefix):], ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.ToUpper(strings.TrimSpace(value))
		if !ok || key == "" || value == "" {
			return Rule{}, fmt.Errorf("%w: %q", ErrInvalidValue, part)
		}
		if err := r.set(key, value); err != nil {
			return Rule{}, err
		}
		r.keys[key] = true
		if key != "UNTIL" {
			r.parts = append(r.parts, key+"="+value)
		}
	}

	if !r.Frequency.Valid() {
		return Rule{}, ErrInvalidFrequency
	}
	return r, nil
}

func (r *Rule) set(key, value string) error {
	var err error
	switch key {
	case "FREQ":
		r.Frequency = Frequency(value)
		if !r.Frequency.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidFrequency, value)
		}
	case "INTERVAL":
		r.Interval, err = positiveInt(key, value)
	case "COUNT":
		r.Count, err = positiveInt(key, value)
	case "UNTIL":
		var until time.Time
		until, err = parseUntil(value)
		r.Until = mo.Some(until)
	case "WKST":
		if _, ok := weekdayCodes[value]; !ok {
			err = fmt.Errorf("%w: WKST=%s", ErrInvalidValue, value)
		}
	case "BYDAY":
		r.ByDay, err = parseWeekdays(value)
	case "BYMONTHDAY":
		r.ByMonthDay, err = intList(key, value, -31, 31)
	case "BYMONTH":
		r.ByMonth, err = intList(key, value, 1, 12)
	case "BYSETPOS":
		r.BySetPos, err = intList(key, value, -366, 366)
	case "BYHOUR":
		r.ByHour, err = intList(key, value, 0, 23)
	case "BYMINUTE":
		r.ByMinute, err = intList(key, value, 0, 59)
	case "BYSECOND":
		r.BySecond, err = intList(key, value, 0, 60)
	case "BYYEARDAY":
		_, err = intList(key, value, -366, 366)
	case "BYWEEKNO":
		_, err = intList(key, value, -53, 53)
	default:
		err = fmt.Errorf("%w: unknown property %s", ErrInvalidValue, key)
	}
	return err
}

func parseUntil(value string) (time.Time, error) {
	m := untilPattern.FindStringSubmatch(value)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidUntil, value)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	// time.Date normalizes 20250230 to March 2nd; the roundtrip catches it
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidUntil, value)
	}
	return t, nil
}

func positiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s=%s", ErrInvalidValue, key, value)
	}
	return n, nil
}

// intList parses a comma separated list into a sorted set. Zero is only allowed when min is 0.
func intList(key, value string, min, max int) ([]int, error) {
	var out []int
	for _, field := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n < min || n > max || (n == 0 && min < 0) {
			return nil, fmt.Errorf("%w: %s=%s", ErrInvalidValue, key, value)
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func parseWeekdays(value string) ([]Weekday, error) {
	var out []Weekday
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if len(field) < 2 {
			return nil, fmt.Errorf("%w: BYDAY=%s", ErrInvalidValue, value)
		}
		day, ok := weekdayCodes[field[len(field)-2:]]
		if !ok {
			return nil, fmt.Errorf("%w: BYDAY=%s", ErrInvalidValue, value)
		}
		w := Weekday{Day: day}
		if prefix := field[:len(field)-2]; prefix != "" {
			n, err := strconv.Atoi(prefix)
			if err != nil || n == 0 || n < -53 || n > 53 {
				return nil, fmt.Errorf("%w: BYDAY=%s", ErrInvalidValue, value)
			}
			w.N = n
		}
		if !slices.Contains(out, w) {
			out = append(out, w)
		}
	}
	return out, nil
}

// has reports whether key appeared in the rule line
func (r Rule) has(key string) bool {
	return r.keys[key]
}

// only reports whether every key present in the rule is in allowed
func (r Rule) only(allowed ...string) bool {
	for key := range r.keys {
		if !slices.Contains(allowed, key) {
			return false
		}
	}
	return true
}

// String renders the rule back into an "RRULE:" line
func (r Rule) String() string {
	parts := []string{"FREQ=" + string(r.Frequency)}
	for _, part := range r.parts {
		if !strings.HasPrefix(part, "FREQ=") {
			parts = append(parts, part)
		}
	}
	if until, ok := r.Until.Get(); ok {
		parts = append(parts, "UNTIL="+until.Format("20060102"))
	}
	return rulePrefix + strings.Join(parts, ";")
}
