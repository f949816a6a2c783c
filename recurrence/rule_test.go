package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule_Valid(t *testing.T) {
	r, ok := ParseRule("RRULE:FREQ=MONTHLY;BYDAY=MO;BYSETPOS=2").Get()
	require.True(t, ok)

	assert.Equal(t, Monthly, r.Frequency)
	assert.Equal(t, 1, r.Interval)
	assert.Equal(t, 0, r.Count)
	assert.True(t, r.Until.IsAbsent())
	assert.Equal(t, []Weekday{{Day: time.Monday}}, r.ByDay)
	assert.Equal(t, []int{2}, r.BySetPos)
}

func TestParseRule_ListsAndScalars(t *testing.T) {
	single := ParseRule("RRULE:FREQ=MONTHLY;BYMONTHDAY=31").MustGet()
	assert.Equal(t, []int{31}, single.ByMonthDay)

	list := ParseRule("RRULE:FREQ=MONTHLY;BYMONTHDAY=15,1,15,-1").MustGet()
	assert.Equal(t, []int{-1, 1, 15}, list.ByMonthDay)

	days := ParseRule("RRULE:FREQ=WEEKLY;BYDAY=FR,MO,FR").MustGet()
	assert.Equal(t, []Weekday{{Day: time.Friday}, {Day: time.Monday}}, days.ByDay)

	nth := ParseRule("RRULE:FREQ=MONTHLY;BYDAY=-1FR,2MO").MustGet()
	assert.Equal(t, []Weekday{{Day: time.Friday, N: -1}, {Day: time.Monday, N: 2}}, nth.ByDay)
}

func TestParseRule_Fields(t *testing.T) {
	r := ParseRule("rrule:freq=daily;interval=3;count=5;until=20250601;byhour=9,18").MustGet()

	assert.Equal(t, Daily, r.Frequency)
	assert.Equal(t, 3, r.Interval)
	assert.Equal(t, 5, r.Count)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), r.Until.MustGet())
	assert.Equal(t, []int{9, 18}, r.ByHour)
}

func TestParseRule_UntilWithTimeSuffix(t *testing.T) {
	r := ParseRule("RRULE:FREQ=DAILY;UNTIL=20250601T235959Z").MustGet()
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), r.Until.MustGet())
}

func TestParseRule_Invalid(t *testing.T) {
	tests := []struct {
		name string
		rule string
		err  error
	}{
		{"missing prefix", "FREQ=DAILY", ErrMissingPrefix},
		{"empty", "", ErrMissingPrefix},
		{"unknown frequency", "RRULE:FREQ=BOGUS", ErrInvalidFrequency},
		{"missing frequency", "RRULE:INTERVAL=2", ErrInvalidFrequency},
		{"month 13", "RRULE:FREQ=DAILY;UNTIL=20251301", ErrInvalidUntil},
		{"day 32", "RRULE:FREQ=DAILY;UNTIL=20250132", ErrInvalidUntil},
		{"february 30", "RRULE:FREQ=DAILY;UNTIL=20250230", ErrInvalidUntil},
		{"short until", "RRULE:FREQ=DAILY;UNTIL=2025061", ErrInvalidUntil},
		{"zero interval", "RRULE:FREQ=DAILY;INTERVAL=0", ErrInvalidValue},
		{"non-numeric count", "RRULE:FREQ=DAILY;COUNT=abc", ErrInvalidValue},
		{"zero count", "RRULE:FREQ=DAILY;COUNT=0", ErrInvalidValue},
		{"bad weekday", "RRULE:FREQ=WEEKLY;BYDAY=XX", ErrInvalidValue},
		{"zero month day", "RRULE:FREQ=MONTHLY;BYMONTHDAY=0", ErrInvalidValue},
		{"month out of range", "RRULE:FREQ=YEARLY;BYMONTH=13", ErrInvalidValue},
		{"unknown property", "RRULE:FREQ=DAILY;FOO=1", ErrInvalidValue},
		{"part without value", "RRULE:FREQ=DAILY;COUNT", ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleErr(tt.rule)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
			assert.True(t, ParseRule(tt.rule).IsAbsent())
		})
	}
}

func TestRule_String(t *testing.T) {
	r := ParseRule("RRULE:UNTIL=20250601;FREQ=MONTHLY;BYMONTHDAY=-1").MustGet()
	assert.Equal(t, "RRULE:FREQ=MONTHLY;BYMONTHDAY=-1;UNTIL=20250601", r.String())

	again := ParseRule(r.String()).MustGet()
	assert.Equal(t, r.ByMonthDay, again.ByMonthDay)
	assert.Equal(t, r.Until, again.Until)
}

func TestWeekday_String(t *testing.T) {
	assert.Equal(t, "MO", Weekday{Day: time.Monday}.String())
	assert.Equal(t, "-1FR", Weekday{Day: time.Friday, N: -1}.String())
}

func TestWeekday_StringMatchesParser(t *testing.T) {
	for code, day := range weekdayCodes {
		t.Run(code, func(t *testing.T) {
			assert.Equal(t, code, Weekday{Day: day}.String())
			assert.Equal(t, "2"+code, Weekday{Day: day, N: 2}.String())
		})
	}
}
