package recurrence

import (
	"strconv"
	"time"
)

// Frequency is the FREQ part of a recurrence rule
type Frequency string

const (
	Yearly   Frequency = "YEARLY"
	Monthly  Frequency = "MONTHLY"
	Weekly   Frequency = "WEEKLY"
	Daily    Frequency = "DAILY"
	Hourly   Frequency = "HOURLY"
	Minutely Frequency = "MINUTELY"
	Secondly Frequency = "SECONDLY"
)

// Valid reports whether f is one of the seven RFC 5545 frequencies
func (f Frequency) Valid() bool {
	switch f {
	case Yearly, Monthly, Weekly, Daily, Hourly, Minutely, Secondly:
		return true
	}
	return false
}

// SubDaily reports whether occurrences of f are finer than one calendar day
func (f Frequency) SubDaily() bool {
	return f == Hourly || f == Minutely || f == Secondly
}

// Weekday is a BYDAY entry. N is the optional ordinal prefix ("2MO", "-1FR"); zero means every.
type Weekday struct {
	Day time.Weekday
	N   int
}

var weekdayCodes = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

// weekdayNames is indexed by time.Weekday
var weekdayNames = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// String returns the iCalendar form of the weekday, e.g. "MO" or "-1FR"
func (w Weekday) String() string {
	code := weekdayNames[w.Day]
	if w.N == 0 {
		return code
	}
	return strconv.Itoa(w.N) + code
}

// Occurrence is the winning line of a (possibly multi-line) recurrence spec
type Occurrence struct {
	At   time.Time // Normalized occurrence, in the location of the reference date
	Line int       // Index of the winning line in SplitSpec(spec)
	Rule Rule      // Parsed winning line
}
