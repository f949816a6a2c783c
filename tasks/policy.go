package tasks

import (
	"time"

	"github.com/samber/mo"
)

// ReferenceDate returns the date the next occurrence of t is computed from, or None when t has no due date.
//
// ModeCompletedAt uses the later of completion and due date, so finishing a task early
// never produces a backdated next instance. Every other mode uses the due date.
func ReferenceDate(t Task) mo.Option[time.Time] {
	if t.DueDate == nil {
		return mo.None[time.Time]()
	}
	due := *t.DueDate

	if t.RecurringMode == ModeCompletedAt && t.CompletedAt != nil && t.CompletedAt.After(due) {
		return mo.Some(*t.CompletedAt)
	}
	return mo.Some(due)
}
