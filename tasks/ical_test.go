package tasks

import (
	"bytes"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToComponent(t *testing.T) {
	task := Task{
		ID:            "t1",
		Title:         "Pay rent",
		DueDate:       ptr(date(2025, 1, 31)),
		Recurring:     "RRULE:FREQ=MONTHLY\nRRULE:FREQ=YEARLY;BYMONTH=6",
		RecurringMode: ModeCompletedAt,
	}

	comp := ToComponent(task)
	assert.Equal(t, ical.CompToDo, comp.Name)
	assert.Equal(t, "t1", propValue(comp.Props, ical.PropUID))
	assert.Equal(t, "20250131", propValue(comp.Props, ical.PropDue))
	assert.Equal(t, ical.ValueDate, comp.Props.Get(ical.PropDue).ValueType())
	assert.Equal(t, "completedAt", propValue(comp.Props, propRecurringMode))
	assert.Equal(t, statusNeedsAction, propValue(comp.Props, ical.PropStatus))

	rules := comp.Props[ical.PropRecurrenceRule]
	require.Len(t, rules, 2)
	assert.Equal(t, "FREQ=MONTHLY", rules[0].Value)
	assert.Equal(t, "FREQ=YEARLY;BYMONTH=6", rules[1].Value)
}

func TestToComponent_TimedDueIsFloating(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	task := Task{ID: "t1", DueDate: ptr(time.Date(2025, 3, 30, 9, 30, 0, 0, loc))}
	comp := ToComponent(task)
	assert.Equal(t, "20250330T093000", propValue(comp.Props, ical.PropDue))
}

func TestCalendarRoundTrip(t *testing.T) {
	completedAt := time.Date(2025, 1, 9, 17, 0, 0, 0, time.UTC)
	in := []Task{
		{
			ID:            "parent",
			Title:         "Weekly review",
			Notes:         "inbox, calendar",
			DueDate:       ptr(time.Date(2025, 1, 10, 16, 0, 0, 0, time.UTC)),
			Recurring:     "RRULE:FREQ=WEEKLY;BYDAY=FR;BYHOUR=16",
			RecurringMode: ModeCompletedAt,
			Completed:     true,
			CompletedAt:   &completedAt,
			Subtasks: []Subtask{
				{ID: "child-1", Title: "Inbox zero", Completed: true},
				{ID: "child-2", Title: "Plan next week"},
			},
		},
		{ID: "plain", Title: "Buy milk", DueDate: ptr(date(2025, 1, 11))},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeCalendar(&buf, in))
	assert.Contains(t, buf.String(), "PRODID:-//librecur//Recurring Tasks//EN")

	out, err := DecodeCalendar(strings.NewReader(buf.String()), time.UTC)
	require.NoError(t, err)
	require.Len(t, out, 2)

	got := out[0]
	assert.Equal(t, "parent", got.ID)
	assert.Equal(t, "Weekly review", got.Title)
	assert.Equal(t, "inbox, calendar", got.Notes)
	require.NotNil(t, got.DueDate)
	assert.True(t, in[0].DueDate.Equal(*got.DueDate))
	assert.Equal(t, in[0].Recurring, got.Recurring)
	assert.Equal(t, ModeCompletedAt, got.RecurringMode)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, completedAt.Equal(*got.CompletedAt))
	assert.Equal(t, []Subtask{
		{ID: "child-1", Title: "Inbox zero", Completed: true},
		{ID: "child-2", Title: "Plan next week"},
	}, got.Subtasks)

	plain := out[1]
	assert.Equal(t, "plain", plain.ID)
	assert.True(t, date(2025, 1, 11).Equal(*plain.DueDate))
	assert.False(t, plain.IsRecurring())
	assert.False(t, plain.Completed)
	assert.Empty(t, plain.Subtasks)
}

func TestFromComponent_Defaults(t *testing.T) {
	comp := ical.NewComponent(ical.CompToDo)
	comp.Props.SetText(ical.PropSummary, "No uid")
	prop := ical.NewProp(ical.PropRecurrenceRule)
	prop.Value = "FREQ=DAILY"
	comp.Props.Set(prop)
	comp.Props.SetText(propRecurringMode, "sometimes")

	task, err := FromComponent(comp, time.UTC)
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "RRULE:FREQ=DAILY", task.Recurring)
	assert.Equal(t, ModeDueDate, task.RecurringMode)
	assert.Nil(t, task.DueDate)

	_, err = FromComponent(ical.NewComponent(ical.CompEvent), time.UTC)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
