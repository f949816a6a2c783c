package tasks

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const (
	propRecurringMode = "X-RECURRING-MODE"

	statusCompleted   = "COMPLETED"
	statusNeedsAction = "NEEDS-ACTION"

	dateFormat         = "20060102"
	floatingTimeFormat = "20060102T150405"
)

// ToComponent converts a task into a VTODO. DUE is written as a floating value: a DATE for
// midnight, a DATE-TIME without zone otherwise, so clients do not shift it across time zones.
// Subtasks are not included; see SubtaskComponents.
func ToComponent(t Task) *ical.Component {
	comp := ical.NewComponent(ical.CompToDo)
	comp.Props.SetText(ical.PropUID, t.ID)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	if t.Title != "" {
		comp.Props.SetText(ical.PropSummary, t.Title)
	}
	if t.Notes != "" {
		comp.Props.SetText(ical.PropDescription, t.Notes)
	}
	if !t.CreatedAt.IsZero() {
		comp.Props.SetDateTime(ical.PropCreated, t.CreatedAt.UTC())
	}
	if t.DueDate != nil {
		setFloating(comp.Props, ical.PropDue, *t.DueDate)
	}

	for _, line := range recurrence.SplitSpec(t.Recurring) {
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = strings.TrimPrefix(line, "RRULE:")
		comp.Props[ical.PropRecurrenceRule] = append(comp.Props[ical.PropRecurrenceRule], *prop)
	}
	if t.IsRecurring() {
		comp.Props.SetText(propRecurringMode, string(t.RecurringMode))
	}

	setStatus(comp.Props, t.Completed, t.CompletedAt)
	return comp
}

// SubtaskComponents converts the subtasks of t into VTODOs related to t's UID
func SubtaskComponents(t Task) []*ical.Component {
	comps := make([]*ical.Component, 0, len(t.Subtasks))
	for i, s := range t.Subtasks {
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", t.ID, i)
		}
		comp := ical.NewComponent(ical.CompToDo)
		comp.Props.SetText(ical.PropUID, id)
		comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
		comp.Props.SetText(ical.PropSummary, s.Title)
		comp.Props.SetText(ical.PropRelatedTo, t.ID)
		setStatus(comp.Props, s.Completed, nil)
		comps = append(comps, comp)
	}
	return comps
}

// FromComponent converts a VTODO into a task. Floating and DATE values are read in loc;
// values with a zone are converted to loc's wall clock.
func FromComponent(comp *ical.Component, loc *time.Location) (Task, error) {
	if comp.Name != ical.CompToDo {
		return Task{}, fmt.Errorf("expected %s, got %s: %w", ical.CompToDo, comp.Name, ErrInvalidInput)
	}
	if loc == nil {
		loc = time.Local
	}

	t := Task{ID: propValue(comp.Props, ical.PropUID)}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	var err error
	if t.Title, err = comp.Props.Text(ical.PropSummary); err != nil {
		return Task{}, fmt.Errorf("failed to read SUMMARY of %s: %w", t.ID, err)
	}
	if t.Notes, err = comp.Props.Text(ical.PropDescription); err != nil {
		return Task{}, fmt.Errorf("failed to read DESCRIPTION of %s: %w", t.ID, err)
	}

	if due, err := comp.Props.DateTime(ical.PropDue, loc); err != nil {
		return Task{}, fmt.Errorf("failed to read DUE of %s: %w", t.ID, err)
	} else if !due.IsZero() {
		due = due.In(loc)
		t.DueDate = &due
	}
	if created, err := comp.Props.DateTime(ical.PropCreated, loc); err == nil && !created.IsZero() {
		t.CreatedAt = created.In(loc)
	}

	var lines []string
	for _, prop := range comp.Props[ical.PropRecurrenceRule] {
		if prop.Value != "" {
			lines = append(lines, "RRULE:"+prop.Value)
		}
	}
	t.Recurring = strings.Join(lines, "\n")
	if t.IsRecurring() {
		t.RecurringMode = ParseRecurringMode(propValue(comp.Props, propRecurringMode))
	}

	t.Completed = strings.EqualFold(propValue(comp.Props, ical.PropStatus), statusCompleted)
	if completed, err := comp.Props.DateTime(ical.PropCompleted, loc); err == nil && !completed.IsZero() {
		completed = completed.In(loc)
		t.CompletedAt = &completed
		t.Completed = true
	}

	return t, nil
}

// EncodeCalendar writes tasks, with their subtasks, as one VCALENDAR
func EncodeCalendar(w io.Writer, tasks []Task) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//librecur//Recurring Tasks//EN")

	for _, t := range tasks {
		cal.Children = append(cal.Children, ToComponent(t))
		cal.Children = append(cal.Children, SubtaskComponents(t)...)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// DecodeCalendar reads every VTODO of a VCALENDAR. A VTODO whose RELATED-TO names another
// VTODO of the same calendar becomes a subtask of it.
func DecodeCalendar(r io.Reader, loc *time.Location) ([]Task, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	var (
		all     []Task
		parents []string
		index   = make(map[string]int)
	)
	for _, comp := range cal.Children {
		if comp.Name != ical.CompToDo {
			continue
		}
		t, err := FromComponent(comp, loc)
		if err != nil {
			return nil, err
		}
		index[t.ID] = len(all)
		all = append(all, t)
		parents = append(parents, propValue(comp.Props, ical.PropRelatedTo))
	}

	var out []Task
	children := make(map[int][]Subtask)
	for i, t := range all {
		if p, ok := index[parents[i]]; ok && parents[i] != t.ID {
			children[p] = append(children[p], Subtask{ID: t.ID, Title: t.Title, Completed: t.Completed})
		}
	}
	for i, t := range all {
		if _, ok := index[parents[i]]; ok && parents[i] != t.ID {
			continue
		}
		t.Subtasks = children[i]
		out = append(out, t)
	}
	return out, nil
}

func setFloating(props ical.Props, name string, t time.Time) {
	prop := ical.NewProp(name)
	if h, m, s := t.Clock(); h == 0 && m == 0 && s == 0 {
		prop.SetValueType(ical.ValueDate)
		prop.Value = t.Format(dateFormat)
	} else {
		prop.Value = t.Format(floatingTimeFormat)
	}
	props.Set(prop)
}

func setStatus(props ical.Props, completed bool, at *time.Time) {
	if !completed {
		props.SetText(ical.PropStatus, statusNeedsAction)
		return
	}
	props.SetText(ical.PropStatus, statusCompleted)
	if at != nil {
		props.SetDateTime(ical.PropCompleted, at.UTC())
	}
}

func propValue(props ical.Props, name string) string {
	if prop := props.Get(name); prop != nil {
		return prop.Value
	}
	return ""
}
