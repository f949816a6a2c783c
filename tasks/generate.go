package tasks

import (
	"io"
	"log/slog"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Generator produces the next instance of a completed recurring task
type Generator struct {
	engine *recurrence.Engine
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// GeneratorOption represents a configuration option for the Generator
type GeneratorOption func(*Generator)

// WithEngine sets the recurrence engine, e.g. one with a cache
func WithEngine(engine *recurrence.Engine) GeneratorOption {
	return func(g *Generator) {
		if engine != nil {
			g.engine = engine
		}
	}
}

// WithClock sets the source of creation timestamps
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithIDGenerator sets the source of instance identities
func WithIDGenerator(newID func() string) GeneratorOption {
	return func(g *Generator) {
		if newID != nil {
			g.newID = newID
		}
	}
}

// WithGeneratorLogger sets the logger for the generator
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator creates a Generator backed by an uncached engine, the wall clock and random UUIDs
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		engine: recurrence.NewEngine(),
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateNextInstance is Generator.GenerateNextInstance with default options
func GenerateNextInstance(completed Task) mo.Option[Task] {
	return NewGenerator().GenerateNextInstance(completed)
}

// GenerateNextInstance returns the task that follows completed, or None when the task
// does not recur, has no due date, or its recurrence is exhausted.
//
// A line whose COUNT is 1 is on its last occurrence and takes no part. When the winning
// line has a COUNT it is decremented in the new instance's spec; other lines are kept verbatim.
func (g *Generator) GenerateNextInstance(completed Task) mo.Option[Task] {
	if !completed.IsRecurring() {
		return mo.None[Task]()
	}
	reference, ok := ReferenceDate(completed).Get()
	if !ok {
		g.logger.Debug("recurring task has no due date", "task", completed.ID)
		return mo.None[Task]()
	}

	notLast := func(r recurrence.Rule) bool { return r.Count == 0 || r.Count > 1 }
	occ, ok := g.engine.NextWithLine(completed.Recurring, reference, false, notLast).Get()
	if !ok {
		g.logger.Debug("recurrence exhausted",
			"task", completed.ID,
			"recurring", completed.Recurring,
			"reference", reference)
		return mo.None[Task]()
	}

	spec := completed.Recurring
	if occ.Rule.Count > 1 {
		spec = recurrence.WithCount(spec, occ.Line, occ.Rule.Count-1)
	}

	next := completed.Clone()
	next.ID = g.newID()
	next.DueDate = &occ.At
	next.Recurring = spec
	next.Completed = false
	next.CompletedAt = nil
	next.CreatedAt = g.now()
	for i := range next.Subtasks {
		next.Subtasks[i].Completed = false
	}

	g.logger.Info("generated next task instance",
		"task", completed.ID,
		"next", next.ID,
		"due", occ.At)

	return mo.Some(next)
}
