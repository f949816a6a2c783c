package recurrence

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// Engine computes occurrences of recurrence specs. It holds no per-call state; the
// optional cache is safe for concurrent use, so one Engine can serve any number of goroutines.
type Engine struct {
	config EngineConfig
	cache  *RecurrenceCache
	logger *slog.Logger
}

// Option represents a configuration option for the Engine
type Option func(*Engine)

// WithLogger sets the logger for the engine
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a new recurrence engine instance with DefaultEngineConfig
func NewEngine(opts ...Option) *Engine {
	return NewEngineWithConfig(DefaultEngineConfig, opts...)
}

// Close releases the cache goroutine, if any
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// CacheStats reports cache usage; zero when caching is disabled
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var defaultEngine = NewEngine()

// NextOccurrence evaluates spec with a default, uncached engine. See Engine.NextOccurrence.
func NextOccurrence(spec string, from time.Time, includeFrom bool) mo.Option[time.Time] {
	return defaultEngine.NextOccurrence(spec, from, includeFrom)
}

// Matches checks date against spec with a default, uncached engine. See Engine.Matches.
func Matches(date time.Time, spec string, reference time.Time) bool {
	return defaultEngine.Matches(date, spec, reference)
}

// NextRuleOccurrence returns the next occurrence of a single rule line strictly after from,
// or on from when includeFrom is set and from is itself an occurrence.
// Malformed or exhausted rules yield None.
func (e *Engine) NextRuleOccurrence(ruleString string, from time.Time, includeFrom bool) mo.Option[time.Time] {
	r, err := ParseRuleErr(ruleString)
	if err != nil {
		e.logger.Debug("rejecting recurrence rule", "rule", ruleString, "error", err)
		return mo.None[time.Time]()
	}

	anchor := floating(from)
	raw, ok := e.evaluate(r, anchor, anchor, includeFrom).Get()
	if !ok {
		e.logger.Debug("recurrence exhausted", "rule", ruleString, "from", from)
		return mo.None[time.Time]()
	}
	return mo.Some(r.finalize(raw, from.Location()))
}

// evaluate returns the raw floating occurrence of r in the series anchored at anchor
// that comes first after cursor (or at cursor when inc is set).
func (e *Engine) evaluate(r Rule, anchor, cursor time.Time, inc bool) mo.Option[time.Time] {
	if selectDays, ok := monthlyFastPath(r, anchor); ok {
		return scanMonths(r, anchor, cursor, inc, selectDays, e.config.MaxMonthSteps)
	}
	return e.generic(r, anchor, cursor, inc)
}

// generic delegates to rrule-go. UNTIL is applied by hand as the end of its calendar day,
// since the library would read a bare date as midnight.
func (e *Engine) generic(r Rule, anchor, cursor time.Time, inc bool) mo.Option[time.Time] {
	opt, err := rrule.StrToROptionInLocation(strings.Join(r.parts, ";"), time.UTC)
	if err != nil {
		e.logger.Debug("generic evaluator rejected rule", "rule", r.String(), "error", err)
		return mo.None[time.Time]()
	}
	opt.Dtstart = anchor
	if until, ok := r.Until.Get(); ok {
		opt.Until = endOfDay(until)
	}

	rr, err := rrule.NewRRule(*opt)
	if err != nil {
		e.logger.Debug("generic evaluator rejected rule", "rule", r.String(), "error", err)
		return mo.None[time.Time]()
	}

	next := rr.After(cursor, inc)
	if next.IsZero() || r.pastUntil(next) {
		return mo.None[time.Time]()
	}
	return mo.Some(floating(next))
}
