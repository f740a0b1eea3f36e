// Package steplog records one audit entry per recursor step. It is a pure
// observational sink: nothing in the engine reads it back to make decisions.
package steplog

import (
	"context"
	"log/slog"
	"time"

	"refengine/internal/state"
)

// Record is a single logged step.
type Record struct {
	Depth     int         `json:"depth"`
	State     state.State `json:"state"`
	Timestamp time.Time   `json:"timestamp"`
}

// Emitter receives each record as it is logged.
type Emitter interface {
	Emit(Record)
}

// Logger keeps the ordered in-memory log and optionally forwards records to a
// slog.Logger and an Emitter. Not safe for concurrent use.
type Logger struct {
	records []Record
	slog    *slog.Logger
	emitter Emitter
	now     func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithSlog emits every record at debug level on l.
func WithSlog(l *slog.Logger) Option {
	return func(lg *Logger) { lg.slog = l }
}

// WithEmitter forwards every record to e.
func WithEmitter(e Emitter) Option {
	return func(lg *Logger) { lg.emitter = e }
}

// New returns an empty Logger.
func New(opts ...Option) *Logger {
	lg := &Logger{now: time.Now}
	for _, opt := range opts {
		opt(lg)
	}
	return lg
}

// LogState appends a {depth, state} record.
func (l *Logger) LogState(depth int, s state.State) {
	rec := Record{Depth: depth, State: s.Clone(), Timestamp: l.now()}
	l.records = append(l.records, rec)

	if l.slog != nil {
		l.slog.LogAttrs(context.Background(), slog.LevelDebug, "step",
			slog.Int("depth", depth),
			slog.String("state", state.Canonical(s)),
		)
	}
	if l.emitter != nil {
		l.emitter.Emit(Record{Depth: rec.Depth, State: rec.State.Clone(), Timestamp: rec.Timestamp})
	}
}

// Records returns a copy of the log, oldest first.
func (l *Logger) Records() []Record {
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = Record{Depth: r.Depth, State: r.State.Clone(), Timestamp: r.Timestamp}
	}
	return out
}

// Len returns the number of records.
func (l *Logger) Len() int { return len(l.records) }

// ChanEmitter emits records to a channel for a live view to consume.
type ChanEmitter struct {
	Ch chan<- Record
}

// Emit sends the record to the channel (non-blocking; drops if full).
func (e *ChanEmitter) Emit(r Record) {
	select {
	case e.Ch <- r:
	default:
		// Channel full; drop rather than stall the engine
	}
}
