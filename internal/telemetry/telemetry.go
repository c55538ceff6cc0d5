// Package telemetry is a small leveled, component-gated logger meant to be
// called from the realtime path: the enable check is lock-free, and every
// enabled call appends a pre-formatted line to a fixed-capacity ring buffer
// under a briefly held mutex; the ring never grows, it simply overwrites
// its oldest entry once full.
//
// Grounded directly on the teacher's internal/debug.Logger/CycleLogger: a
// bounded ring of entries gated per component, drained by a separate
// (non-realtime) consumer.
package telemetry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Level discriminates log severities.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "?"
	}
}

// Component names the subsystem a log entry came from, gated independently
// so e.g. the compiler can be quiet while the driver is verbose.
type Component string

const (
	ComponentCompiler Component = "compiler"
	ComponentCursor   Component = "cursor"
	ComponentDriver   Component = "driver"
	ComponentHost     Component = "host"
	ComponentControl  Component = "control"
)

// Entry is one ring-buffer slot.
type Entry struct {
	At        time.Time
	Level     Level
	Component Component
	Message   string
}

// Logger is a fixed-capacity ring buffer of Entry, gated per Component.
type Logger struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	filled  bool

	// enabled maps a Component to a *atomic.Bool gate, so the realtime
	// path's Enabled() check (the one call site that can fire from inside
	// the driver's per-cycle Fill, on its rare restart/backlog branches)
	// never takes a lock — only SetComponentEnabled, called from
	// non-realtime setup code, ever populates this map.
	enabled sync.Map // Component -> *atomic.Bool
}

// New builds a Logger with the given ring capacity. A capacity of 0 is
// treated as 1 to keep the ring well-defined.
func New(capacity int) *Logger {
	if capacity < 1 {
		capacity = 1
	}
	return &Logger{
		entries: make([]Entry, capacity),
	}
}

// SetComponentEnabled gates whether a component's log calls are recorded.
// All components are disabled until enabled explicitly, matching the
// teacher's opt-in -log flag plumbing.
func (l *Logger) SetComponentEnabled(c Component, enabled bool) {
	l.flagFor(c).Store(enabled)
}

// Enabled reports whether a component is currently gated on. Lock-free: it
// only ever reads an *atomic.Bool out of a sync.Map, so it is safe to call
// from the realtime path (§5).
func (l *Logger) Enabled(c Component) bool {
	v, ok := l.enabled.Load(c)
	if !ok {
		return false
	}
	return v.(*atomic.Bool).Load()
}

// flagFor returns the atomic gate for c, creating one the first time c is
// seen.
func (l *Logger) flagFor(c Component) *atomic.Bool {
	if v, ok := l.enabled.Load(c); ok {
		return v.(*atomic.Bool)
	}
	flag := new(atomic.Bool)
	actual, _ := l.enabled.LoadOrStore(c, flag)
	return actual.(*atomic.Bool)
}

// Logf appends a formatted entry if component is enabled. Safe to call from
// the realtime path: the enabled check is the lock-free Enabled() read, and
// an actual append only ever happens on the rare branches that call Logf at
// all (a steady-state cycle never does) — callers on a true
// no-allocation hot path should check Enabled first and skip the call (and
// its Sprintf argument evaluation) entirely when disabled.
func (l *Logger) Logf(level Level, component Component, format string, args ...any) {
	if !l.Enabled(component) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = Entry{
		At:        time.Now(),
		Level:     level,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	}
	l.next++
	if l.next == len(l.entries) {
		l.next = 0
		l.filled = true
	}
}

// Drain returns every recorded entry in chronological order and clears the
// ring. Intended for a non-realtime consumer (the control thread, a UI
// panel) polling periodically.
func (l *Logger) Drain() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	if l.filled {
		out = append(out, l.entries[l.next:]...)
	}
	out = append(out, l.entries[:l.next]...)
	l.next = 0
	l.filled = false
	for i := range l.entries {
		l.entries[i] = Entry{}
	}
	return out
}
