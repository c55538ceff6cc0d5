// Package multicursor fans multiple single-track cursors into one
// timeline: every host cycle, each cursor is independently stepped up to
// the same deadline, and their emitted messages are reported back
// track-major (all of one cursor's messages before the next cursor's)
// rather than interleaved by timestamp, matching the documented "no
// cross-track ordering guarantee" behavior.
//
// Grounded on the teacher's internal/clock.MasterClock, which coordinates
// CPU/PPU/APU against one shared cycle budget the same way this type
// coordinates N independent track cursors against one shared deadline.
package multicursor

import (
	"sort"
	"time"

	"github.com/ischeinkman/seqcore/internal/cursor"
	"github.com/ischeinkman/seqcore/internal/track"
)

// Emitted is one MIDI message produced by stepping a track during a cycle,
// attributed to its originating track index and the cursor-local clock
// time it occurred at.
type Emitted struct {
	TrackIndex int
	Port       track.OutputPort
	Message    track.TrackEvent // Op == OpSendMessage
	At         time.Duration
}

// MultiCursor drives N independent track cursors against one shared
// deadline per cycle.
type MultiCursor struct {
	cursors []*cursor.Cursor
	ended   []bool

	// SortWithinCycle opts into sorting a cycle's emitted messages by
	// their cursor-local clock time across tracks. Off by default: this
	// design does not guarantee cross-track ordering (open question 3),
	// and stable track-major order is cheaper and sufficient for hosts
	// that don't care.
	SortWithinCycle bool
}

// New builds a MultiCursor driving the given cursors, in the order given.
func New(cursors []*cursor.Cursor) *MultiCursor {
	return &MultiCursor{cursors: cursors, ended: make([]bool, len(cursors))}
}

// Cursors returns the underlying per-track cursors, in track index order.
func (m *MultiCursor) Cursors() []*cursor.Cursor { return m.cursors }

// Reset rewinds every cursor and clears every track's ended flag.
func (m *MultiCursor) Reset() {
	for i, c := range m.cursors {
		c.Reset()
		m.ended[i] = false
	}
}

// AllEnded reports whether every track has reached its End instruction.
func (m *MultiCursor) AllEnded() bool {
	for _, done := range m.ended {
		if !done {
			return false
		}
	}
	return true
}

// CurClock returns the maximum clock time across all cursors; at steady
// state every track has been stepped to the same deadline and these agree.
func (m *MultiCursor) CurClock() time.Duration {
	var max time.Duration
	for _, c := range m.cursors {
		if t := c.ClockTime(); t > max {
			max = t
		}
	}
	return max
}

// StepUntil steps every not-yet-ended track up to deadline, in track index
// order, appending every message it emits to buf (pass a reused buf[:0] on
// the realtime path to avoid allocating per cycle) and returning the
// extended slice, track-major (or, if SortWithinCycle is set, sorted by At
// across tracks with ties broken by track index).
func (m *MultiCursor) StepUntil(deadline time.Duration, buf []Emitted) ([]Emitted, error) {
	out := buf
	for i, c := range m.cursors {
		if m.ended[i] {
			continue
		}
		idx := i
		ended, err := c.StepUntil(deadline, func(step cursorStep) {
			out = append(out, Emitted{
				TrackIndex: idx,
				Port:       step.Message.Port,
				Message:    step.Message,
				At:         step.At,
			})
		})
		if err != nil {
			return nil, err
		}
		if ended {
			m.ended[i] = true
		}
	}
	if m.SortWithinCycle {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].At != out[j].At {
				return out[i].At < out[j].At
			}
			return out[i].TrackIndex < out[j].TrackIndex
		})
	}
	return out, nil
}

// cursorStep is a type alias so this file doesn't need to name
// cursor.StepOutput twice in the callback signature above.
type cursorStep = cursor.StepOutput
