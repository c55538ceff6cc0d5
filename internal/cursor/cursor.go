// Package cursor implements the single-track realtime VM: a fetch/execute
// loop over an internal/track.EventTrack, advancing a clock and an
// instruction pointer one step at a time and yielding the MIDI messages it
// encounters along the way.
//
// Grounded on the teacher's internal/cpu.CPU: a small mutable state struct
// (here: ip, clock, bpm, residual jump counters) driven by a step function
// that never allocates on the hot path, with a MemoryInterface-shaped seam
// (here: track.EventTrack) standing between the VM and its program.
package cursor

import (
	"fmt"
	"time"

	"github.com/ischeinkman/seqcore/internal/track"
	"github.com/ischeinkman/seqcore/internal/wait"
)

// BadInstrPointerError reports the cursor's instruction pointer falling
// outside the track.
type BadInstrPointerError struct {
	IP int
}

func (e BadInstrPointerError) Error() string {
	return fmt.Sprintf("cursor: instruction pointer %d out of range", e.IP)
}

// BadJumpTargetError reports a Jump instruction targeting an index outside
// the track.
type BadJumpTargetError struct {
	From, Target int
}

func (e BadJumpTargetError) Error() string {
	return fmt.Sprintf("cursor: jump at %d targets out-of-range index %d", e.From, e.Target)
}

// JumpIdxNotFoundError reports a finite Jump instruction whose residual
// counter was never registered in jump_counts — a compiler invariant
// violation (every counted jump must appear in track.FiniteJumps()).
type JumpIdxNotFoundError struct {
	IP int
}

func (e JumpIdxNotFoundError) Error() string {
	return fmt.Sprintf("cursor: no residual counter registered for finite jump at %d", e.IP)
}

// StepKind discriminates what a single Step call produced.
type StepKind uint8

const (
	// StepEnded means the cursor reached its track's End instruction and
	// advanced no further; the cursor is now inert until Reset.
	StepEnded StepKind = iota
	// StepContinue means a non-message instruction executed (Wait, SetBpm,
	// or a taken Jump) and the caller should call Step again.
	StepContinue
	// StepMessage means a SendMessage instruction executed; Message and
	// Port on the StepOutput are valid.
	StepMessage
)

// StepOutput reports the result of a single cursor Step.
type StepOutput struct {
	Kind    StepKind
	Message track.TrackEvent // Op == OpSendMessage when Kind == StepMessage
	At      time.Duration    // cursor clock time at which this step occurred
}

// Cursor steps a single compiled track, tracking elapsed clock time, elapsed
// tick count, and the bpm in effect, and the residual repeat counters of
// every finite jump.
type Cursor struct {
	tr  track.EventTrack
	ip  int
	bpm wait.BpmInfo

	clock time.Duration
	ticks uint32

	// counts holds the remaining repeat count of every finite jump,
	// indexed by the jump's instruction index, initialized fresh on every
	// Reset from the track's FiniteJumps() so a restarted cursor always
	// starts a loop's repeat count from scratch.
	counts map[int]uint16

	initialBpm wait.BpmInfo
}

// New builds a cursor over tr starting at instruction 0, with initialBpm in
// effect until the track's first SetBpm instruction (if any) overrides it.
func New(tr track.EventTrack, initialBpm wait.BpmInfo) *Cursor {
	c := &Cursor{tr: tr, initialBpm: initialBpm}
	c.Reset()
	return c
}

// Reset rewinds the cursor to instruction 0, clock zero, tick count zero,
// the original initial bpm, and fresh residual jump counters.
func (c *Cursor) Reset() {
	c.ip = 0
	c.bpm = c.initialBpm
	c.clock = 0
	c.ticks = 0
	c.counts = make(map[int]uint16, len(c.tr.FiniteJumps()))
	for _, fj := range c.tr.FiniteJumps() {
		c.counts[fj.Index] = fj.Count
	}
}

// ClockTime returns the cursor's current elapsed clock time.
func (c *Cursor) ClockTime() time.Duration { return c.clock }

// TickCount returns the cursor's current elapsed tick count.
func (c *Cursor) TickCount() uint32 { return c.ticks }

// Bpm returns the bpm currently in effect.
func (c *Cursor) Bpm() wait.BpmInfo { return c.bpm }

// Ended reports whether the cursor has run off the end of its track.
func (c *Cursor) Ended() bool {
	evt, ok := c.tr.Get(c.ip)
	return !ok || evt.Op == track.OpEnd
}

// Step executes exactly one instruction, advancing the cursor's internal
// state, and reports what happened. Calling Step again after StepEnded is a
// no-op that keeps returning StepEnded.
func (c *Cursor) Step() (StepOutput, error) {
	evt, ok := c.tr.Get(c.ip)
	if !ok {
		return StepOutput{}, BadInstrPointerError{IP: c.ip}
	}
	switch evt.Op {
	case track.OpEnd:
		return StepOutput{Kind: StepEnded, At: c.clock}, nil
	case track.OpSendMessage:
		c.ip++
		return StepOutput{Kind: StepMessage, Message: evt, At: c.clock}, nil
	case track.OpWait:
		c.clock += evt.Wait.AsDuration(c.bpm)
		c.ticks += evt.Wait.AsTicks(c.bpm)
		c.ip++
		return StepOutput{Kind: StepContinue, At: c.clock}, nil
	case track.OpSetBpm:
		c.bpm = evt.Bpm
		c.ip++
		return StepOutput{Kind: StepContinue, At: c.clock}, nil
	case track.OpJump:
		return c.stepJump(evt)
	default:
		return StepOutput{}, fmt.Errorf("cursor: unknown opcode %d at %d", evt.Op, c.ip)
	}
}

func (c *Cursor) stepJump(evt track.TrackEvent) (StepOutput, error) {
	taken := true
	if evt.Count != nil {
		remaining, ok := c.counts[c.ip]
		if !ok {
			return StepOutput{}, JumpIdxNotFoundError{IP: c.ip}
		}
		if remaining == 0 {
			// Reset epoch: this jump falls through once, then is ready to
			// repeat its count from scratch the next time it's reached
			// (e.g. re-entered from an enclosing loop).
			taken = false
			c.counts[c.ip] = *evt.Count
		} else {
			remaining--
			c.counts[c.ip] = remaining
		}
	}
	if !taken {
		c.ip++
		return StepOutput{Kind: StepContinue, At: c.clock}, nil
	}
	if _, ok := c.tr.Get(evt.Target); !ok {
		return StepOutput{}, BadJumpTargetError{From: c.ip, Target: evt.Target}
	}
	c.ip = evt.Target
	return StepOutput{Kind: StepContinue, At: c.clock}, nil
}

// StepUntil repeatedly steps the cursor, invoking emit for every
// StepMessage result, until the cursor's clock would reach or exceed
// deadline or the cursor ends — whichever comes first. It returns true if
// the cursor ended during this call.
func (c *Cursor) StepUntil(deadline time.Duration, emit func(StepOutput)) (bool, error) {
	for {
		if c.Ended() {
			return true, nil
		}
		evt, ok := c.tr.Get(c.ip)
		if !ok {
			return false, BadInstrPointerError{IP: c.ip}
		}
		if evt.Op == track.OpWait && c.clock+evt.Wait.AsDuration(c.bpm) >= deadline {
			return false, nil
		}
		out, err := c.Step()
		if err != nil {
			return false, err
		}
		switch out.Kind {
		case StepEnded:
			return true, nil
		case StepMessage:
			emit(out)
		}
	}
}
