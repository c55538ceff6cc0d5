// Package wait implements the wait-time algebra: a tagged duration that can
// be expressed in clock time, beats or ticks, plus the BpmInfo needed to
// convert between the three. Conversion here is the single source of truth;
// cursors never compute elapsed time another way.
package wait

import "time"

// Kind discriminates the WaitTime variants.
type Kind uint8

const (
	KindClock Kind = iota
	KindBeats
	KindTicks
)

// WaitTime is a wait period expressed as clock duration, a beat count, or a
// tick count. Beats and Ticks values are always >= 1.
type WaitTime struct {
	kind  Kind
	clock time.Duration
	n     uint32 // beats or ticks count, >= 1
}

// Clock builds a WaitTime measured in wall-clock duration.
func Clock(d time.Duration) WaitTime {
	return WaitTime{kind: KindClock, clock: d}
}

// Beats builds a WaitTime measured in beats. n is clamped to >= 1.
func Beats(n uint32) WaitTime {
	if n == 0 {
		n = 1
	}
	return WaitTime{kind: KindBeats, n: n}
}

// Ticks builds a WaitTime measured in ticks. n is clamped to >= 1.
func Ticks(n uint32) WaitTime {
	if n == 0 {
		n = 1
	}
	return WaitTime{kind: KindTicks, n: n}
}

func (w WaitTime) Kind() Kind          { return w.kind }
func (w WaitTime) ClockValue() time.Duration { return w.clock }
func (w WaitTime) Count() uint32       { return w.n }

// clampTicks saturates a raw tick count into [1, 65535], the resolution the
// VM's jump/wait counters are built around.
func clampTicks(raw int64) uint32 {
	if raw > 65535 {
		return 65535
	}
	if raw < 1 {
		return 1
	}
	return uint32(raw)
}

// AsDuration converts the wait period to wall-clock duration given bpm.
func (w WaitTime) AsDuration(bpm BpmInfo) time.Duration {
	switch w.kind {
	case KindClock:
		return w.clock
	case KindBeats:
		ticks := int64(bpm.TicksPerBeat()) * int64(w.n)
		return time.Duration(bpm.NanosPerTick() * ticks)
	default: // KindTicks
		return time.Duration(bpm.NanosPerTick() * int64(w.n))
	}
}

// AsTicks converts the wait period to a tick count given bpm, clamped to
// [1, 65535].
func (w WaitTime) AsTicks(bpm BpmInfo) uint32 {
	switch w.kind {
	case KindTicks:
		return clampTicks(int64(w.n))
	case KindBeats:
		return clampTicks(int64(bpm.TicksPerBeat()) * int64(w.n))
	default: // KindClock
		nanosPerTick := bpm.NanosPerTick()
		if nanosPerTick == 0 {
			return 65535
		}
		return clampTicks(w.clock.Nanoseconds() / nanosPerTick)
	}
}

const nanosPerMinute = int64(60) * 1_000_000_000

// BpmInfo carries beats-per-minute and ticks-per-beat timing info. Both
// fields are always >= 1.
type BpmInfo struct {
	beatsPerMinute uint16
	ticksPerBeat   uint16
}

// DefaultBpmInfo is 120 BPM at 32 ticks per beat.
func DefaultBpmInfo() BpmInfo {
	return BpmInfo{beatsPerMinute: 120, ticksPerBeat: 32}
}

// NewBpmInfo builds a BpmInfo, clamping both fields to >= 1.
func NewBpmInfo(beatsPerMinute, ticksPerBeat uint16) BpmInfo {
	if beatsPerMinute == 0 {
		beatsPerMinute = 1
	}
	if ticksPerBeat == 0 {
		ticksPerBeat = 1
	}
	return BpmInfo{beatsPerMinute: beatsPerMinute, ticksPerBeat: ticksPerBeat}
}

func (b BpmInfo) BeatsPerMinute() uint16 { return b.beatsPerMinute }
func (b BpmInfo) TicksPerBeat() uint16   { return b.ticksPerBeat }

// NanosPerBeat is the (integer-truncating) nanosecond duration of one beat.
func (b BpmInfo) NanosPerBeat() int64 {
	return nanosPerMinute / int64(b.beatsPerMinute)
}

// NanosPerTick is the (integer-truncating) nanosecond duration of one tick.
func (b BpmInfo) NanosPerTick() int64 {
	return b.NanosPerBeat() / int64(b.ticksPerBeat)
}

// BeatDuration is the wall-clock duration of a single beat.
func (b BpmInfo) BeatDuration() time.Duration {
	return time.Duration(b.NanosPerBeat())
}

// TickDuration is the wall-clock duration of a single tick.
func (b BpmInfo) TickDuration() time.Duration {
	return time.Duration(b.NanosPerTick())
}
