package lang

import (
	"github.com/ischeinkman/seqcore/internal/midi"
	"github.com/ischeinkman/seqcore/internal/wait"
)

// Velocity returns the press's own velocity override, if set.
func (p ChordPress) Velocity() (midi.PressVelocity, bool) {
	if m, ok := p.findModifier(ModVelocity); ok {
		return m.Velocity, true
	}
	return midi.PressVelocity{}, false
}

// Channel returns the press's own channel override, if set.
func (p ChordPress) Channel() (midi.MidiChannel, bool) {
	if m, ok := p.findModifier(ModChannel); ok {
		return m.Channel, true
	}
	return midi.MidiChannel{}, false
}

// Duration returns the press's own duration override, if set.
func (p ChordPress) Duration() (wait.WaitTime, bool) {
	if m, ok := p.findModifier(ModDuration); ok {
		return m.Duration, true
	}
	return wait.WaitTime{}, false
}

// Port returns the press's own output port override, if set.
func (p ChordPress) Port() (OutputLabel, bool) {
	if m, ok := p.findModifier(ModPort); ok {
		return m.Port, true
	}
	return OutputLabel{}, false
}

// Velocity returns the line's shared velocity override, if set.
func (l PressLine) Velocity() (midi.PressVelocity, bool) {
	if m, ok := l.findModifier(ModVelocity); ok {
		return m.Velocity, true
	}
	return midi.PressVelocity{}, false
}

// Channel returns the line's shared channel override, if set.
func (l PressLine) Channel() (midi.MidiChannel, bool) {
	if m, ok := l.findModifier(ModChannel); ok {
		return m.Channel, true
	}
	return midi.MidiChannel{}, false
}

// Duration returns the line's shared duration override, if set.
func (l PressLine) Duration() (wait.WaitTime, bool) {
	if m, ok := l.findModifier(ModDuration); ok {
		return m.Duration, true
	}
	return wait.WaitTime{}, false
}

// Port returns the line's shared output port override, if set.
func (l PressLine) Port() (OutputLabel, bool) {
	if m, ok := l.findModifier(ModPort); ok {
		return m.Port, true
	}
	return OutputLabel{}, false
}
