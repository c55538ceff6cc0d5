// Package midi holds the immutable value types of the MIDI domain model:
// note classes, octaves, channels, velocities and the three-byte wire
// messages the track VM emits. Nothing here mutates once constructed.
package midi

import "fmt"

// NoteClass is one of the twelve chromatic pitch classes.
type NoteClass uint8

const (
	C NoteClass = iota
	Cs
	D
	Ds
	E
	F
	Fs
	G
	Gs
	A
	As
	B
)

var allNoteClasses = [...]NoteClass{C, Cs, D, Ds, E, F, Fs, G, Gs, A, As, B}

// AllNoteClasses returns the twelve chromatic classes in pitch order.
func AllNoteClasses() []NoteClass {
	out := make([]NoteClass, len(allNoteClasses))
	copy(out, allNoteClasses[:])
	return out
}

func (n NoteClass) String() string {
	names := [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	return names[uint8(n)%12]
}

// Shift returns the note class offset by the given number of semitones,
// wrapping around the twelve-class octave in either direction.
func (n NoteClass) Shift(offset int) NoteClass {
	raw := int(n) + offset
	m := raw % 12
	if m < 0 {
		m += 12
	}
	return NoteClass(m)
}

// Octave is a signed octave number clamped to [-1, 9], the MIDI octave range.
type Octave int8

// ClampOctave clamps a raw octave number into the representable range.
func ClampOctave(raw int) Octave {
	if raw < -1 {
		raw = -1
	} else if raw > 9 {
		raw = 9
	}
	return Octave(raw)
}

// Raw returns the underlying octave number.
func (o Octave) Raw() int8 { return int8(o) }

// MidiChannel is a zero-based MIDI channel number in [0, 15].
type MidiChannel struct {
	raw uint8
}

// NewMidiChannel builds a channel from a raw 0-based value, masking to 4 bits.
func NewMidiChannel(raw uint8) MidiChannel {
	return MidiChannel{raw: raw & 0x0F}
}

// ParseMidiChannel validates raw as a channel number, rejecting values >= 16.
func ParseMidiChannel(raw uint8) (MidiChannel, error) {
	if raw >= 16 {
		return MidiChannel{}, OutOfRangeError{Found: raw, Min: 0, Max: 15}
	}
	return MidiChannel{raw: raw}, nil
}

func (c MidiChannel) AsU8() uint8 { return c.raw }

// PressVelocity is a MIDI velocity value in [0, 127].
type PressVelocity struct {
	raw uint8
}

// ParsePressVelocity validates raw as a velocity, rejecting values >= 128.
func ParsePressVelocity(raw uint8) (PressVelocity, error) {
	if raw > 127 {
		return PressVelocity{}, OutOfRangeError{Found: raw, Min: 0, Max: 127}
	}
	return PressVelocity{raw: raw}, nil
}

func (v PressVelocity) AsU8() uint8 { return v.raw }

// MidiNote is a MIDI note number in [0, 127].
type MidiNote struct {
	raw uint8
}

// ParseMidiNote validates raw as a note number, rejecting values >= 128.
func ParseMidiNote(raw uint8) (MidiNote, error) {
	if raw >= 128 {
		return MidiNote{}, OutOfRangeError{Found: raw, Min: 0, Max: 127}
	}
	return MidiNote{raw: raw}, nil
}

// ClampMidiNote clamps raw into [0, 127].
func ClampMidiNote(raw uint8) MidiNote {
	if raw > 127 {
		raw = 127
	}
	return MidiNote{raw: raw}
}

// FromNoteOctave converts a note class and octave into the corresponding
// MIDI note number: (octave+1)*12 + class index.
func FromNoteOctave(note NoteClass, octave Octave) MidiNote {
	midiOctave := int(octave.Raw()) + 1
	raw := midiOctave*12 + int(note)
	return ClampMidiNote(uint8(raw))
}

func (n MidiNote) AsU8() uint8 { return n.raw }

// Octave returns the octave this note number falls into.
func (n MidiNote) Octave() Octave {
	shift := int8(n.raw / 12)
	return ClampOctave(int(shift - 1))
}

// NoteClass returns the pitch class of this note number.
func (n MidiNote) NoteClass() NoteClass {
	return NoteClass(n.raw % 12)
}

// WrappingAdd adds steps semitones, wrapping within the 0..127 MIDI range.
func (n MidiNote) WrappingAdd(steps int) MidiNote {
	v := int(n.raw) + steps
	v %= 128
	if v < 0 {
		v += 128
	}
	return MidiNote{raw: uint8(v)}
}

// Less reports whether n represents a lower pitch than other.
func (n MidiNote) Less(other MidiNote) bool { return n.raw < other.raw }

// OutOfRangeError reports a value falling outside an inclusive byte range.
type OutOfRangeError struct {
	Found, Min, Max uint8
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("value out of range: expected number in [%d..=%d], found %d", e.Min, e.Max, e.Found)
}

// WrongTagError reports a MIDI status byte that did not match an expected tag.
type WrongTagError struct {
	Expected, Actual uint8
}

func (e WrongTagError) Error() string {
	return fmt.Sprintf("wrong midi tag: expected %#x, found %#x", e.Expected, e.Actual)
}
