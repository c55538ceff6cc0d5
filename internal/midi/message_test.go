package midi_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/ischeinkman/seqcore/internal/midi"
)

func TestNoteOnRoundTrip(t *testing.T) {
	vel, err := midi.ParsePressVelocity(100)
	require.NoError(t, err)
	ch, err := midi.ParseMidiChannel(3)
	require.NoError(t, err)
	note, err := midi.ParseMidiNote(60)
	require.NoError(t, err)

	on := midi.NewNoteOn(ch, note, vel)
	bytes := on.AsBytes()

	parsed, err := midi.ParseNoteOn(bytes)
	require.NoError(t, err)
	require.Equal(t, on, parsed)
}

func TestParseNoteOnRejectsWrongTag(t *testing.T) {
	_, err := midi.ParseNoteOn([3]byte{0x80, 60, 10})
	require.Error(t, err)
	_, ok := err.(midi.WrongTagError)
	require.True(t, ok, "expected WrongTagError, got %T", err)
}

func TestParseMidiMessageClassifiesNoteOnAndOff(t *testing.T) {
	on, err := midi.ParseMidiMessage([3]byte{0x91, 64, 90})
	require.NoError(t, err)
	require.Equal(t, midi.KindNoteOn, on.Kind())

	off, err := midi.ParseMidiMessage([3]byte{0x81, 64, 0})
	require.NoError(t, err)
	require.Equal(t, midi.KindNoteOff, off.Kind())

	other, err := midi.ParseMidiMessage([3]byte{0xB0, 123, 0})
	require.NoError(t, err)
	require.Equal(t, midi.KindOther, other.Kind())
}

// TestMidiMessageRoundTripsLosslessly: AsRaw followed by ParseMidiMessage
// always reconstructs an equivalent message, for any valid channel/note/
// velocity triple sent as a note-on.
func TestMidiMessageRoundTripsLosslessly(t *testing.T) {
	props := gopter.NewProperties(nil)
	props.Property("note-on round trips through raw bytes", prop.ForAll(
		func(ch, note, vel uint8) bool {
			ch = ch & 0x0F
			note = note & 0x7F
			vel = vel & 0x7F
			channel, _ := midi.ParseMidiChannel(ch)
			n, _ := midi.ParseMidiNote(note)
			v, _ := midi.ParsePressVelocity(vel)
			msg := midi.MessageFromNoteOn(midi.NewNoteOn(channel, n, v))
			raw := msg.AsRaw()
			reparsed, err := midi.ParseMidiMessage([3]byte(raw.Bytes()))
			if err != nil {
				return false
			}
			return reparsed.Kind() == midi.KindNoteOn && reparsed.NoteOn() == msg.NoteOn()
		},
		gen.UInt8Range(0, 255),
		gen.UInt8Range(0, 255),
		gen.UInt8Range(0, 255),
	))
	props.TestingRun(t)
}

func TestFromNoteOctaveAndBackAreConsistent(t *testing.T) {
	note := midi.FromNoteOctave(midi.Fs, midi.ClampOctave(4))
	require.Equal(t, midi.Fs, note.NoteClass())
	require.Equal(t, midi.ClampOctave(4), note.Octave())
}

func TestWrappingAddWrapsWithinMidiRange(t *testing.T) {
	n := midi.ClampMidiNote(127)
	wrapped := n.WrappingAdd(1)
	require.Equal(t, uint8(0), wrapped.AsU8())
}
