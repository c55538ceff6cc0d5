package midi_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ischeinkman/seqcore/internal/midi"
)

func TestMajorKeyContainsExpectedNotes(t *testing.T) {
	key := midi.Major(midi.C)
	want := map[midi.NoteClass]bool{
		midi.C: true, midi.D: true, midi.E: true, midi.F: true,
		midi.G: true, midi.A: true, midi.B: true,
	}
	for _, n := range midi.AllNoteClasses() {
		require.Equalf(t, want[n], key.Contains(n), "note %s", n)
	}
	require.Equal(t, 7, key.Len())
	require.Equal(t, midi.C, key.Root())
}

func TestMinorKeyFlattensThirdSixthSeventh(t *testing.T) {
	major := midi.Major(midi.C)
	minor := midi.Minor(midi.C)
	require.True(t, minor.Contains(midi.Ds), "minor third present")
	require.False(t, minor.Contains(midi.E), "major third absent")
	require.Equal(t, major.Len(), minor.Len())
}

func TestNthWrapsAroundKeyLength(t *testing.T) {
	key := midi.Major(midi.C)
	first := key.Nth(0)
	eighth := key.Nth(7)
	require.Equal(t, first, eighth, "stepping by the key length wraps back to the same class")
}

func TestNthNegativeStepsWrapBackward(t *testing.T) {
	key := midi.Major(midi.C)
	root := key.Nth(0)
	negative := key.Nth(-7)
	require.Equal(t, root, negative)
}

func TestEquivalentIgnoresRoot(t *testing.T) {
	cMajor := midi.Major(midi.C)
	aMinor := midi.Minor(midi.A)
	require.True(t, cMajor.Equivalent(aMinor), "relative minor shares C major's note set")
}

func TestShiftWrapsAcrossOctaveBoundary(t *testing.T) {
	require.Equal(t, midi.C, midi.B.Shift(1))
	require.Equal(t, midi.B, midi.C.Shift(-1))
}
