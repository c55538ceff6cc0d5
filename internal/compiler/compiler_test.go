package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ischeinkman/seqcore/internal/compiler"
	"github.com/ischeinkman/seqcore/internal/lang"
	"github.com/ischeinkman/seqcore/internal/midi"
	"github.com/ischeinkman/seqcore/internal/track"
	"github.com/ischeinkman/seqcore/internal/wait"
)

func simplePress(t *testing.T, root midi.NoteClass, octave int, kind lang.ChordKind) lang.LangItem {
	t.Helper()
	return lang.NotePress(lang.PressLine{
		Presses: []lang.ChordPress{{Root: root, Octave: midi.ClampOctave(octave), Kind: kind}},
	})
}

// TestCompileOmitsSetBpmWithoutSignature: a song whose header never sets a
// signature attribute carries no SetBpm instruction at all; the cursor's
// initialBpm fallback is what puts a bpm in effect. Matches the original
// compiler's encounter_setattr, which only ever pushes a SetBpm event for an
// explicit Signature attribute.
func TestCompileOmitsSetBpmWithoutSignature(t *testing.T) {
	items := []lang.LangItem{simplePress(t, midi.C, 4, lang.ChordRaw)}
	tr, _, err := compiler.Compile(items, compiler.DefaultOptions())
	require.NoError(t, err)
	require.Greater(t, len(tr), 0)

	for i := 0; i < len(tr); i++ {
		evt, _ := tr.Get(i)
		require.NotEqual(t, track.OpSetBpm, evt.Op)
	}
}

func TestCompileEmitsLeadingSetBpmWhenSignatureSet(t *testing.T) {
	items := []lang.LangItem{
		lang.SetAttribute(lang.SongAttribute{Kind: lang.AttrSignature, Signature: wait.NewBpmInfo(140, 24)}),
		simplePress(t, midi.C, 4, lang.ChordRaw),
	}
	tr, _, err := compiler.Compile(items, compiler.DefaultOptions())
	require.NoError(t, err)

	first, ok := tr.Get(0)
	require.True(t, ok)
	require.Equal(t, track.OpSetBpm, first.Op)
	require.Equal(t, uint16(140), first.Bpm.BeatsPerMinute())
}

func TestCompileTrackAlwaysEndsWithEnd(t *testing.T) {
	items := []lang.LangItem{simplePress(t, midi.C, 4, lang.ChordRaw)}
	tr, _, err := compiler.Compile(items, compiler.DefaultOptions())
	require.NoError(t, err)

	last, ok := tr.Get(len(tr) - 1)
	require.True(t, ok)
	require.Equal(t, track.OpEnd, last.Op)
}

func TestCompileChordMajorExpandsToThreeAscendingNotes(t *testing.T) {
	items := []lang.LangItem{simplePress(t, midi.C, 4, lang.ChordMajor)}
	opts := compiler.DefaultOptions()
	opts.EmitNoteOffs = false
	tr, _, err := compiler.Compile(items, opts)
	require.NoError(t, err)

	var notes []midi.MidiNote
	for i := 0; i < len(tr); i++ {
		evt, _ := tr.Get(i)
		if evt.Op == track.OpSendMessage && evt.Message.Kind() == midi.KindNoteOn {
			notes = append(notes, evt.Message.NoteOn().Note())
		}
	}
	require.Len(t, notes, 3)
	require.True(t, notes[0].Less(notes[1]))
	require.True(t, notes[1].Less(notes[2]))
}

func TestCompileEmitsNoteOffsByDefault(t *testing.T) {
	items := []lang.LangItem{simplePress(t, midi.C, 4, lang.ChordRaw)}
	tr, _, err := compiler.Compile(items, compiler.DefaultOptions())
	require.NoError(t, err)

	var onCount, offCount int
	for i := 0; i < len(tr); i++ {
		evt, _ := tr.Get(i)
		if evt.Op != track.OpSendMessage {
			continue
		}
		switch evt.Message.Kind() {
		case midi.KindNoteOn:
			onCount++
		case midi.KindNoteOff:
			offCount++
		}
	}
	require.Equal(t, 1, onCount)
	require.Equal(t, 1, offCount)
}

func TestCompileLoopLowersToResidualJump(t *testing.T) {
	reps := uint16(3)
	items := []lang.LangItem{
		lang.Loop([]lang.LangItem{lang.WaitItem(wait.Ticks(1))}, &reps),
	}
	tr, _, err := compiler.Compile(items, compiler.DefaultOptions())
	require.NoError(t, err)

	var jump track.TrackEvent
	found := false
	for i := 0; i < len(tr); i++ {
		evt, _ := tr.Get(i)
		if evt.Op == track.OpJump {
			jump = evt
			found = true
		}
	}
	require.True(t, found)
	require.NotNil(t, jump.Count)
	require.Equal(t, uint16(2), *jump.Count)
}

func TestCompileAsmJumpResolvesForwardLabel(t *testing.T) {
	items := []lang.LangItem{
		lang.Asm(lang.AsmCommand{Op: lang.AsmJump, Label: "end"}),
		lang.WaitItem(wait.Ticks(1)),
		lang.Asm(lang.AsmCommand{Op: lang.AsmLabel, Label: "end"}),
	}
	tr, _, err := compiler.Compile(items, compiler.DefaultOptions())
	require.NoError(t, err)

	first, ok := tr.Get(0) // no signature attribute set: no leading SetBpm
	require.True(t, ok)
	require.Equal(t, track.OpJump, first.Op)

	labelIdx := -1
	for i := 0; i < len(tr); i++ {
		evt, _ := tr.Get(i)
		if i > 0 && evt.Op != track.OpSendMessage && i == first.Target {
			labelIdx = i
		}
	}
	require.Equal(t, first.Target, labelIdx)
}

func TestCompileUnresolvedLabelFails(t *testing.T) {
	items := []lang.LangItem{
		lang.Asm(lang.AsmCommand{Op: lang.AsmJump, Label: "nowhere"}),
	}
	_, _, err := compiler.Compile(items, compiler.DefaultOptions())
	require.Error(t, err)
	var notFound compiler.LabelNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "nowhere", notFound.Label)
}

func TestCompileDuplicateLabelFails(t *testing.T) {
	items := []lang.LangItem{
		lang.Asm(lang.AsmCommand{Op: lang.AsmLabel, Label: "a"}),
		lang.Asm(lang.AsmCommand{Op: lang.AsmLabel, Label: "a"}),
	}
	_, _, err := compiler.Compile(items, compiler.DefaultOptions())
	require.Error(t, err)
	var dup compiler.DuplicateLabelError
	require.ErrorAs(t, err, &dup)
}

func TestCompileAttributeOutsideHeaderFails(t *testing.T) {
	items := []lang.LangItem{
		simplePress(t, midi.C, 4, lang.ChordRaw),
		lang.SetAttribute(lang.SongAttribute{Kind: lang.AttrDefaultChannel, Channel: midi.NewMidiChannel(2)}),
	}
	_, _, err := compiler.Compile(items, compiler.DefaultOptions())
	require.Error(t, err)
	var outside compiler.AttributeOutsideHeaderError
	require.ErrorAs(t, err, &outside)
}

func TestCompileHeaderSignatureOverridesDefaultBpm(t *testing.T) {
	items := []lang.LangItem{
		lang.SetAttribute(lang.SongAttribute{Kind: lang.AttrSignature, Signature: wait.NewBpmInfo(200, 16)}),
		simplePress(t, midi.C, 4, lang.ChordRaw),
	}
	tr, _, err := compiler.Compile(items, compiler.DefaultOptions())
	require.NoError(t, err)

	first, ok := tr.Get(0)
	require.True(t, ok)
	require.Equal(t, track.OpSetBpm, first.Op)
	require.Equal(t, uint16(200), first.Bpm.BeatsPerMinute())
}

func TestCompileNamedPortsAreDenselyAssigned(t *testing.T) {
	items := []lang.LangItem{
		lang.Asm(lang.AsmCommand{
			Op:      lang.AsmSend,
			Message: midi.MessageFromRaw(midi.NewRawMessage([]byte{0xB0, 1, 2})),
			Port:    lang.NamedOutputLabel("alpha"),
			HasPort: true,
		}),
		lang.Asm(lang.AsmCommand{
			Op:      lang.AsmSend,
			Message: midi.MessageFromRaw(midi.NewRawMessage([]byte{0xB0, 1, 2})),
			Port:    lang.NamedOutputLabel("beta"),
			HasPort: true,
		}),
	}
	_, ports, err := compiler.Compile(items, compiler.DefaultOptions())
	require.NoError(t, err)

	alpha, ok := ports.Lookup("alpha")
	require.True(t, ok)
	beta, ok := ports.Lookup("beta")
	require.True(t, ok)
	require.NotEqual(t, alpha.Index(), beta.Index())
	require.NotEqual(t, 0, alpha.Index())
	require.NotEqual(t, 0, beta.Index())
}
