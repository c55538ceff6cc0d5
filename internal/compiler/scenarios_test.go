package compiler_test

// Literal end-to-end scenarios S1-S5 from the specification's testable
// properties section, each driven through Compile then a cursor.Cursor
// exactly as a realtime caller would.

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ischeinkman/seqcore/internal/compiler"
	"github.com/ischeinkman/seqcore/internal/cursor"
	"github.com/ischeinkman/seqcore/internal/lang"
	"github.com/ischeinkman/seqcore/internal/midi"
	"github.com/ischeinkman/seqcore/internal/track"
)

func noNoteOffOptions() compiler.Options {
	opts := compiler.DefaultOptions()
	opts.EmitNoteOffs = false
	return opts
}

// S1 - single note: "play c4" with defaults and no signature attribute
// compiles to exactly SendMessage(NoteOn 60/ch0/vel90 on port 0), Wait(1
// tick), End — no leading SetBpm, since the header never set a signature
// (DESIGN.md / compiler.go: a SetBpm instruction is only ever emitted for
// an explicit Signature attribute, matching the original compiler). A
// cursor driven across one tick emits exactly one message at time zero.
func TestScenarioS1SingleNote(t *testing.T) {
	items := []lang.LangItem{simplePress(t, midi.C, 4, lang.ChordRaw)}
	tr, _, err := compiler.Compile(items, noNoteOffOptions())
	require.NoError(t, err)
	require.Len(t, tr, 3)

	first, _ := tr.Get(0)
	require.Equal(t, track.OpSendMessage, first.Op)
	require.Equal(t, midi.KindNoteOn, first.Message.Kind())
	on := first.Message.NoteOn()
	require.Equal(t, uint8(0), on.Channel().AsU8())
	require.Equal(t, uint8(60), on.Note().AsU8())
	require.Equal(t, uint8(90), on.Velocity().AsU8())
	require.Equal(t, 0, first.Port.Index())

	second, _ := tr.Get(1)
	require.Equal(t, track.OpWait, second.Op)

	third, _ := tr.Get(2)
	require.Equal(t, track.OpEnd, third.Op)

	c := cursor.New(tr, compiler.DefaultOptions().DefaultBpm)
	var emitted []cursor.StepOutput
	ended, err := c.StepUntil(c.Bpm().TickDuration(), func(out cursor.StepOutput) {
		emitted = append(emitted, out)
	})
	require.NoError(t, err)
	require.False(t, ended)
	require.Len(t, emitted, 1)
	require.Equal(t, time.Duration(0), emitted[0].At)
}

// S2 - major triad: "play c4M" emits NoteOns on 60 (C4), 64 (E4), 67 (G4)
// in order, all channel 0 velocity 90 port 0, then Wait(1 tick), End, each
// note emitted at time=0.
func TestScenarioS2MajorTriad(t *testing.T) {
	items := []lang.LangItem{simplePress(t, midi.C, 4, lang.ChordMajor)}
	tr, _, err := compiler.Compile(items, noNoteOffOptions())
	require.NoError(t, err)

	var notes []uint8
	for i := 0; i < len(tr); i++ {
		evt, _ := tr.Get(i)
		if evt.Op == track.OpSendMessage {
			on := evt.Message.NoteOn()
			notes = append(notes, on.Note().AsU8())
			require.Equal(t, uint8(0), on.Channel().AsU8())
			require.Equal(t, uint8(90), on.Velocity().AsU8())
			require.Equal(t, 0, evt.Port.Index())
		}
	}
	require.Equal(t, []uint8{60, 64, 67}, notes)

	c := cursor.New(tr, compiler.DefaultOptions().DefaultBpm)
	var times []time.Duration
	_, err = c.StepUntil(c.Bpm().TickDuration(), func(out cursor.StepOutput) {
		times = append(times, out.At)
	})
	require.NoError(t, err)
	require.Equal(t, []time.Duration{0, 0, 0}, times)
}

// S3 - inversion via monotonicity: "play e4M" (E major: E,F#,G#,A,B,C#,D#)
// steps offsets [0,2,4] to E, G#, B, landing on pitches 64, 68, 71 with no
// wraparound since each is already >= the previous.
func TestScenarioS3InversionStaysUnwrapped(t *testing.T) {
	items := []lang.LangItem{simplePress(t, midi.E, 4, lang.ChordMajor)}
	tr, _, err := compiler.Compile(items, noNoteOffOptions())
	require.NoError(t, err)

	var notes []uint8
	for i := 0; i < len(tr); i++ {
		evt, _ := tr.Get(i)
		if evt.Op == track.OpSendMessage {
			notes = append(notes, evt.Message.NoteOn().Note().AsU8())
		}
	}
	require.Equal(t, []uint8{64, 68, 71}, notes)
}

// S4 - fixed loop count: "loop 3 { play c4 }" emits exactly three NoteOns
// on note 60 when run well past the loop's total duration.
func TestScenarioS4FixedLoopCount(t *testing.T) {
	reps := uint16(3)
	items := []lang.LangItem{
		lang.Loop([]lang.LangItem{simplePress(t, midi.C, 4, lang.ChordRaw)}, &reps),
	}
	tr, _, err := compiler.Compile(items, noNoteOffOptions())
	require.NoError(t, err)

	c := cursor.New(tr, compiler.DefaultOptions().DefaultBpm)
	var onCount int
	_, err = c.StepUntil(10*c.Bpm().TickDuration(), func(out cursor.StepOutput) {
		if out.Message.Message.Kind() == midi.KindNoteOn {
			onCount++
		}
	})
	require.NoError(t, err)
	require.Equal(t, 3, onCount)
}

// S5 - restart: driving S4's track for one tick emits one NoteOn, then
// Reset and driving past 10 ticks again emits the full three more, for a
// total of four.
func TestScenarioS5RestartReplaysFromScratch(t *testing.T) {
	reps := uint16(3)
	items := []lang.LangItem{
		lang.Loop([]lang.LangItem{simplePress(t, midi.C, 4, lang.ChordRaw)}, &reps),
	}
	tr, _, err := compiler.Compile(items, noNoteOffOptions())
	require.NoError(t, err)

	c := cursor.New(tr, compiler.DefaultOptions().DefaultBpm)
	var onCount int
	count := func(out cursor.StepOutput) {
		if out.Message.Message.Kind() == midi.KindNoteOn {
			onCount++
		}
	}
	_, err = c.StepUntil(c.Bpm().TickDuration(), count)
	require.NoError(t, err)
	require.Equal(t, 1, onCount)

	c.Reset()
	_, err = c.StepUntil(10*c.Bpm().TickDuration(), count)
	require.NoError(t, err)
	require.Equal(t, 4, onCount, "1 note before restart plus 3 more after (S5: 1+3=4)")
}
