package compiler

import (
	"github.com/ischeinkman/seqcore/internal/lang"
	"github.com/ischeinkman/seqcore/internal/midi"
	"github.com/ischeinkman/seqcore/internal/track"
	"github.com/ischeinkman/seqcore/internal/wait"
)

var silentVelocity = mustVelocity(0)
var wait1Tick = wait.Ticks(1)

// compilePress lowers one press line: every chord press expands into an
// ascending run of note-ons (root-note octave, key-stepped by the chord
// kind's offsets, each raised by octaves until it is not below the previous
// so a "Cmaj" chord never folds a third back below the root), followed by
// the line's effective duration wait, followed — if note-offs are enabled —
// by a matching run of note-offs and a final one-tick wait so time strictly
// advances even when the duration itself was zero-clamped to a tick.
//
// For velocity, channel and port, modifier precedence is press, then line,
// then song default, mirroring the original compiler's encounter_pressline.
// The duration comes from the line's modifier or the song default only: a
// single wait follows the whole line, and a press's own duration modifier
// is not consulted.
func (c *compiler) compilePress(line lang.PressLine) error {
	lineVelocity, lineHasVel := line.Velocity()
	lineChannel, lineHasChan := line.Channel()
	linePort, lineHasPort := line.Port()

	duration, ok := line.Duration()
	if !ok {
		duration = c.defaultDuration
	}

	type pressedNote struct {
		channel midi.MidiChannel
		note    midi.MidiNote
		vel     midi.PressVelocity
		port    track.OutputPort
	}
	notes := make([]pressedNote, 0, len(line.Presses))

	for _, press := range line.Presses {
		velocity := c.defaultVelocity
		if v, ok := press.Velocity(); ok {
			velocity = v
		} else if lineHasVel {
			velocity = lineVelocity
		}

		channel := c.defaultChannel
		if ch, ok := press.Channel(); ok {
			channel = ch
		} else if lineHasChan {
			channel = lineChannel
		}

		portLabel := c.defaultPort
		if p, ok := press.Port(); ok {
			portLabel = p
		} else if lineHasPort {
			portLabel = linePort
		}
		port := c.ensurePort(portLabel)

		for _, note := range expandChord(press) {
			notes = append(notes, pressedNote{channel: channel, note: note, vel: velocity, port: port})
		}
	}

	for _, n := range notes {
		on := midi.MessageFromNoteOn(midi.NewNoteOn(n.channel, n.note, n.vel))
		c.events = append(c.events, track.SendMessage(on, n.port))
	}
	c.events = append(c.events, track.Wait(duration))

	if c.opts.EmitNoteOffs {
		for _, n := range notes {
			off := midi.MessageFromNoteOff(midi.NewNoteOff(n.channel, n.note, silentVelocity))
			c.events = append(c.events, track.SendMessage(off, n.port))
		}
		c.events = append(c.events, track.Wait(wait1Tick))
	}
	return nil
}

// expandChord returns the ascending MIDI notes a chord press expands to: a
// bare root for ChordRaw, or the chord kind's key-relative offsets stepped
// through the press's major/minor key and forced into ascending pitch order
// by octave-wrapping any tone that would otherwise land below the previous
// one.
func expandChord(press lang.ChordPress) []midi.MidiNote {
	base := midi.FromNoteOctave(press.Root, press.Octave)
	if press.Kind == lang.ChordRaw {
		return []midi.MidiNote{base}
	}

	var key midi.NoteKey
	if press.Kind.IsMinor() {
		key = midi.Minor(press.Root)
	} else {
		key = midi.Major(press.Root)
	}

	offsets := press.Kind.Offsets()
	notes := make([]midi.MidiNote, 0, len(offsets))
	prev := base
	for i, off := range offsets {
		cls := key.Nth(off)
		note := midi.FromNoteOctave(cls, press.Octave)
		if i > 0 {
			for note.Less(prev) {
				note = note.WrappingAdd(12)
			}
		}
		notes = append(notes, note)
		prev = note
	}
	return notes
}
