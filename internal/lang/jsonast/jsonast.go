// Package jsonast is a stand-in surface format for SongLang ASTs.
//
// The real SongLang lexer/parser is an external collaborator (spec §1, §6.3)
// and out of scope for this module. To keep the CLI (cmd/seqctl) runnable
// without inventing a text grammar, this package accepts the AST of
// internal/lang pre-built as JSON — effectively "already parsed" track
// files — and implements parseapi.Parser over that document shape. A real
// SongLang front end would replace this package without touching the
// compiler or anything downstream of it.
package jsonast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ischeinkman/seqcore/internal/lang"
	"github.com/ischeinkman/seqcore/internal/midi"
	"github.com/ischeinkman/seqcore/internal/wait"
)

// Parser implements parseapi.Parser over the JSON document shape below.
type Parser struct{}

type document struct {
	Items []item `json:"items"`
}

type item struct {
	Type string `json:"type"`

	// loop
	Body         []item  `json:"body,omitempty"`
	Repetitions  *uint16 `json:"repetitions,omitempty"`

	// note_press
	Press *pressLine `json:"press,omitempty"`

	// wait (asm.wait carries its own spec inside the asm command)
	Wait *waitSpec `json:"wait,omitempty"`

	// asm
	Asm *asmCommand `json:"asm,omitempty"`

	// set_attribute
	Attribute *attribute `json:"attribute,omitempty"`
}

type waitSpec struct {
	Unit  string `json:"unit"` // "clock_ns" | "beats" | "ticks"
	Value uint64 `json:"value"`
}

func (w waitSpec) toWaitTime() (wait.WaitTime, error) {
	switch w.Unit {
	case "clock_ns":
		return wait.Clock(time.Duration(w.Value)), nil
	case "beats":
		return wait.Beats(uint32(w.Value)), nil
	case "ticks":
		return wait.Ticks(uint32(w.Value)), nil
	default:
		return wait.WaitTime{}, fmt.Errorf("unknown wait unit %q", w.Unit)
	}
}

type pressLine struct {
	Presses   []chordPress `json:"presses"`
	Modifiers []modifier   `json:"modifiers,omitempty"`
}

type chordPress struct {
	Root      string     `json:"root"`
	Octave    int        `json:"octave"`
	Kind      string     `json:"kind"`
	Modifiers []modifier `json:"modifiers,omitempty"`
}

type modifier struct {
	Type     string    `json:"type"` // "velocity" | "channel" | "duration" | "port"
	Velocity *uint8    `json:"velocity,omitempty"`
	Channel  *uint8    `json:"channel,omitempty"`
	Duration *waitSpec `json:"duration,omitempty"`
	Port     *string   `json:"port,omitempty"`
}

func (m modifier) toPressModifier() (lang.PressModifier, error) {
	switch m.Type {
	case "velocity":
		if m.Velocity == nil {
			return lang.PressModifier{}, fmt.Errorf("velocity modifier missing value")
		}
		vel, err := midi.ParsePressVelocity(*m.Velocity)
		if err != nil {
			return lang.PressModifier{}, err
		}
		return lang.VelocityModifier(vel), nil
	case "channel":
		if m.Channel == nil {
			return lang.PressModifier{}, fmt.Errorf("channel modifier missing value")
		}
		ch, err := midi.ParseMidiChannel(*m.Channel)
		if err != nil {
			return lang.PressModifier{}, err
		}
		return lang.ChannelModifier(ch), nil
	case "duration":
		if m.Duration == nil {
			return lang.PressModifier{}, fmt.Errorf("duration modifier missing value")
		}
		w, err := m.Duration.toWaitTime()
		if err != nil {
			return lang.PressModifier{}, err
		}
		return lang.DurationModifier(w), nil
	case "port":
		if m.Port == nil {
			return lang.PressModifier{}, fmt.Errorf("port modifier missing value")
		}
		return lang.PortModifier(portLabel(*m.Port)), nil
	default:
		return lang.PressModifier{}, fmt.Errorf("unknown modifier type %q", m.Type)
	}
}

func portLabel(name string) lang.OutputLabel {
	if name == "" {
		return lang.DefaultOutputLabel()
	}
	return lang.NamedOutputLabel(name)
}

var noteClassByName = map[string]midi.NoteClass{
	"c": midi.C, "c#": midi.Cs, "db": midi.Cs,
	"d": midi.D, "d#": midi.Ds, "eb": midi.Ds,
	"e": midi.E,
	"f": midi.F, "f#": midi.Fs, "gb": midi.Fs,
	"g": midi.G, "g#": midi.Gs, "ab": midi.Gs,
	"a": midi.A, "a#": midi.As, "bb": midi.As,
	"b": midi.B,
}

var chordKindByName = map[string]lang.ChordKind{
	"":   lang.ChordRaw,
	"5":  lang.ChordFifth,
	"M":  lang.ChordMajor,
	"m":  lang.ChordMinor,
	"M7": lang.ChordMajor7,
	"m7": lang.ChordMinor7,
}

type asmCommand struct {
	Op    string    `json:"op"` // "wait" | "send" | "jump" | "set_bpm" | "label"
	Wait  *waitSpec `json:"wait,omitempty"`
	Port  *string   `json:"port,omitempty"`
	Raw   []byte    `json:"message,omitempty"`
	Label string    `json:"label,omitempty"`
	Count *uint16   `json:"count,omitempty"`
	Bpm   *bpmSpec  `json:"bpm,omitempty"`
}

type bpmSpec struct {
	BeatsPerMinute uint16 `json:"beats_per_minute"`
	TicksPerBeat   uint16 `json:"ticks_per_beat"`
}

type attribute struct {
	Type      string    `json:"type"`
	Signature *bpmSpec  `json:"signature,omitempty"`
	Duration  *waitSpec `json:"duration,omitempty"`
	Channel   *uint8    `json:"channel,omitempty"`
	Port      *string   `json:"port,omitempty"`
	Velocity  *uint8    `json:"velocity,omitempty"`
}

// Parse decodes source as a JSON document and converts it into the
// internal/lang AST.
func (Parser) Parse(source []byte) ([]lang.LangItem, error) {
	var doc document
	if err := json.Unmarshal(source, &doc); err != nil {
		return nil, fmt.Errorf("invalid track document: %w", err)
	}
	return convertItems(doc.Items)
}

func convertItems(items []item) ([]lang.LangItem, error) {
	out := make([]lang.LangItem, 0, len(items))
	for _, it := range items {
		converted, err := convertItem(it)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func convertItem(it item) (lang.LangItem, error) {
	switch it.Type {
	case "loop":
		body, err := convertItems(it.Body)
		if err != nil {
			return lang.LangItem{}, err
		}
		return lang.Loop(body, it.Repetitions), nil
	case "note_press":
		if it.Press == nil {
			return lang.LangItem{}, fmt.Errorf("note_press missing press")
		}
		line, err := convertPressLine(*it.Press)
		if err != nil {
			return lang.LangItem{}, err
		}
		return lang.NotePress(line), nil
	case "wait":
		if it.Wait == nil {
			return lang.LangItem{}, fmt.Errorf("wait item missing wait spec")
		}
		w, err := it.Wait.toWaitTime()
		if err != nil {
			return lang.LangItem{}, err
		}
		return lang.WaitItem(w), nil
	case "asm":
		if it.Asm == nil {
			return lang.LangItem{}, fmt.Errorf("asm item missing asm spec")
		}
		cmd, err := convertAsm(*it.Asm)
		if err != nil {
			return lang.LangItem{}, err
		}
		return lang.Asm(cmd), nil
	case "set_attribute":
		if it.Attribute == nil {
			return lang.LangItem{}, fmt.Errorf("set_attribute missing attribute")
		}
		attr, err := convertAttribute(*it.Attribute)
		if err != nil {
			return lang.LangItem{}, err
		}
		return lang.SetAttribute(attr), nil
	default:
		return lang.LangItem{}, fmt.Errorf("unknown item type %q", it.Type)
	}
}

func convertPressLine(p pressLine) (lang.PressLine, error) {
	presses := make([]lang.ChordPress, 0, len(p.Presses))
	for _, cp := range p.Presses {
		converted, err := convertChordPress(cp)
		if err != nil {
			return lang.PressLine{}, err
		}
		presses = append(presses, converted)
	}
	mods, err := convertModifiers(p.Modifiers)
	if err != nil {
		return lang.PressLine{}, err
	}
	return lang.PressLine{Presses: presses, Modifiers: mods}, nil
}

func convertChordPress(cp chordPress) (lang.ChordPress, error) {
	root, ok := noteClassByName[cp.Root]
	if !ok {
		return lang.ChordPress{}, fmt.Errorf("unknown note class %q", cp.Root)
	}
	kind, ok := chordKindByName[cp.Kind]
	if !ok {
		return lang.ChordPress{}, fmt.Errorf("unknown chord kind %q", cp.Kind)
	}
	mods, err := convertModifiers(cp.Modifiers)
	if err != nil {
		return lang.ChordPress{}, err
	}
	return lang.ChordPress{
		Root:      root,
		Octave:    midi.ClampOctave(cp.Octave),
		Kind:      kind,
		Modifiers: mods,
	}, nil
}

func convertModifiers(mods []modifier) ([]lang.PressModifier, error) {
	out := make([]lang.PressModifier, 0, len(mods))
	for _, m := range mods {
		converted, err := m.toPressModifier()
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func convertAsm(a asmCommand) (lang.AsmCommand, error) {
	switch a.Op {
	case "wait":
		if a.Wait == nil {
			return lang.AsmCommand{}, fmt.Errorf("asm.wait missing wait spec")
		}
		w, err := a.Wait.toWaitTime()
		if err != nil {
			return lang.AsmCommand{}, err
		}
		return lang.AsmCommand{Op: lang.AsmWait, Wait: w}, nil
	case "send":
		if len(a.Raw) != 3 {
			return lang.AsmCommand{}, fmt.Errorf("asm.send message must be exactly 3 bytes")
		}
		msg, err := midi.ParseMidiMessage([3]byte{a.Raw[0], a.Raw[1], a.Raw[2]})
		if err != nil {
			return lang.AsmCommand{}, err
		}
		cmd := lang.AsmCommand{Op: lang.AsmSend, Message: msg}
		if a.Port != nil {
			cmd.Port = portLabel(*a.Port)
			cmd.HasPort = true
		}
		return cmd, nil
	case "jump":
		return lang.AsmCommand{Op: lang.AsmJump, Label: a.Label, Count: a.Count}, nil
	case "set_bpm":
		if a.Bpm == nil {
			return lang.AsmCommand{}, fmt.Errorf("asm.set_bpm missing bpm spec")
		}
		return lang.AsmCommand{Op: lang.AsmSetBpm, Bpm: wait.NewBpmInfo(a.Bpm.BeatsPerMinute, a.Bpm.TicksPerBeat)}, nil
	case "label":
		return lang.AsmCommand{Op: lang.AsmLabel, Label: a.Label}, nil
	default:
		return lang.AsmCommand{}, fmt.Errorf("unknown asm op %q", a.Op)
	}
}

func convertAttribute(a attribute) (lang.SongAttribute, error) {
	switch a.Type {
	case "signature":
		if a.Signature == nil {
			return lang.SongAttribute{}, fmt.Errorf("signature attribute missing value")
		}
		return lang.SongAttribute{
			Kind:      lang.AttrSignature,
			Signature: wait.NewBpmInfo(a.Signature.BeatsPerMinute, a.Signature.TicksPerBeat),
		}, nil
	case "default_duration":
		if a.Duration == nil {
			return lang.SongAttribute{}, fmt.Errorf("default_duration attribute missing value")
		}
		w, err := a.Duration.toWaitTime()
		if err != nil {
			return lang.SongAttribute{}, err
		}
		return lang.SongAttribute{Kind: lang.AttrDefaultDuration, Duration: w}, nil
	case "default_channel":
		if a.Channel == nil {
			return lang.SongAttribute{}, fmt.Errorf("default_channel attribute missing value")
		}
		ch, err := midi.ParseMidiChannel(*a.Channel)
		if err != nil {
			return lang.SongAttribute{}, err
		}
		return lang.SongAttribute{Kind: lang.AttrDefaultChannel, Channel: ch}, nil
	case "default_port":
		if a.Port == nil {
			return lang.SongAttribute{}, fmt.Errorf("default_port attribute missing value")
		}
		return lang.SongAttribute{Kind: lang.AttrDefaultPort, Port: portLabel(*a.Port)}, nil
	case "default_velocity":
		if a.Velocity == nil {
			return lang.SongAttribute{}, fmt.Errorf("default_velocity attribute missing value")
		}
		vel, err := midi.ParsePressVelocity(*a.Velocity)
		if err != nil {
			return lang.SongAttribute{}, err
		}
		return lang.SongAttribute{Kind: lang.AttrDefaultVelocity, Velocity: vel}, nil
	default:
		return lang.SongAttribute{}, fmt.Errorf("unknown attribute type %q", a.Type)
	}
}
