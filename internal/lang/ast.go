// Package lang defines the SongLang AST: the tree the (out-of-scope) surface
// parser produces and the compiler consumes. Nothing here parses text —
// these are pure data, generalized from the teacher's internal/asm statement
// shapes (mnemonic + operands) into a structured tree since the real lexer
// is an external collaborator (see parseapi).
package lang

import (
	"github.com/ischeinkman/seqcore/internal/midi"
	"github.com/ischeinkman/seqcore/internal/wait"
)

// ChordKind selects which offsets (relative to a key) a chord press expands
// into.
type ChordKind uint8

const (
	ChordRaw ChordKind = iota
	ChordFifth
	ChordMajor
	ChordMinor
	ChordMajor7
	ChordMinor7
)

// Offsets returns the key-step offsets this chord kind expands to.
func (k ChordKind) Offsets() []int {
	switch k {
	case ChordRaw:
		return []int{0}
	case ChordFifth:
		return []int{0, 4}
	case ChordMajor, ChordMinor:
		return []int{0, 2, 4}
	case ChordMajor7, ChordMinor7:
		return []int{0, 2, 4, 7}
	default:
		return []int{0}
	}
}

// IsMinor reports whether this chord kind is built from the minor key.
func (k ChordKind) IsMinor() bool {
	return k == ChordMinor || k == ChordMinor7
}

// ModifierKind discriminates PressModifier variants.
type ModifierKind uint8

const (
	ModVelocity ModifierKind = iota
	ModChannel
	ModDuration
	ModPort
)

// PressModifier is one override applicable to a chord press or a whole
// press line: velocity, channel, duration, or an output port label.
type PressModifier struct {
	Kind     ModifierKind
	Velocity midi.PressVelocity
	Channel  midi.MidiChannel
	Duration wait.WaitTime
	Port     OutputLabel
}

func VelocityModifier(v midi.PressVelocity) PressModifier {
	return PressModifier{Kind: ModVelocity, Velocity: v}
}

func ChannelModifier(c midi.MidiChannel) PressModifier {
	return PressModifier{Kind: ModChannel, Channel: c}
}

func DurationModifier(w wait.WaitTime) PressModifier {
	return PressModifier{Kind: ModDuration, Duration: w}
}

func PortModifier(label OutputLabel) PressModifier {
	return PressModifier{Kind: ModPort, Port: label}
}

// OutputLabel names an output port. The nameless default port is the zero
// value (Named == false).
type OutputLabel struct {
	Name  string
	Named bool
}

// DefaultOutputLabel is the nameless default port.
func DefaultOutputLabel() OutputLabel { return OutputLabel{} }

// NamedOutputLabel names a specific port.
func NamedOutputLabel(name string) OutputLabel { return OutputLabel{Name: name, Named: true} }

// ChordPress is one chord press within a press line: a root pitch class, an
// octave, a chord kind, and press-local modifiers.
type ChordPress struct {
	Root      midi.NoteClass
	Octave    midi.Octave
	Kind      ChordKind
	Modifiers []PressModifier
}

// PressLine is a syntactic unit of one or more chord presses sharing
// line-level modifiers.
type PressLine struct {
	Presses   []ChordPress
	Modifiers []PressModifier
}

func (l PressLine) findModifier(kind ModifierKind) (PressModifier, bool) {
	for _, m := range l.Modifiers {
		if m.Kind == kind {
			return m, true
		}
	}
	return PressModifier{}, false
}

func (p ChordPress) findModifier(kind ModifierKind) (PressModifier, bool) {
	for _, m := range p.Modifiers {
		if m.Kind == kind {
			return m, true
		}
	}
	return PressModifier{}, false
}

// AsmOpcode discriminates the raw-asm passthrough commands.
type AsmOpcode uint8

const (
	AsmWait AsmOpcode = iota
	AsmSend
	AsmJump
	AsmSetBpm
	AsmLabel
)

// AsmCommand is a raw instruction-level command, passed through to the
// compiled track nearly verbatim after label/port resolution.
type AsmCommand struct {
	Op AsmOpcode

	Wait wait.WaitTime // AsmWait

	Message midi.MidiMessage // AsmSend
	Port    OutputLabel
	HasPort bool

	Label string  // AsmJump target label name, AsmLabel name
	Count *uint16 // AsmJump count, nil for unconditional/infinite

	Bpm wait.BpmInfo // AsmSetBpm
}

// AttributeKind discriminates SongAttribute variants.
type AttributeKind uint8

const (
	AttrSignature AttributeKind = iota
	AttrDefaultDuration
	AttrDefaultChannel
	AttrDefaultPort
	AttrDefaultVelocity
)

// SongAttribute is one header-only configuration directive.
type SongAttribute struct {
	Kind AttributeKind

	Signature wait.BpmInfo
	Duration  wait.WaitTime
	Channel   midi.MidiChannel
	Port      OutputLabel
	Velocity  midi.PressVelocity
}

func (a SongAttribute) String() string {
	switch a.Kind {
	case AttrSignature:
		return "Signature"
	case AttrDefaultDuration:
		return "DefaultDuration"
	case AttrDefaultChannel:
		return "DefaultChannel"
	case AttrDefaultPort:
		return "DefaultPort"
	case AttrDefaultVelocity:
		return "DefaultVelocity"
	default:
		return "SongAttribute(?)"
	}
}

// ItemKind discriminates LangItem variants.
type ItemKind uint8

const (
	ItemLoop ItemKind = iota
	ItemNotePress
	ItemWait
	ItemAsm
	ItemSetAttribute
)

// LangItem is one node of the SongLang AST.
type LangItem struct {
	Kind ItemKind

	// ItemLoop
	LoopBody         []LangItem
	LoopRepetitions  *uint16 // nil means infinite

	// ItemNotePress
	Press PressLine

	// ItemWait
	WaitTime wait.WaitTime

	// ItemAsm
	Asm AsmCommand

	// ItemSetAttribute
	Attribute SongAttribute
}

func Loop(body []LangItem, repetitions *uint16) LangItem {
	return LangItem{Kind: ItemLoop, LoopBody: body, LoopRepetitions: repetitions}
}

func NotePress(line PressLine) LangItem {
	return LangItem{Kind: ItemNotePress, Press: line}
}

func WaitItem(w wait.WaitTime) LangItem {
	return LangItem{Kind: ItemWait, WaitTime: w}
}

func Asm(cmd AsmCommand) LangItem {
	return LangItem{Kind: ItemAsm, Asm: cmd}
}

func SetAttribute(attr SongAttribute) LangItem {
	return LangItem{Kind: ItemSetAttribute, Attribute: attr}
}
