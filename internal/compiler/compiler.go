// Package compiler lowers a SongLang AST (internal/lang) into a compiled
// track (internal/track): it assigns dense output-port indices, resolves
// jump labels via a fix-up backlog, expands chord presses into individual
// note-on/note-off instructions, and enforces the header-only placement of
// song attributes.
//
// The lowering is grounded on the teacher's internal/asm.Assembler: a single
// forward pass over the source, a label table filled in as labels are
// defined, and a backlog of not-yet-resolved forward references that either
// all resolve by the end of the pass or the compile fails.
package compiler

import (
	"fmt"

	"github.com/ischeinkman/seqcore/internal/lang"
	"github.com/ischeinkman/seqcore/internal/midi"
	"github.com/ischeinkman/seqcore/internal/track"
	"github.com/ischeinkman/seqcore/internal/wait"
)

// Options carries the song-wide defaults in effect before any header
// attribute overrides them.
type Options struct {
	DefaultBpm      wait.BpmInfo
	DefaultDuration wait.WaitTime
	DefaultChannel  midi.MidiChannel
	DefaultVelocity midi.PressVelocity

	// EmitNoteOffs controls whether chord presses schedule a matching
	// note-off after their duration elapses. Resolves open question 1
	// (DESIGN.md): true by default, since a sequencer that never turns
	// notes back off is an incomplete one.
	EmitNoteOffs bool
}

// DefaultOptions returns the song-wide defaults used when the AST doesn't
// override them via a header attribute: 120bpm/32 ticks-per-beat, a 1-tick
// default duration, channel 0, velocity 90, note-offs on.
func DefaultOptions() Options {
	return Options{
		DefaultBpm:      wait.DefaultBpmInfo(),
		DefaultDuration: wait.Ticks(1),
		DefaultChannel:  midi.NewMidiChannel(0),
		DefaultVelocity: mustVelocity(90),
		EmitNoteOffs:    true,
	}
}

func mustVelocity(raw uint8) midi.PressVelocity {
	v, err := midi.ParsePressVelocity(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// LabelNotFoundError reports a jump or asm.jump referencing a label that was
// never defined anywhere in the song.
type LabelNotFoundError struct {
	Label string
}

func (e LabelNotFoundError) Error() string {
	return fmt.Sprintf("compiler: label %q referenced but never defined", e.Label)
}

// DuplicateLabelError reports the same label name defined twice.
type DuplicateLabelError struct {
	Label string
}

func (e DuplicateLabelError) Error() string {
	return fmt.Sprintf("compiler: label %q defined more than once", e.Label)
}

// AttributeOutsideHeaderError reports a song attribute appearing after the
// first non-attribute item, violating header discipline.
type AttributeOutsideHeaderError struct {
	Attribute lang.SongAttribute
}

func (e AttributeOutsideHeaderError) Error() string {
	return fmt.Sprintf("compiler: attribute %s must appear before the first note, wait or asm item", e.Attribute)
}

// DuplicateAttributeError reports the same attribute kind set twice in the
// header.
type DuplicateAttributeError struct {
	Attribute lang.SongAttribute
}

func (e DuplicateAttributeError) Error() string {
	return fmt.Sprintf("compiler: attribute %s set more than once", e.Attribute)
}

// PortTable maps the output port labels encountered while compiling to the
// dense indices the compiled track's SendMessage instructions reference.
// The unnamed default port is always index 0.
type PortTable struct {
	byName map[string]track.OutputPort
}

// Default returns the zero-valued default output port.
func (t PortTable) Default() track.OutputPort { return track.NewOutputPort(0) }

// Lookup returns the port assigned to a named label, if that label was ever
// referenced while compiling.
func (t PortTable) Lookup(name string) (track.OutputPort, bool) {
	p, ok := t.byName[name]
	return p, ok
}

// Names returns every named port label encountered, in no particular order.
func (t PortTable) Names() []string {
	out := make([]string, 0, len(t.byName))
	for name := range t.byName {
		out = append(out, name)
	}
	return out
}

type jumpFixup struct {
	index int
}

type compiler struct {
	opts Options

	events []track.TrackEvent

	labels  map[string]int
	backlog map[string][]jumpFixup

	ports    map[string]int
	portNext int

	headerClosed bool
	setAttrs     map[lang.AttributeKind]bool

	bpm             wait.BpmInfo
	defaultDuration wait.WaitTime
	defaultChannel  midi.MidiChannel
	defaultVelocity midi.PressVelocity
	defaultPort     lang.OutputLabel
}

// Compile lowers items into a compiled track under opts.
func Compile(items []lang.LangItem, opts Options) (track.Slice, PortTable, error) {
	c := &compiler{
		opts:            opts,
		labels:          make(map[string]int),
		backlog:         make(map[string][]jumpFixup),
		ports:           map[string]int{"": 0},
		portNext:        1,
		setAttrs:        make(map[lang.AttributeKind]bool),
		bpm:             opts.DefaultBpm,
		defaultDuration: opts.DefaultDuration,
		defaultChannel:  opts.DefaultChannel,
		defaultVelocity: opts.DefaultVelocity,
		defaultPort:     lang.DefaultOutputLabel(),
	}

	if err := c.compileHeaderAndBody(items); err != nil {
		return nil, PortTable{}, err
	}
	c.events = append(c.events, track.End())

	for label, fixups := range c.backlog {
		idx, ok := c.labels[label]
		if !ok {
			return nil, PortTable{}, LabelNotFoundError{Label: label}
		}
		for _, f := range fixups {
			c.events[f.index].Target = idx
		}
	}

	byName := make(map[string]track.OutputPort, len(c.ports))
	for name, idx := range c.ports {
		if name == "" {
			continue
		}
		byName[name] = track.NewOutputPort(idx)
	}
	return track.Slice(c.events), PortTable{byName: byName}, nil
}

// compileHeaderAndBody applies the header of leading attributes, then
// compiles the remaining items. A leading SetBpm instruction is only
// emitted when the header set an explicit signature attribute: a song with
// no signature carries no SetBpm at all and relies on the cursor's
// initialBpm fallback, matching the original compiler's encounter_setattr
// (a SetBpm instruction is only ever pushed for a Signature attribute).
func (c *compiler) compileHeaderAndBody(items []lang.LangItem) error {
	headerLen := 0
	for _, it := range items {
		if it.Kind != lang.ItemSetAttribute {
			break
		}
		headerLen++
	}
	for _, it := range items[:headerLen] {
		if err := c.applyHeaderAttribute(it.Attribute); err != nil {
			return err
		}
	}
	if c.setAttrs[lang.AttrSignature] {
		c.events = append(c.events, track.SetBpm(c.bpm))
	}
	c.headerClosed = true

	return c.compileItems(items[headerLen:])
}

func (c *compiler) applyHeaderAttribute(attr lang.SongAttribute) error {
	if c.setAttrs[attr.Kind] {
		return DuplicateAttributeError{Attribute: attr}
	}
	c.setAttrs[attr.Kind] = true
	switch attr.Kind {
	case lang.AttrSignature:
		c.bpm = attr.Signature
	case lang.AttrDefaultDuration:
		c.defaultDuration = attr.Duration
	case lang.AttrDefaultChannel:
		c.defaultChannel = attr.Channel
	case lang.AttrDefaultPort:
		c.defaultPort = attr.Port
	case lang.AttrDefaultVelocity:
		c.defaultVelocity = attr.Velocity
	}
	return nil
}

func (c *compiler) compileItems(items []lang.LangItem) error {
	for _, it := range items {
		if err := c.compileItem(it); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileItem(it lang.LangItem) error {
	if it.Kind == lang.ItemSetAttribute {
		return AttributeOutsideHeaderError{Attribute: it.Attribute}
	}
	switch it.Kind {
	case lang.ItemLoop:
		return c.compileLoop(it)
	case lang.ItemNotePress:
		return c.compilePress(it.Press)
	case lang.ItemWait:
		c.events = append(c.events, track.Wait(it.WaitTime))
		return nil
	case lang.ItemAsm:
		return c.compileAsm(it.Asm)
	default:
		return fmt.Errorf("compiler: unknown item kind %d", it.Kind)
	}
}

// compileLoop lowers a loop into its body followed by a jump back to the
// body's first instruction. A nil repetition count is an unconditional
// (infinite) jump; an explicit count of n repeats the body n-1 more times
// after the first pass before falling through, matching the "taken N times
// then fall through" residual-counter semantics of internal/track. The jump
// count is max(n-1, 1), so a count of 0 or 1 still repeats the body once
// (two passes in total).
func (c *compiler) compileLoop(it lang.LangItem) error {
	bodyStart := len(c.events)
	if err := c.compileItems(it.LoopBody); err != nil {
		return err
	}
	var count *uint16
	if it.LoopRepetitions != nil {
		n := *it.LoopRepetitions
		if n == 0 {
			n = 1
		} else {
			n--
		}
		if n == 0 {
			n = 1
		}
		count = &n
	}
	c.events = append(c.events, track.Jump(bodyStart, count))
	return nil
}

func (c *compiler) compileAsm(cmd lang.AsmCommand) error {
	switch cmd.Op {
	case lang.AsmWait:
		c.events = append(c.events, track.Wait(cmd.Wait))
	case lang.AsmSend:
		label := c.defaultPort
		if cmd.HasPort {
			label = cmd.Port
		}
		port := c.ensurePort(label)
		c.events = append(c.events, track.SendMessage(cmd.Message, port))
	case lang.AsmSetBpm:
		c.events = append(c.events, track.SetBpm(cmd.Bpm))
	case lang.AsmJump:
		idx := len(c.events)
		c.events = append(c.events, track.Jump(-1, cmd.Count))
		if target, ok := c.labels[cmd.Label]; ok {
			c.events[idx].Target = target
		} else {
			c.backlog[cmd.Label] = append(c.backlog[cmd.Label], jumpFixup{index: idx})
		}
	case lang.AsmLabel:
		if _, dup := c.labels[cmd.Label]; dup {
			return DuplicateLabelError{Label: cmd.Label}
		}
		idx := len(c.events)
		c.labels[cmd.Label] = idx
		for _, f := range c.backlog[cmd.Label] {
			c.events[f.index].Target = idx
		}
		delete(c.backlog, cmd.Label)
	default:
		return fmt.Errorf("compiler: unknown asm op %d", cmd.Op)
	}
	return nil
}

func (c *compiler) ensurePort(label lang.OutputLabel) track.OutputPort {
	name := ""
	if label.Named {
		name = label.Name
	}
	if idx, ok := c.ports[name]; ok {
		return track.NewOutputPort(idx)
	}
	idx := c.portNext
	c.ports[name] = idx
	c.portNext++
	return track.NewOutputPort(idx)
}
