// Package hostaudio is a concrete, runnable internal/driver.Host backed by
// an SDL2 audio device opened in queue mode (no SDL callback is installed):
// the caller paces the realtime cycles itself, queuing one cycle of silence
// per cycle with PumpSilence, and each sequencer output port gets a small
// mutex-guarded, fixed-capacity message ring a real MIDI backend (out of
// scope for this module) would drain on its own thread — this package
// produces that ring, not a wire transport.
//
// Grounded on the teacher's internal/ui.go: sdl.Init, AudioSpec{Freq:44100,
// Format:AUDIO_F32, Channels:2, Samples:735}, OpenAudioDevice, QueueAudio —
// reused nearly line for line, but queuing silence instead of rendered PCM,
// and backed by per-port MIDI rings instead of a single PCM buffer.
package hostaudio

import (
	"fmt"
	"sync"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/ischeinkman/seqcore/internal/driver"
	"github.com/ischeinkman/seqcore/internal/midi"
	"github.com/ischeinkman/seqcore/internal/track"
)

const (
	sampleRate     = 44100
	samplesPerCall = 735
)

// portRing is a small fixed-capacity ring recording (frameOffset, message)
// pairs for one output port. Write refuses entries beyond its capacity so it
// never grows; it is emptied only when DrainPort is called for its port.
type portRing struct {
	mu       sync.Mutex
	messages []ringEntry
	cap      int
}

type ringEntry struct {
	raw    midi.RawMessage
	offset uint32
}

func newPortRing(capacity int) *portRing {
	return &portRing{messages: make([]ringEntry, 0, capacity), cap: capacity}
}

// Write implements driver.PortWriter.
func (r *portRing) Write(raw midi.RawMessage, frameOffset uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) >= r.cap {
		return driver.ErrNotEnoughSpace
	}
	r.messages = append(r.messages, ringEntry{raw: raw, offset: frameOffset})
	return nil
}

// Drain returns and clears everything queued this cycle, for a real MIDI
// backend to consume.
func (r *portRing) Drain() []ringEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ringEntry, len(r.messages))
	copy(out, r.messages)
	r.messages = r.messages[:0]
	return out
}

// Host implements driver.Host against a real SDL2 audio device that is only
// ever fed silence; it installs no SDL callback and carries no PCM
// rendering of its own.
type Host struct {
	deviceID sdl.AudioDeviceID
	rings    []*portRing
}

// Open opens an SDL2 audio device with portCount output port rings, each
// able to hold ringCapacity pending messages.
func Open(portCount, ringCapacity int) (*Host, error) {
	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("hostaudio: sdl init: %w", err)
	}
	h := &Host{rings: make([]*portRing, portCount)}
	for i := range h.rings {
		h.rings[i] = newPortRing(ringCapacity)
	}

	spec := &sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_F32,
		Channels: 2,
		Samples:  samplesPerCall,
	}
	deviceID, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("hostaudio: open audio device: %w", err)
	}
	h.deviceID = deviceID
	sdl.PauseAudioDevice(deviceID, false)
	return h, nil
}

// Close shuts the audio device down.
func (h *Host) Close() {
	sdl.CloseAudioDevice(h.deviceID)
}

// PumpSilence queues one cycle's worth of silent PCM, the same shape as the
// teacher's QueueAudio call, just to keep the device's internal clock
// advancing at the configured sample rate. A caller should follow every
// PumpSilence with a driver.Fill call sized to the same cycle.
func (h *Host) PumpSilence() error {
	buf := make([]float32, samplesPerCall*2)
	return sdl.QueueAudio(h.deviceID, buf)
}

// Writer implements driver.Host.
func (h *Host) Writer(port track.OutputPort) (driver.PortWriter, error) {
	idx := port.Index()
	if idx < 0 || idx >= len(h.rings) {
		return nil, fmt.Errorf("hostaudio: no such port %d", idx)
	}
	return h.rings[idx], nil
}

// PortCount implements driver.Host.
func (h *Host) PortCount() int { return len(h.rings) }

// FramesToTime implements driver.Host.
func (h *Host) FramesToTime(frames uint64) time.Duration {
	return time.Duration(frames) * time.Second / sampleRate
}

// TimeToFrames implements driver.Host.
func (h *Host) TimeToFrames(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d) * sampleRate / uint64(time.Second)
}

// DrainPort returns and clears the pending messages for one port, for a
// real MIDI backend to forward.
func (h *Host) DrainPort(port track.OutputPort) ([]midi.RawMessage, []uint32) {
	idx := port.Index()
	if idx < 0 || idx >= len(h.rings) {
		return nil, nil
	}
	entries := h.rings[idx].Drain()
	raws := make([]midi.RawMessage, len(entries))
	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		raws[i] = e.raw
		offsets[i] = e.offset
	}
	return raws, offsets
}
