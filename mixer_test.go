package tracker

import "testing"

type countingHandler struct {
	attached int
	ticks    int
}

func (h *countingHandler) OnAttachment(m *Mixer) { h.attached++ }
func (h *countingHandler) OnTick(m *Mixer)       { h.ticks++ }

func TestMixerAttachHandlerFiresOnAttachment(t *testing.T) {
	m := NewMixer(44100, 1)
	h := &countingHandler{}
	m.AttachHandler(h)
	if h.attached != 1 {
		t.Fatalf("attached = %d, want 1", h.attached)
	}
}

func TestMixerTicksAtSamplesPerTickBoundaries(t *testing.T) {
	m := NewMixer(44100, 1)
	h := &countingHandler{}
	m.AttachHandler(h)
	m.SetSamplesPerTick(10)

	out := make([]float32, 25)
	m.Render(out)
	// Boundaries crossed at sample 0, 10, 20 -> 3 ticks over 25 frames.
	if h.ticks != 3 {
		t.Fatalf("ticks = %d, want 3", h.ticks)
	}
}

func TestMixerSumsVoicesAdditively(t *testing.T) {
	m := NewMixer(1, 2)
	s := NewSample([]float32{1, 1, 1, 1}, 1, LoopParams{Kind: LoopForward, Begin: 0, End: 4})
	m.ProcessEvent(VoiceEvent{Channel: 0, Kind: EventSetNoteOn, Frequency: 1, Sample: s})
	m.ProcessEvent(VoiceEvent{Channel: 0, Kind: EventSetVolume, Volume: 0.5})
	m.ProcessEvent(VoiceEvent{Channel: 1, Kind: EventSetNoteOn, Frequency: 1, Sample: s})
	m.ProcessEvent(VoiceEvent{Channel: 1, Kind: EventSetVolume, Volume: 0.25})

	out := make([]float32, 2)
	m.Render(out)
	want := float32(0.75)
	if out[0] != want {
		t.Errorf("out[0] = %v, want %v", out[0], want)
	}
}
