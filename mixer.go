package tracker

// TickHandler is the capability a Mixer drives at every tick boundary.
// The Player implements it; the Mixer holds handlers by reference, not
// ownership, so there is no ownership cycle between the two (spec §9).
type TickHandler interface {
	OnAttachment(m *Mixer)
	OnTick(m *Mixer)
}

// Mixer owns a fixed bank of Voices, a scratch render buffer, and the
// tick scheduler that drives registered TickHandlers at sample-accurate
// boundaries before summing voice output additively. It is the only
// component that owns time.
type Mixer struct {
	outputRate int
	voices     []Voice

	scratch []float32

	handlers []TickHandler

	samplesPerTick      int
	samplesUntilNextTick int
}

// NewMixer allocates a Mixer with channelCount voices rendering at
// outputRate Hz.
func NewMixer(outputRate, channelCount int) *Mixer {
	voices := make([]Voice, channelCount)
	for i := range voices {
		voices[i] = *NewVoice()
	}
	return &Mixer{
		outputRate:     outputRate,
		voices:         voices,
		scratch:        make([]float32, 0, 1024),
		samplesPerTick: 1,
	}
}

// AttachHandler registers h and immediately invokes its OnAttachment
// hook so the handler can install its SamplesPerTick before the first
// tick is ever rendered.
func (m *Mixer) AttachHandler(h TickHandler) {
	m.handlers = append(m.handlers, h)
	h.OnAttachment(m)
}

// SetSamplesPerTick configures the tick period in output frames,
// usually derived from BPM: floor(2.5 * outputRate / tempo).
func (m *Mixer) SetSamplesPerTick(n int) { m.samplesPerTick = n }

func (m *Mixer) OutputRate() int { return m.outputRate }

// Channel returns the voice bound to channel i.
func (m *Mixer) Channel(i int) *Voice { return &m.voices[i] }

// ProcessEvent forwards a VoiceEvent to the voice it targets.
func (m *Mixer) ProcessEvent(e VoiceEvent) {
	m.voices[e.Channel].ProcessEvent(e)
}

// Render is the pull entry point: it fills out with exactly len(out)
// frames, firing every TickHandler at each tick boundary crossed along
// the way. Within a tick, all handlers fire before any frame of that
// tick is rendered; voice contributions within a frame span are summed
// commutatively.
func (m *Mixer) Render(out []float32) {
	for i := range out {
		out[i] = 0
	}

	if cap(m.scratch) < len(out) {
		m.scratch = make([]float32, len(out))
	}
	scratch := m.scratch[:len(out)]

	n := len(out)
	for n > 0 {
		if m.samplesUntilNextTick == 0 {
			for _, h := range m.handlers {
				h.OnTick(m)
			}
			m.samplesUntilNextTick = m.samplesPerTick
		}

		take := m.samplesUntilNextTick
		if take > n {
			take = n
		}

		for v := range m.voices {
			m.voices[v].Render(scratch[:take], m.outputRate)
			for i := 0; i < take; i++ {
				out[i] += scratch[i]
			}
		}

		out = out[take:]
		n -= take
		m.samplesUntilNextTick -= take
	}
}
