package tracker

// EventKind tags the payload carried by a VoiceEvent.
type EventKind int

const (
	EventSetFrequency EventKind = iota
	EventSetNoteOn
	EventSetSampleIndex
	EventSetVolume
)

// VoiceEvent is a closed sum type describing a control message the
// Player emits and the Mixer routes to a single Voice. It carries the
// destination channel index so a batch of events can be queued and
// dispatched together. Dispatch is by a switch on Kind, not
// virtual calls, so the audio path stays allocation-free.
type VoiceEvent struct {
	Channel int
	Kind    EventKind

	Frequency float32 // EventSetFrequency, EventSetNoteOn
	Sample    *Sample // EventSetNoteOn
	Index     int     // EventSetSampleIndex
	Volume    float32 // EventSetVolume
}

// Voice is one playback cursor over a borrowed Sample. A nil Sample or
// Active == false renders silence.
type Voice struct {
	sample    *Sample
	cursor    float32
	frequency float32
	volume    float32
	active    bool
}

// NewVoice returns a silent, inactive Voice with the spec defaults of
// frequency 1.0 and volume 1.0.
func NewVoice() *Voice {
	return &Voice{frequency: 1.0, volume: 1.0}
}

// Play binds sample, resets the cursor to 0, and marks the voice active.
func (v *Voice) Play(sample *Sample) {
	v.sample = sample
	v.cursor = 0
	v.active = true
}

// Stop silences the voice without disturbing its cursor or sample.
func (v *Voice) Stop() { v.active = false }

func (v *Voice) SetSample(sample *Sample) { v.sample = sample }
func (v *Voice) SetFrequency(hz float32)  { v.frequency = hz }
func (v *Voice) SetVolume(vol float32)    { v.volume = vol }

// SetSampleOffset jumps the cursor to frame i. It is a no-op when there
// is no sample bound or i is out of bounds, per spec's "out-of-range
// sample offset ... silently ignored".
func (v *Voice) SetSampleOffset(i int) {
	if v.sample == nil || i >= v.sample.Length() {
		return
	}
	v.cursor = float32(i)
}

func (v *Voice) Active() bool      { return v.active }
func (v *Voice) Sample() *Sample   { return v.sample }
func (v *Voice) Frequency() float32 { return v.frequency }
func (v *Voice) Volume() float32   { return v.volume }

// ProcessEvent dispatches a VoiceEvent to the matching mutator.
func (v *Voice) ProcessEvent(e VoiceEvent) {
	switch e.Kind {
	case EventSetFrequency:
		v.SetFrequency(e.Frequency)
	case EventSetNoteOn:
		v.SetFrequency(e.Frequency)
		v.Play(e.Sample)
	case EventSetSampleIndex:
		v.SetSampleOffset(e.Index)
	case EventSetVolume:
		v.SetVolume(e.Volume)
	}
}

// Render writes len(out) frames at outputRate Hz, additive-mix ready
// (each frame is the voice's contribution alone; the Mixer sums voices).
// It never reads past sample.LoopEnd.
func (v *Voice) Render(out []float32, outputRate int) {
	if !v.active || v.sample == nil {
		for i := range out {
			out[i] = 0
		}
		return
	}

	step := v.frequency / float32(outputRate)
	s := v.sample
	for i := range out {
		if v.cursor >= float32(s.LoopEnd) {
			if s.LoopKind == LoopNone {
				for j := i; j < len(out); j++ {
					out[j] = 0
				}
				v.active = false
				return
			}
			v.cursor -= float32(s.LoopLength())
		}
		out[i] = s.AtFrac(v.cursor) * v.volume
		v.cursor += step
	}
}
