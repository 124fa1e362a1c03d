package tracker

import "testing"

func TestVoiceDefaultsAreUnityFrequencyAndVolume(t *testing.T) {
	v := NewVoice()
	if v.Frequency() != 1.0 || v.Volume() != 1.0 {
		t.Fatalf("NewVoice() = {freq:%v vol:%v}, want {1, 1}", v.Frequency(), v.Volume())
	}
	if v.Active() {
		t.Fatal("NewVoice() should not be active")
	}
}

func TestVoiceRenderSilentWhenInactive(t *testing.T) {
	v := NewVoice()
	out := []float32{1, 1, 1}
	v.Render(out, 44100)
	for i, s := range out {
		if s != 0 {
			t.Errorf("out[%d] = %v, want 0", i, s)
		}
	}
}

func TestVoiceRenderAtUnitySpeedAdvancesOneFramePerSample(t *testing.T) {
	s := NewSample([]float32{0, 1, 2, 3, 4, 5}, 1, LoopParams{Kind: LoopNone})
	v := NewVoice()
	v.ProcessEvent(VoiceEvent{Kind: EventSetNoteOn, Frequency: 1, Sample: s})

	out := make([]float32, 4)
	v.Render(out, 1)
	want := []float32{0, 1, 2, 3}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestVoiceRenderStopsAtEndOfNonLoopingSample(t *testing.T) {
	s := NewSample([]float32{0, 1, 2}, 1, LoopParams{Kind: LoopNone})
	v := NewVoice()
	v.Play(s)
	v.SetFrequency(1)

	out := make([]float32, 5)
	v.Render(out, 1)
	if v.Active() {
		t.Error("voice should have gone inactive after exhausting a non-looping sample")
	}
	for i := 3; i < len(out); i++ {
		if out[i] != 0 {
			t.Errorf("out[%d] = %v, want 0 past end of sample", i, out[i])
		}
	}
}

func TestVoiceRenderLoopsForward(t *testing.T) {
	s := NewSample([]float32{0, 10, 20, 30}, 1, LoopParams{Kind: LoopForward, Begin: 0, End: 4})
	v := NewVoice()
	v.Play(s)
	v.SetFrequency(1)

	out := make([]float32, 8)
	v.Render(out, 1)
	want := []float32{0, 10, 20, 30, 0, 10, 20, 30}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestVoiceSetSampleOffsetIgnoresOutOfRange(t *testing.T) {
	s := NewSample([]float32{0, 1, 2}, 1, LoopParams{Kind: LoopNone})
	v := NewVoice()
	v.Play(s)
	v.SetSampleOffset(100)
	out := make([]float32, 1)
	v.Render(out, 1)
	if out[0] != 0 {
		t.Errorf("out-of-range SetSampleOffset should be a no-op, got cursor moved: %v", out[0])
	}
}
