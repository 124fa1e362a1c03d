package reverb

import "testing"

func TestPassThroughRoundTrips(t *testing.T) {
	pt := NewPassThrough(16)
	in := []float32{0.1, 0.2, 0.3, 0.4}

	if n := pt.InputSamples(in); n != len(in) {
		t.Fatalf("InputSamples consumed %d, want %d", n, len(in))
	}

	out := make([]float32, len(in))
	if n := pt.GetAudio(out); n != len(in) {
		t.Fatalf("GetAudio returned %d, want %d", n, len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v (pass-through must not alter samples)", i, out[i], in[i])
		}
	}
}

func TestPassThroughStopsAtCapacity(t *testing.T) {
	pt := NewPassThrough(4)
	n := pt.InputSamples([]float32{1, 2, 3, 4, 5, 6})
	if n != 4 {
		t.Fatalf("InputSamples accepted %d, want 4 (buffer capacity)", n)
	}
}

func TestCombFixedAddsDelayedEcho(t *testing.T) {
	cf := NewCombFixed(64, 0.5, 1, 1000) // delayOffset = 1*1000/1000 = 1 sample

	in := make([]float32, 8)
	in[0] = 1.0
	cf.InputSamples(in)

	out := make([]float32, 8)
	cf.GetAudio(out)

	if out[1] != out[0]*0.5 {
		t.Errorf("expected sample 1 to carry the decayed echo of sample 0: out=%v", out)
	}
}

func TestCombFixedReportsSamplesNeededBeforeDelay(t *testing.T) {
	cf := NewCombFixed(64, 0.5, 10, 1000) // delayOffset = 10 samples
	rem := cf.InputSamples(make([]float32, 4))
	if rem != 6 {
		t.Fatalf("InputSamples remaining = %d, want 6", rem)
	}
}
