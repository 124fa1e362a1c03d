package tracker

import "testing"

func TestSampleAtFracInterpolates(t *testing.T) {
	s := NewSample([]float32{0, 10, 20, 30}, 8363, LoopParams{Kind: LoopNone})
	if got := s.AtFrac(1.5); got != 15 {
		t.Errorf("AtFrac(1.5) = %v, want 15", got)
	}
	if got := s.AtFrac(0); got != 0 {
		t.Errorf("AtFrac(0) = %v, want 0", got)
	}
}

func TestSampleAtFracWrapsAcrossLoopEnd(t *testing.T) {
	s := NewSample([]float32{0, 10, 20, 30}, 8363, LoopParams{Kind: LoopForward, Begin: 0, End: 4})
	// Interpolating between the last frame and LoopEnd should take its
	// second point from the loop start rather than reading past the end
	// of Data.
	got := s.AtFrac(3.5)
	want := float32(0.5)*s.At(3) + float32(0.5)*s.At(0)
	if got != want {
		t.Errorf("AtFrac(3.5) = %v, want %v", got, want)
	}
}

func TestSampleLoopLength(t *testing.T) {
	s := NewSample(make([]float32, 100), 8363, LoopParams{Kind: LoopForward, Begin: 10, End: 90})
	if got := s.LoopLength(); got != 80 {
		t.Errorf("LoopLength() = %v, want 80", got)
	}
}
