package tracker

// LoopKind describes how a Sample behaves once playback reaches the end
// of its loop region.
type LoopKind int

const (
	// LoopNone plays the sample once and then renders silence.
	LoopNone LoopKind = iota
	// LoopForward restarts playback at LoopBegin once LoopEnd is reached.
	LoopForward
)

// LoopParams describes the loop region of a Sample. A zero-value
// LoopParams plays the sample once, start to end. End of 0 means "the
// rest of the sample", matching spec's "end defaults to length when
// unspecified".
type LoopParams struct {
	Kind  LoopKind
	Begin int
	End   int
}

// DefaultLoop loops the whole of a sample forward. The loaders do not
// use it: a sample without a loop flag is loaded with LoopNone.
var DefaultLoop = LoopParams{Kind: LoopForward}

// Sample is an immutable ordered sequence of floats in [-1, 1], paired
// with the playback rate (Hz) at which the sample sounds as note C-5
// and its loop parameters. Samples are produced by a loader and owned
// by a Module; the playback core never mutates them.
type Sample struct {
	Data         []float32
	PlaybackRate int

	LoopKind  LoopKind
	LoopBegin int
	LoopEnd   int
}

// NewSample builds a Sample from loaded float data. loop.End of 0 is
// treated as len(data).
func NewSample(data []float32, playbackRate int, loop LoopParams) *Sample {
	end := loop.End
	if end == 0 {
		end = len(data)
	}
	return &Sample{
		Data:         data,
		PlaybackRate: playbackRate,
		LoopKind:     loop.Kind,
		LoopBegin:    loop.Begin,
		LoopEnd:      end,
	}
}

// Length returns the total number of frames backing the sample.
func (s *Sample) Length() int { return len(s.Data) }

// LoopLength returns the span of the loop region, end - begin.
func (s *Sample) LoopLength() int { return s.LoopEnd - s.LoopBegin }

// At returns the sample frame at the exact index i, no interpolation.
func (s *Sample) At(i int) float32 { return s.Data[i] }

// AtFrac linearly interpolates the sample value at fractional index i.
// The caller must ensure i < LoopEnd; wrapping past LoopEnd is only
// meaningful within a single interpolation step (i.e. i is within one
// frame of LoopEnd), which is how Voice.Render uses it.
func (s *Sample) AtFrac(i float32) float32 {
	whole := int(i)
	t := i - float32(whole)
	next := whole + 1
	if next >= s.LoopEnd {
		next -= s.LoopLength()
	}
	v0 := s.Data[whole]
	v1 := s.Data[next]
	return v0 + t*(v1-v0)
}
