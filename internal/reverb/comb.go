// Package reverb implements a simple incremental comb-filter reverb
// over mono float32 audio, applied as a post-processing stage outside
// the playback core.
package reverb

// Reverber is the capability a CLI audio callback feeds its raw mixer
// output through before it reaches the output device.
type Reverber interface {
	InputSamples(in []float32) int
	GetAudio(out []float32) int
}

// PassThrough implements Reverber but leaves the audio untouched,
// buffering it only enough to satisfy the InputSamples/GetAudio
// producer-consumer contract.
type PassThrough struct {
	audio             []float32
	bufSize           int
	readPos, writePos int
	n                 int
}

var _ Reverber = &PassThrough{}

// NewPassThrough creates a PassThrough with room for bufferSize samples.
func NewPassThrough(bufferSize int) *PassThrough {
	return &PassThrough{
		audio:   make([]float32, bufferSize),
		bufSize: bufferSize,
	}
}

func (r *PassThrough) InputSamples(in []float32) int {
	free := r.bufSize - r.n
	n := len(in)
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	if r.writePos+n >= r.bufSize {
		n1 := r.bufSize - r.writePos
		n2 := n - n1
		copy(r.audio[r.writePos:r.writePos+n1], in[:n1])
		copy(r.audio[:n2], in[n1:n1+n2])
		r.writePos = n2
	} else {
		copy(r.audio[r.writePos:r.writePos+n], in[:n])
		r.writePos += n
	}
	r.n += n
	return n
}

func (r *PassThrough) GetAudio(out []float32) int {
	n := len(out)
	if n > r.n {
		n = r.n
	}
	if n == 0 {
		return 0
	}

	if r.readPos+n > r.bufSize {
		n1 := r.bufSize - r.readPos
		n2 := n - n1
		copy(out[:n1], r.audio[r.readPos:r.readPos+n1])
		copy(out[n1:n], r.audio[:n2])
		r.readPos = n2
	} else {
		copy(out[:n], r.audio[r.readPos:r.readPos+n])
		r.readPos += n
	}
	r.n -= n
	return n
}

// CombFixed is a Comb filter fed audio incrementally. It has no upper
// bound on memory used and never discards used samples.
type CombFixed struct {
	audio       []float32
	delayOffset int
	decay       float32
	readPos     int
	writePos    int
}

var _ Reverber = &CombFixed{}

// NewCombFixed builds a CombFixed with a delay line of delayMs
// milliseconds at sampleRate and the given decay, pre-sized to hold
// initialSize samples before it needs to grow.
func NewCombFixed(initialSize int, decay float32, delayMs, sampleRate int) *CombFixed {
	return &CombFixed{
		delayOffset: (delayMs * sampleRate) / 1000,
		audio:       make([]float32, 0, initialSize),
		decay:       decay,
	}
}

// InputSamples feeds new audio data. Once enough samples have
// accumulated, it starts applying the delayed decayed copy to audio
// already in the buffer. It returns the number of samples still
// required before reverb output becomes available.
func (c *CombFixed) InputSamples(in []float32) int {
	c.audio = append(c.audio, in...)
	if len(c.audio) > c.delayOffset {
		ns := len(c.audio) - (c.delayOffset + c.writePos)
		for i := 0; i < ns; i++ {
			c.audio[i+c.delayOffset+c.writePos] += c.audio[i+c.writePos] * c.decay
		}
		c.writePos += ns
	}
	rem := c.delayOffset - len(c.audio)
	if rem < 0 {
		rem = 0
	}
	return rem
}

// GetAudio puts processed audio data into out, returning the number of
// samples actually written.
func (c *CombFixed) GetAudio(out []float32) int {
	wanted := len(out)
	have := len(c.audio) - c.readPos
	if wanted > have {
		wanted = have
	}
	if wanted > 0 {
		copy(out, c.audio[c.readPos:c.readPos+wanted])
		c.readPos += wanted
	}
	return wanted
}
