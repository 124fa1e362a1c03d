// A very simple WAVE file writer, mono 16-bit PCM.
// Wrote my own after trying out a couple of others I found but both
// required me to know the quantity of audio data before I write it.
// See http://soundfile.sapp.org/doc/WaveFormat/ for format
// documentation.
package wavfile

import (
	"encoding/binary"
	"errors"
	"io"
)

const wavTypePCM = 1

// ErrInvalidChunkHeaderLength means the provided chunk name was not 4
// characters.
var ErrInvalidChunkHeaderLength = errors.New("wavfile: chunk header name is not 4 characters")

// A Writer streams mono float32 samples into ws as 16-bit PCM, patching
// the RIFF/data chunk sizes on Finish.
type Writer struct {
	WS io.WriteSeeker
}

type format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// NewWriter returns a Writer that writes a mono WAV file to ws.
func NewWriter(ws io.WriteSeeker, sampleRate int) (*Writer, error) {
	writer := &Writer{WS: ws}

	// Zero length for now, come back and fill this later.
	if err := writer.writeChunkHeader("RIFF", 0); err != nil {
		return nil, err
	}
	if _, err := ws.Write([]byte("WAVE")); err != nil {
		return nil, err
	}

	if err := writer.writeChunkHeader("fmt ", 16); err != nil {
		return nil, err
	}
	f := format{AudioFormat: wavTypePCM, Channels: 1, SampleRate: uint32(sampleRate), BitsPerSample: 16}
	f.ByteRate = uint32(sampleRate) * 1 * (16 / 8)
	f.BlockAlign = 1 * (16 / 8)
	if err := binary.Write(ws, binary.LittleEndian, f); err != nil {
		return nil, err
	}

	if err := writer.writeChunkHeader("data", 0); err != nil {
		return nil, err
	}

	return writer, nil
}

// WriteFrame writes the provided mono float32 samples, clamped to
// [-1, 1] and converted to 16-bit PCM.
func (w *Writer) WriteFrame(samples []float32) error {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		pcm[i] = int16(s * 32767)
	}
	return binary.Write(w.WS, binary.LittleEndian, pcm)
}

// Finish updates the placeholder RIFF/data chunk sizes with the actual
// total length once all audio data has been written.
func (w *Writer) Finish() (int64, error) {
	wlen, err := w.WS.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	offset, err := w.WS.Seek(4, io.SeekStart)
	if offset != 4 || err != nil {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-8)); err != nil {
		return 0, err
	}
	offset, err = w.WS.Seek(40, io.SeekStart)
	if offset != 40 || err != nil {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-44)); err != nil {
		return 0, err
	}

	return wlen, nil
}

func (w *Writer) writeChunkHeader(chunk string, initialSize int) error {
	if len(chunk) != 4 {
		return ErrInvalidChunkHeaderLength
	}
	if n, err := w.WS.Write([]byte(chunk)); n != 4 || err != nil {
		return err
	}
	return binary.Write(w.WS, binary.LittleEndian, int32(initialSize))
}
