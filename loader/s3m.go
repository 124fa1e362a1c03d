// Package loader decodes Scream Tracker 3 (S3M) and Impulse Tracker
// (IT) module files into tracker.Module values the core playback
// engine can run directly.
package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	tracker "github.com/danielpiron/ImpulseTrackerMusicPlayer"
)

// ErrInvalidS3M is returned when data doesn't carry the 'SCRM' magic.
var ErrInvalidS3M = errors.New("loader: not an S3M file")

type s3mHeader struct {
	Title             [28]byte
	Pad               byte
	Filetype          byte
	_                 uint16
	OrderCount        uint16
	InstrumentCount   uint16
	PatternCount      uint16
	Flags             uint16
	TrackerVersion    uint16
	SampleFormat      uint16
	Magic             [4]byte // 'SCRM'
	GlobalVolume      uint8
	Speed             uint8
	Tempo             uint8
	MasterVolume      uint8
	UltraClickRemoval uint8
	DefaultPan        uint8
	_                 [8]byte
	_                 [2]byte
	ChannelSettings   [32]byte
}

type s3mInstrumentHeader struct {
	Type         byte
	Filename     [12]byte
	MemSegHi     byte
	MemSegLo     uint16
	SampleLength uint16
	_            uint16
	LoopBegin    uint16
	_            uint16
	LoopEnd      uint16
	_            uint16
	Volume       byte
	_            byte
	Packing      byte
	Flags        byte
	C2Speed      uint16
	_            uint16
	_            [12]byte
	Name         [28]byte
	Magic        [4]byte // 'SCRS'
}

// LoadS3M decodes an S3M module. Only unsigned 8-bit, uncompressed
// sample data is supported, matching spec's Non-goal on compressed and
// 16-bit samples.
func LoadS3M(data []byte) (*tracker.Module, error) {
	if len(data) < 48 || string(data[44:48]) != "SCRM" {
		return nil, ErrInvalidS3M
	}

	r := bytes.NewReader(data)

	var header s3mHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("loader: s3m header: %w", err)
	}

	channelCount := 32
	for i, b := range header.ChannelSettings {
		if b == 0xFF {
			channelCount = i
			break
		}
	}

	order := make([]byte, header.OrderCount)
	if _, err := io.ReadFull(r, order); err != nil {
		return nil, fmt.Errorf("loader: s3m order list: %w", err)
	}

	pointers := make([]uint16, int(header.InstrumentCount)+int(header.PatternCount))
	if err := binary.Read(r, binary.LittleEndian, pointers); err != nil {
		return nil, fmt.Errorf("loader: s3m parapointers: %w", err)
	}
	instrumentPointers := pointers[:header.InstrumentCount]
	patternPointers := pointers[header.InstrumentCount:]

	samples := make([]tracker.ModuleSample, len(instrumentPointers))
	for i, p := range instrumentPointers {
		s, err := loadS3MSample(r, int64(p)*16)
		if err != nil {
			return nil, fmt.Errorf("loader: s3m instrument %d: %w", i, err)
		}
		samples[i] = s
	}

	patterns := make([]*tracker.Pattern, len(patternPointers))
	for i, p := range patternPointers {
		pat, err := loadS3MPattern(r, int64(p)*16, channelCount)
		if err != nil {
			return nil, fmt.Errorf("loader: s3m pattern %d: %w", i, err)
		}
		patterns[i] = pat
	}

	return &tracker.Module{
		Title:        trimZeroPadded(header.Title[:]),
		Samples:      samples,
		Patterns:     patterns,
		PatternOrder: order,
		ChannelCount: channelCount,
		InitialSpeed: int(header.Speed),
		InitialTempo: int(header.Tempo),
	}, nil
}

// trimZeroPadded trims the trailing NUL padding off a fixed-width
// title/name field from an S3M or IT header.
func trimZeroPadded(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func loadS3MSample(r *bytes.Reader, offset int64) (tracker.ModuleSample, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return tracker.ModuleSample{}, err
	}
	var inst s3mInstrumentHeader
	if err := binary.Read(r, binary.LittleEndian, &inst); err != nil {
		return tracker.ModuleSample{}, err
	}
	if inst.Type > 1 {
		return tracker.ModuleSample{}, fmt.Errorf("unsupported sample type %d", inst.Type)
	}
	if inst.Flags&4 == 4 {
		return tracker.ModuleSample{}, errors.New("16-bit samples are not supported")
	}

	raw := make([]byte, inst.SampleLength)
	if inst.SampleLength > 0 {
		dataOffset := int64(uint32(inst.MemSegHi)<<16|uint32(inst.MemSegLo)) * 16
		if _, err := r.Seek(dataOffset, io.SeekStart); err != nil {
			return tracker.ModuleSample{}, err
		}
		if _, err := io.ReadFull(r, raw); err != nil {
			return tracker.ModuleSample{}, err
		}
	}

	floats := make([]float32, len(raw))
	for i, b := range raw {
		floats[i] = float32(b)/255*2 - 1
	}

	loop := tracker.LoopParams{Kind: tracker.LoopNone}
	if inst.Flags&1 == 1 {
		loop = tracker.LoopParams{
			Kind:  tracker.LoopForward,
			Begin: int(inst.LoopBegin),
			End:   int(inst.LoopEnd),
		}
	}

	return tracker.ModuleSample{
		Sample:        tracker.NewSample(floats, int(inst.C2Speed), loop),
		DefaultVolume: int(inst.Volume),
	}, nil
}

// loadS3MPattern decodes the RLE packed-row format: each byte is either
// 0 (end of row) or a control byte whose low 5 bits select a channel
// and whose top 3 bits flag which of note+instrument/volume/effect
// follow.
func loadS3MPattern(r *bytes.Reader, offset int64, channelCount int) (*tracker.Pattern, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	var packedLen uint16
	if err := binary.Read(r, binary.LittleEndian, &packedLen); err != nil {
		return nil, err
	}
	packed := make([]byte, packedLen)
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, err
	}

	const rowCount = 64
	pattern := tracker.NewPattern(channelCount, rowCount)

	buf := bytes.NewReader(packed)
	row := 0
	for row < rowCount {
		control, err := buf.ReadByte()
		if err == io.EOF {
			break
		}
		if control == 0 {
			row++
			continue
		}

		channel := int(control & 0x1F)
		var entry tracker.PatternEntry
		if channel < channelCount {
			entry = *pattern.Entry(channel, row)
		}

		if control&32 != 0 {
			note, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			inst, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			switch note {
			case 254:
				entry.Note = tracker.Note{Kind: tracker.NoteOff}
			case 255:
				// No note; leave entry.Note untouched (empty).
			default:
				// S3M's octave nibble is one lower than the tracker's
				// octave numbering (matches the original S3M loader).
				entry.Note = tracker.Note{
					Kind:   tracker.NotePlayable,
					Index:  int(note & 0x0F),
					Octave: int(note>>4) + 1,
				}
			}
			entry.Instrument = int(inst)
		}

		if control&64 != 0 {
			vol, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			entry.VolumeEffect = tracker.Effect{Command: tracker.CmdSetVolume, Data: vol}
		}

		if control&128 != 0 {
			comm, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			info, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			command := s3mCommandToCommand(comm)
			if command == tracker.CmdBreakToRow {
				info = (info>>4)*10 + (info & 0x0F)
			}
			entry.Effect = tracker.Effect{Command: command, Data: info}
		}

		if channel < channelCount {
			*pattern.Entry(channel, row) = entry
		}
	}
	return pattern, nil
}

// s3mCommandToCommand converts S3M's 1-based effect-letter index (1='A')
// into a tracker.Command. S3M's own command set only uses a handful of
// these letters in practice, but the encoding covers the same alphabet
// IT does, so the mapping is shared through CommandFromLetter.
func s3mCommandToCommand(comm byte) tracker.Command {
	if comm == 0 {
		return tracker.CmdNone
	}
	return tracker.CommandFromLetter('A' + comm - 1)
}
