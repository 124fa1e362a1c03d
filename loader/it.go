package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	tracker "github.com/danielpiron/ImpulseTrackerMusicPlayer"
)

// ErrInvalidIT is returned when data doesn't carry the 'IMPM' magic.
var ErrInvalidIT = errors.New("loader: not an IT file")

// itChannelCount is the format's fixed channel ceiling; unused channels
// simply never receive pattern entries and stay silent.
const itChannelCount = 64

type itHeader struct {
	Magic           [4]byte // 'IMPM'
	SongName        [26]byte
	PatternHighlight uint16
	OrderCount      uint16
	InstrumentCount uint16
	SampleCount     uint16
	PatternCount    uint16
	CreatedWith     uint16
	CompatibleWith  uint16
	Flags           uint16
	Special         uint16
	GlobalVolume    uint8
	MixVolume       uint8
	Speed           uint8
	Tempo           uint8
	PanSeparation   uint8
	PitchWheelDepth uint8
}

type itSampleHeader struct {
	Magic        [4]byte // 'IMPS'
	Filename     [12]byte
	_            byte
	GlobalVolume byte
	Flags        byte
	DefaultVolume byte
	SampleName   [26]byte
	Convert      byte
	DefaultPan   byte
	Length       uint32
	LoopBegin    uint32
	LoopEnd      uint32
	C5Speed      uint32
	SusLoopBegin uint32
	SusLoopEnd   uint32
	SamplePointer uint32
	VibratoSpeed uint8
	VibratoDepth uint8
	VibratoRate  uint8
	VibratoWaveform uint8
}

// LoadIT decodes an Impulse Tracker module. Instruments (envelopes,
// multi-sample mapping) are not loaded, matching spec's Non-goal on IT
// extended instruments; each IT "sample" becomes one tracker.Sample
// directly. Compressed and 16-bit sample data are not supported.
func LoadIT(data []byte) (*tracker.Module, error) {
	if len(data) < 4 || string(data[:4]) != "IMPM" {
		return nil, ErrInvalidIT
	}

	r := bytes.NewReader(data)
	var header itHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("loader: it header: %w", err)
	}

	if _, err := r.Seek(0xc0, io.SeekStart); err != nil {
		return nil, err
	}
	order := make([]byte, header.OrderCount)
	if _, err := io.ReadFull(r, order); err != nil {
		return nil, fmt.Errorf("loader: it order list: %w", err)
	}

	instrumentPointers := make([]uint32, header.InstrumentCount)
	if err := binary.Read(r, binary.LittleEndian, instrumentPointers); err != nil {
		return nil, fmt.Errorf("loader: it instrument pointers: %w", err)
	}
	samplePointers := make([]uint32, header.SampleCount)
	if err := binary.Read(r, binary.LittleEndian, samplePointers); err != nil {
		return nil, fmt.Errorf("loader: it sample pointers: %w", err)
	}
	patternPointers := make([]uint32, header.PatternCount)
	if err := binary.Read(r, binary.LittleEndian, patternPointers); err != nil {
		return nil, fmt.Errorf("loader: it pattern pointers: %w", err)
	}

	samples := make([]tracker.ModuleSample, len(samplePointers))
	for i, p := range samplePointers {
		s, err := loadITSample(r, int64(p))
		if err != nil {
			return nil, fmt.Errorf("loader: it sample %d: %w", i, err)
		}
		samples[i] = s
	}

	patterns := make([]*tracker.Pattern, len(patternPointers))
	for i, p := range patternPointers {
		if p == 0 {
			patterns[i] = tracker.NewPattern(itChannelCount, 64)
			continue
		}
		pat, err := loadITPattern(r, int64(p))
		if err != nil {
			return nil, fmt.Errorf("loader: it pattern %d: %w", i, err)
		}
		patterns[i] = pat
	}

	return &tracker.Module{
		Title:        trimZeroPadded(header.SongName[:]),
		Samples:      samples,
		Patterns:     patterns,
		PatternOrder: order,
		ChannelCount: itChannelCount,
		InitialSpeed: int(header.Speed),
		InitialTempo: int(header.Tempo),
	}, nil
}

func loadITSample(r *bytes.Reader, offset int64) (tracker.ModuleSample, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return tracker.ModuleSample{}, err
	}
	var header itSampleHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return tracker.ModuleSample{}, err
	}

	if header.Length == 0 {
		return tracker.ModuleSample{
			Sample:        tracker.NewSample(nil, int(header.C5Speed), tracker.LoopParams{Kind: tracker.LoopNone}),
			DefaultVolume: int(header.DefaultVolume),
		}, nil
	}

	const (
		flag16Bit  = 0x02
		flagLooped = 0x10
	)
	if header.Flags&flag16Bit != 0 {
		return tracker.ModuleSample{}, errors.New("16-bit samples are not supported")
	}
	if header.Convert&0x04 != 0 {
		return tracker.ModuleSample{}, errors.New("compressed samples are not supported")
	}

	raw := make([]int8, header.Length)
	if _, err := r.Seek(int64(header.SamplePointer), io.SeekStart); err != nil {
		return tracker.ModuleSample{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return tracker.ModuleSample{}, err
	}

	floats := make([]float32, len(raw))
	for i, s := range raw {
		floats[i] = float32(s) / 128
	}

	loop := tracker.LoopParams{Kind: tracker.LoopNone}
	if header.Flags&flagLooped != 0 {
		loop = tracker.LoopParams{
			Kind:  tracker.LoopForward,
			Begin: int(header.LoopBegin),
			End:   int(header.LoopEnd),
		}
	}

	return tracker.ModuleSample{
		Sample:        tracker.NewSample(floats, int(header.C5Speed), loop),
		DefaultVolume: int(header.DefaultVolume),
	}, nil
}

// loadITPattern decodes IT's channel-mask packed-row format: a mask
// byte per channel entry carries both "what data follows" bits (1/2/4/8
// for note/instrument/volume/effect) and "reuse the last value" bits
// (16/32/64/128), with the mask itself persisted per channel across
// entries that don't resend it.
func loadITPattern(r *bytes.Reader, offset int64) (*tracker.Pattern, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	var dataLength, rowCount uint16
	if err := binary.Read(r, binary.LittleEndian, &dataLength); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &rowCount); err != nil {
		return nil, err
	}
	if _, err := r.Seek(4, io.SeekCurrent); err != nil {
		return nil, err
	}

	packed := make([]byte, dataLength)
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, err
	}

	pattern := tracker.NewPattern(itChannelCount, int(rowCount))
	var lastMask [itChannelCount]byte
	var lastEntry [itChannelCount]tracker.PatternEntry

	buf := bytes.NewReader(packed)
	row := 0
	for row < int(rowCount) {
		channelVariable, err := buf.ReadByte()
		if err == io.EOF {
			break
		}
		if channelVariable == 0 {
			row++
			continue
		}

		channel := int(channelVariable-1) & (itChannelCount - 1)
		mask := lastMask[channel]
		if channelVariable&128 != 0 {
			mask, err = buf.ReadByte()
			if err != nil {
				return nil, err
			}
		}

		entry := tracker.PatternEntry{}
		if mask&1 != 0 {
			note, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			switch note {
			case 253:
				entry.Note = tracker.Note{Kind: tracker.NoteEmpty}
			case 254:
				entry.Note = tracker.Note{Kind: tracker.NoteOff}
			case 255:
				entry.Note = tracker.Note{Kind: tracker.NoteCut}
			default:
				entry.Note = tracker.Note{Kind: tracker.NotePlayable, Index: int(note % 12), Octave: int(note / 12)}
			}
			lastEntry[channel].Note = entry.Note
		}
		if mask&2 != 0 {
			inst, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			entry.Instrument = int(inst)
			lastEntry[channel].Instrument = entry.Instrument
		}
		if mask&4 != 0 {
			vol, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			if vol <= 64 {
				entry.VolumeEffect = tracker.Effect{Command: tracker.CmdSetVolume, Data: vol}
			}
			lastEntry[channel].VolumeEffect = entry.VolumeEffect
		}
		if mask&8 != 0 {
			comm, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			info, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			command := itCommandToCommand(comm)
			if command == tracker.CmdBreakToRow {
				info = (info>>4)*10 + (info & 0x0F)
			}
			entry.Effect = tracker.Effect{Command: command, Data: info}
			lastEntry[channel].Effect = entry.Effect
		}

		if mask&16 != 0 {
			entry.Note = lastEntry[channel].Note
		}
		if mask&32 != 0 {
			entry.Instrument = lastEntry[channel].Instrument
		}
		if mask&64 != 0 {
			entry.VolumeEffect = lastEntry[channel].VolumeEffect
		}
		if mask&128 != 0 {
			entry.Effect = lastEntry[channel].Effect
		}

		*pattern.Entry(channel, row) = entry
		lastMask[channel] = mask
	}
	return pattern, nil
}

// itCommandToCommand converts IT's 1-based effect-letter index (1='A')
// into a tracker.Command via the shared letter table.
func itCommandToCommand(comm byte) tracker.Command {
	if comm == 0 {
		return tracker.CmdNone
	}
	return tracker.CommandFromLetter('A' + comm - 1)
}
