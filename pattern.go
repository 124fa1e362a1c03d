package tracker

import (
	"fmt"
	"strconv"
	"strings"
)

// NoteKind tags the special states a Note can be in besides a concrete
// pitch.
type NoteKind int

const (
	NoteEmpty NoteKind = iota
	NoteOff
	NoteCut
	NotePlayable
)

// Note is a tagged union: either Empty, NoteOff, NoteCut, or a playable
// pitch with an index (0-11, C through B) and octave (0-9).
type Note struct {
	Kind  NoteKind
	Index int
	Octave int
}

func (n Note) IsPlayable() bool { return n.Kind == NotePlayable }

// Value returns octave*12+index, the linear semitone number used by
// calculatePeriod and arpeggio transposition. Only meaningful when
// IsPlayable.
func (n Note) Value() int { return n.Octave*12 + n.Index }

// noteFromValue builds a playable Note from a linear semitone number,
// clamping to the representable range [C-0, B-9] as spec's arpeggio
// transposition requires.
func noteFromValue(v int) Note {
	if v < 0 {
		v = 0
	}
	if v > 9*12+11 {
		v = 9*12 + 11
	}
	return Note{Kind: NotePlayable, Index: v % 12, Octave: v / 12}
}

var noteNames = [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

func (n Note) String() string {
	switch n.Kind {
	case NoteEmpty:
		return "..."
	case NoteOff:
		return "---"
	case NoteCut:
		return "^^^"
	default:
		return fmt.Sprintf("%s%d", noteNames[n.Index], n.Octave)
	}
}

// Command enumerates the effect commands the Player interprets.
type Command int

const (
	CmdNone Command = iota
	CmdSetSpeed
	CmdJumpToOrder
	CmdBreakToRow
	CmdVolumeSlide
	CmdPitchSlideDown
	CmdPitchSlideUp
	CmdPortamentoToNote
	CmdVibrato
	CmdVibratoAndVolumeSlide
	CmdPortamentoAndVolumeSlide
	CmdArpeggio
	CmdSetSampleOffset
	CmdSetTempo
	CmdSetVolume
)

// commandLetters maps the pattern-text effect letter (§6) to Command.
// Letters not present map to CmdNone.
var commandLetters = map[byte]Command{
	'A': CmdSetSpeed,
	'B': CmdJumpToOrder,
	'C': CmdBreakToRow,
	'D': CmdVolumeSlide,
	'E': CmdPitchSlideDown,
	'F': CmdPitchSlideUp,
	'G': CmdPortamentoToNote,
	'H': CmdVibrato,
	'J': CmdArpeggio,
	'K': CmdVibratoAndVolumeSlide,
	'L': CmdPortamentoAndVolumeSlide,
	'O': CmdSetSampleOffset,
	'T': CmdSetTempo,
}

// CommandFromLetter looks up the Command a pattern-text/binary-format
// effect letter names. Unrecognized letters map to CmdNone, matching
// ParsePattern's and the binary loaders' "unknown effect becomes a
// no-op" behavior (spec §7).
func CommandFromLetter(letter byte) Command {
	cmd, ok := commandLetters[letter]
	if !ok {
		return CmdNone
	}
	return cmd
}

var commandToLetter = func() map[Command]byte {
	m := make(map[Command]byte, len(commandLetters))
	for l, c := range commandLetters {
		m[c] = l
	}
	return m
}()

// Effect pairs a Command with its one-byte data argument.
type Effect struct {
	Command Command
	Data    byte
}

// PatternEntry is one cell at (channel, row): note, instrument,
// volume-column effect, and main effect, all independent.
type PatternEntry struct {
	Note         Note
	Instrument   int // 0 means "no change"; 1-based otherwise
	VolumeEffect Effect
	Effect       Effect
}

// Pattern is a channels x rows grid of PatternEntry.
type Pattern struct {
	channelCount int
	rowCount     int
	entries      []PatternEntry
}

// NewPattern allocates an empty pattern of the given shape.
func NewPattern(channelCount, rowCount int) *Pattern {
	return &Pattern{
		channelCount: channelCount,
		rowCount:     rowCount,
		entries:      make([]PatternEntry, channelCount*rowCount),
	}
}

func (p *Pattern) ChannelCount() int { return p.channelCount }
func (p *Pattern) RowCount() int     { return p.rowCount }

// Entry returns a pointer to the cell so callers (loaders, the player)
// can read or populate it in place.
func (p *Pattern) Entry(channel, row int) *PatternEntry {
	return &p.entries[row*p.channelCount+channel]
}

// cellWidth is the width in bytes of one "NNO II VV Exx" pattern cell.
const cellWidth = 13

// ParsePattern decodes the text format of spec.md §6 into a Pattern.
// Rows are newline separated; within a row, fixed-width cells are
// joined by a single space, which a naive whitespace split can't
// distinguish from the spaces a cell already has internally, so rows
// are sliced at fixed offsets instead.
func ParsePattern(text string) (*Pattern, error) {
	lines := splitNonEmptyLines(text)
	if len(lines) == 0 {
		return NewPattern(0, 0), nil
	}

	channelCount := (len(lines[0]) + 1) / (cellWidth + 1)
	pattern := NewPattern(channelCount, len(lines))
	for row, line := range lines {
		wantLen := channelCount*cellWidth + (channelCount - 1)
		if len(line) != wantLen {
			return nil, fmt.Errorf("tracker: row %d has length %d, want %d", row, len(line), wantLen)
		}
		for ch := 0; ch < channelCount; ch++ {
			start := ch * (cellWidth + 1)
			col := line[start : start+cellWidth]
			entry, err := parsePatternEntry(col)
			if err != nil {
				return nil, fmt.Errorf("tracker: row %d channel %d: %w", row, ch, err)
			}
			*pattern.Entry(ch, row) = entry
		}
	}
	return pattern, nil
}

func splitNonEmptyLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// parsePatternEntry decodes a single "NNO II VV Exx" cell.
func parsePatternEntry(col string) (PatternEntry, error) {
	if len(col) != 13 {
		return PatternEntry{}, fmt.Errorf("malformed cell %q", col)
	}
	var entry PatternEntry

	note, err := parseNote(col[0:3])
	if err != nil {
		return PatternEntry{}, err
	}
	entry.Note = note

	inst, err := parseDecimalOrDots(col[4:6])
	if err != nil {
		return PatternEntry{}, err
	}
	if inst >= 0 {
		entry.Instrument = inst
	}

	vol, err := parseDecimalOrDots(col[7:9])
	if err != nil {
		return PatternEntry{}, err
	}
	if vol >= 0 {
		entry.VolumeEffect = Effect{Command: CmdSetVolume, Data: byte(vol)}
	}

	eff, err := parseEffect(col[10:13])
	if err != nil {
		return PatternEntry{}, err
	}
	entry.Effect = eff

	return entry, nil
}

func parseNote(s string) (Note, error) {
	switch s {
	case "...":
		return Note{Kind: NoteEmpty}, nil
	case "---":
		return Note{Kind: NoteOff}, nil
	case "^^^":
		return Note{Kind: NoteCut}, nil
	}
	if len(s) != 3 {
		return Note{}, fmt.Errorf("malformed note %q", s)
	}
	name := s[0:2]
	octave := int(s[2] - '0')
	for i, n := range noteNames {
		if n == name {
			return Note{Kind: NotePlayable, Index: i, Octave: octave}, nil
		}
	}
	return Note{}, fmt.Errorf("unrecognized note %q", s)
}

// parseDecimalOrDots parses a 2-digit decimal field, returning -1 for
// the ".." placeholder.
func parseDecimalOrDots(s string) (int, error) {
	if s == ".." {
		return -1, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("malformed field %q: %w", s, err)
	}
	return v, nil
}

func parseEffect(s string) (Effect, error) {
	if s == "..." {
		return Effect{}, nil
	}
	if len(s) != 3 {
		return Effect{}, fmt.Errorf("malformed effect %q", s)
	}
	cmd, ok := commandLetters[s[0]]
	if !ok {
		// Unrecognized effect letters are treated as None per spec §7.
		cmd = CmdNone
	}
	data, err := strconv.ParseUint(s[1:3], 16, 8)
	if err != nil {
		return Effect{}, fmt.Errorf("malformed effect data %q: %w", s, err)
	}
	return Effect{Command: cmd, Data: byte(data)}, nil
}

// FormatPattern renders a Pattern back to the text format, the inverse
// of ParsePattern, used by tests to round-trip fixtures.
func FormatPattern(p *Pattern) string {
	var b strings.Builder
	for row := 0; row < p.rowCount; row++ {
		for ch := 0; ch < p.channelCount; ch++ {
			if ch > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(formatPatternEntry(*p.Entry(ch, row)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatPatternEntry(e PatternEntry) string {
	var b strings.Builder
	b.WriteString(e.Note.String())
	b.WriteByte(' ')
	if e.Instrument == 0 {
		b.WriteString("..")
	} else {
		fmt.Fprintf(&b, "%02d", e.Instrument)
	}
	b.WriteByte(' ')
	if e.VolumeEffect.Command == CmdSetVolume {
		fmt.Fprintf(&b, "%02d", e.VolumeEffect.Data)
	} else {
		b.WriteString("..")
	}
	b.WriteByte(' ')
	if e.Effect.Command == CmdNone {
		b.WriteString("...")
	} else {
		fmt.Fprintf(&b, "%c%02X", commandToLetter[e.Effect.Command], e.Effect.Data)
	}
	return b.String()
}
