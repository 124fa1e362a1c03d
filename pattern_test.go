package tracker

import "testing"

func TestParsePatternEntryNote(t *testing.T) {
	p, err := ParsePattern("C-5 01 .. ...\n")
	if err != nil {
		t.Fatal(err)
	}
	e := *p.Entry(0, 0)
	if !e.Note.IsPlayable() || e.Note.Index != 0 || e.Note.Octave != 5 {
		t.Errorf("note = %+v, want C-5", e.Note)
	}
	if e.Instrument != 1 {
		t.Errorf("instrument = %d, want 1", e.Instrument)
	}
	if e.VolumeEffect.Command != CmdNone {
		t.Errorf("volume effect = %+v, want none", e.VolumeEffect)
	}
	if e.Effect.Command != CmdNone {
		t.Errorf("effect = %+v, want none", e.Effect)
	}
}

func TestParsePatternEntrySpecialNotes(t *testing.T) {
	p, err := ParsePattern("--- .. .. ...\n^^^ .. .. ...\n")
	if err != nil {
		t.Fatal(err)
	}
	if p.Entry(0, 0).Note.Kind != NoteOff {
		t.Errorf("row 0 note = %v, want NoteOff", p.Entry(0, 0).Note.Kind)
	}
	if p.Entry(0, 1).Note.Kind != NoteCut {
		t.Errorf("row 1 note = %v, want NoteCut", p.Entry(0, 1).Note.Kind)
	}
}

func TestParsePatternEntryVolumeAndEffect(t *testing.T) {
	p, err := ParsePattern("C-5 01 40 D0A\n")
	if err != nil {
		t.Fatal(err)
	}
	e := *p.Entry(0, 0)
	if e.VolumeEffect.Command != CmdSetVolume || e.VolumeEffect.Data != 40 {
		t.Errorf("volume effect = %+v, want SetVolume(40)", e.VolumeEffect)
	}
	if e.Effect.Command != CmdVolumeSlide || e.Effect.Data != 0x0A {
		t.Errorf("effect = %+v, want VolumeSlide(0x0A)", e.Effect)
	}
}

func TestParsePatternRejectsChannelCountMismatch(t *testing.T) {
	_, err := ParsePattern("C-5 01 .. ...\n... .. .. ... ... .. .. ...\n")
	if err == nil {
		t.Fatal("expected an error for a row with the wrong channel count")
	}
}

func TestFormatPatternRoundTrips(t *testing.T) {
	text := "C-5 01 40 D0A\n... .. .. ...\n"
	p, err := ParsePattern(text)
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatPattern(p); got != text {
		t.Errorf("FormatPattern round-trip = %q, want %q", got, text)
	}
}

func TestNoteFromValueClampsToRepresentableRange(t *testing.T) {
	n := noteFromValue(-5)
	if n.Octave != 0 || n.Index != 0 {
		t.Errorf("noteFromValue(-5) = %+v, want C-0", n)
	}
	n = noteFromValue(1000)
	if n.Octave != 9 || n.Index != 11 {
		t.Errorf("noteFromValue(1000) = %+v, want B-9", n)
	}
}
