package tracker

import "testing"

// newTestModule builds a single-pattern, single-sample Module from
// pattern text, mirroring the worked examples of spec.md §8.
func newTestModule(t *testing.T, patternText string, speed, tempo, rate, defaultVolume int) *Module {
	t.Helper()
	pattern, err := ParsePattern(patternText)
	if err != nil {
		t.Fatalf("ParsePattern: %v", err)
	}
	sample := NewSample(make([]float32, 1<<16), rate, DefaultLoop)
	return &Module{
		Samples:      []ModuleSample{{Sample: sample, DefaultVolume: defaultVolume}},
		Patterns:     []*Pattern{pattern},
		PatternOrder: []byte{0, OrderEnd},
		ChannelCount: pattern.ChannelCount(),
		InitialSpeed: speed,
		InitialTempo: tempo,
	}
}

func newTestPlayer(t *testing.T, patternText string, speed, tempo, rate, defaultVolume int) (*Player, *Mixer) {
	t.Helper()
	module := newTestModule(t, patternText, speed, tempo, rate, defaultVolume)
	mixer := NewMixer(44100, module.ChannelCount)
	return NewPlayer(module, mixer), mixer
}

func TestPlayerEmitsNoteOnForPlayableNote(t *testing.T) {
	p, _ := newTestPlayer(t, "C-5 01 .. ...\n", 1, 125, 8363, 64)

	events := p.ProcessTick()
	if len(events) != 1 {
		t.Fatalf("events = %+v, want exactly one SetNoteOn", events)
	}
	e := events[0]
	if e.Kind != EventSetNoteOn || e.Frequency != 8363 {
		t.Errorf("event = %+v, want SetNoteOn(8363)", e)
	}
}

func TestPlayerEmitsNoteOnForC6(t *testing.T) {
	p, _ := newTestPlayer(t, "C-6 01 .. ...\n", 1, 125, 8363, 64)

	events := p.ProcessTick()
	if len(events) != 1 || events[0].Frequency != 16726 {
		t.Fatalf("events = %+v, want SetNoteOn(16726)", events)
	}
}

func TestPlayerVolumeFineSlideWithMemory(t *testing.T) {
	text := "C-5 01 .. DF8\n... .. .. D00\n"
	p, _ := newTestPlayer(t, text, 2, 125, 8363, 64)

	tick1 := p.ProcessTick()
	if len(tick1) != 2 {
		t.Fatalf("tick1 events = %+v, want SetNoteOn + SetVolume", tick1)
	}
	if tick1[0].Kind != EventSetNoteOn || tick1[0].Frequency != 8363 {
		t.Errorf("tick1[0] = %+v, want SetNoteOn(8363)", tick1[0])
	}
	if tick1[1].Kind != EventSetVolume || tick1[1].Volume != 0.875 {
		t.Errorf("tick1[1] = %+v, want SetVolume(0.875)", tick1[1])
	}

	tick2 := p.ProcessTick()
	if len(tick2) != 0 {
		t.Fatalf("tick2 events = %+v, want none (fine slide is one-shot)", tick2)
	}

	tick3 := p.ProcessTick()
	if len(tick3) != 1 || tick3[0].Kind != EventSetVolume || tick3[0].Volume != 0.75 {
		t.Fatalf("tick3 events = %+v, want SetVolume(0.75) via memory", tick3)
	}
}

func TestPlayerPitchSlideDownAccumulatesAndRespectsMemory(t *testing.T) {
	text := "C-5 01 .. E03\n... .. .. E00\n"
	p, _ := newTestPlayer(t, text, 3, 125, 8363, 64)

	want := []int{1712, 1724, 1736, 1736, 1748, 1760}
	for i, w := range want {
		p.ProcessTick()
		if got := p.channels[0].period; got != w {
			t.Errorf("tick %d: period = %d, want %d", i+1, got, w)
		}
	}
}

func TestPlayerSetSpeedIsNoOpWhenDataIsZero(t *testing.T) {
	text := "... .. .. A00\n"
	p, _ := newTestPlayer(t, text, 4, 125, 8363, 64)
	p.ProcessTick()
	if p.speed != 4 {
		t.Errorf("speed = %d, want unchanged 4", p.speed)
	}
}

func TestPlayerSetSpeedChangesTickCounter(t *testing.T) {
	text := "... .. .. A06\n"
	p, _ := newTestPlayer(t, text, 4, 125, 8363, 64)
	p.ProcessTick()
	if p.speed != 6 {
		t.Errorf("speed = %d, want 6", p.speed)
	}
	if p.tickCounter != 6 {
		t.Errorf("tickCounter = %d, want 6", p.tickCounter)
	}
}

func TestPlayerArpeggioDegeneratesOnZeroData(t *testing.T) {
	text := "C-5 01 .. J00\n"
	p, _ := newTestPlayer(t, text, 1, 125, 8363, 64)
	p.ProcessTick()
	offsets := p.channels[0].arpeggioOffsets
	if offsets != [3]int{0, 0, 0} {
		t.Errorf("arpeggioOffsets = %v, want all zero for J00", offsets)
	}
}

func TestPlayerOutOfRangeInstrumentIsNoOp(t *testing.T) {
	text := "C-5 09 .. ...\n"
	p, _ := newTestPlayer(t, text, 1, 125, 8363, 64)
	events := p.ProcessTick()
	if len(events) != 0 {
		t.Fatalf("events = %+v, want none for an out-of-range instrument", events)
	}
	if p.channels[0].period != 0 {
		t.Errorf("period = %d, want 0 (no retrigger happened)", p.channels[0].period)
	}
}

func TestPlayerClonedModulesPlayIndependently(t *testing.T) {
	moduleA := clonedTestModule(t, "C-5 01 .. ...\n")
	moduleB := clonedTestModule(t, "C-5 01 .. ...\n")

	playerA := NewPlayer(moduleA, NewMixer(44100, moduleA.ChannelCount))
	playerB := NewPlayer(moduleB, NewMixer(44100, moduleB.ChannelCount))

	playerA.ProcessTick()
	if moduleB.Patterns[0].Entry(0, 0).Note.Kind != NotePlayable {
		t.Fatal("cloning should not let module A's playback disturb module B's pattern data")
	}
	playerB.ProcessTick()
	if playerA.channels[0].period != playerB.channels[0].period {
		t.Errorf("independently cloned modules should play identically: %d != %d",
			playerA.channels[0].period, playerB.channels[0].period)
	}
}

func TestPlayerBreakToRowJumpsWithinNextOrder(t *testing.T) {
	text := "... .. .. C02\n... .. .. ...\n... .. .. ...\n... .. .. ...\n"
	p, _ := newTestPlayer(t, text, 1, 125, 8363, 64)
	p.ProcessTick()
	// The module's order list is [pattern0, End], so advancing past
	// pattern0 wraps back to order 0, landing on the break's target row.
	if p.currentOrder != 0 || p.currentRow != 2 {
		t.Fatalf("after break: order=%d row=%d, want order=0 row=2", p.currentOrder, p.currentRow)
	}
}
