package tracker

// processRowAdvanceOrder is the sentinel process_row value (spec §4.4)
// meaning "the next row boundary moves to a new order", used by
// JumpToOrder/BreakToRow to short-circuit the normal row increment.
const processRowAdvanceOrder = 0xFFFE

// playerChannel is one channel's live effect-interpreter state: the
// note/instrument last latched into it, its current period/volume, and
// the three independent effect-memory cells spec §4.5 calls for
// (volume slide, pitch slide, vibrato never share a slot).
type playerChannel struct {
	lastNote       Note
	lastInstrument int

	period       int
	periodOffset int
	frequency    float32
	volume       int
	noteOn       bool
	sampleOffset int

	effect Command // main effect latched at the last row tick

	volumeSlideSpeed int
	pitchSlideSpeed  int
	pitchSlideTarget int
	arpeggioOffsets  [3]int

	vibratoSpeed int
	vibratoDepth int
	vibratoIndex int

	volumeSlideMemory byte
	pitchSlideMemory  byte
	vibratoMemory     byte

	emittedVolume int // last volume actually sent in a VoiceEvent, post-mute
}

// Player walks a Module's pattern order one tick at a time, interpreting
// notes and effects into VoiceEvents. It is a TickHandler: the
// Mixer owns time and calls OnTick; the Player never touches a clock or
// an output buffer directly, so it is testable with nothing but a
// Module and a sequence of ProcessTick calls.
type Player struct {
	module *Module
	mixer  *Mixer

	speed       int
	tempo       int
	tickCounter int

	currentOrder int
	currentRow   int
	processRow   int
	breakRow     int

	channels []playerChannel

	events []VoiceEvent

	// Mute silences channel i when bit i is set. It has no equivalent in
	// the tick-rate effect model; a CLI front end toggles it between
	// renders to implement interactive channel muting.
	Mute uint64

	playing bool
}

// NewPlayer builds a Player over module and attaches it to mixer, which
// installs the module's initial tempo as the mixer's tick period.
func NewPlayer(module *Module, mixer *Mixer) *Player {
	p := &Player{
		module:      module,
		speed:       module.InitialSpeed,
		tempo:       module.InitialTempo,
		tickCounter: 1,
		channels:    make([]playerChannel, module.ChannelCount),
		playing:     true,
	}
	for i := range p.channels {
		// A channel's Voice starts inactive regardless, so this only
		// avoids emitting a spurious SetVolume before the first note.
		p.channels[i].volume = 64
		p.channels[i].emittedVolume = 64
	}
	mixer.AttachHandler(p)
	return p
}

// samplesPerTick derives the mixer tick period from BPM: floor(2.5 *
// outputRate / tempo), the standard S3M/IT tick-rate formula.
func samplesPerTick(outputRate, tempo int) int {
	return (5 * outputRate) / (2 * tempo)
}

// OnAttachment installs the module's starting tempo as the mixer's tick
// period before the first sample is ever rendered.
func (p *Player) OnAttachment(m *Mixer) {
	p.mixer = m
	m.SetSamplesPerTick(samplesPerTick(m.OutputRate(), p.tempo))
}

// OnTick advances the song by one tick and forwards the resulting
// VoiceEvents to m.
func (p *Player) OnTick(m *Mixer) {
	for _, e := range p.ProcessTick() {
		m.ProcessEvent(e)
	}
}

// RenderAudio fills out via the attached Mixer, driving OnTick as needed.
func (p *Player) RenderAudio(out []float32) {
	p.mixer.Render(out)
}

// Module returns the song this Player walks.
func (p *Player) Module() *Module { return p.module }

// Position returns the current order and row, for UI display.
func (p *Player) Position() (order, row int) { return p.currentOrder, p.currentRow }

// Speed and Tempo return the Player's current tick-rate settings,
// which commands like SetSpeed/SetTempo can change mid-song.
func (p *Player) Speed() int { return p.speed }
func (p *Player) Tempo() int { return p.tempo }

// Start and Stop toggle whether a CLI should keep driving RenderAudio;
// the Player itself does not enforce this, since pausing is a host
// concern (spec's core never blocks on playback state).
func (p *Player) Start()          { p.playing = true }
func (p *Player) Stop()           { p.playing = false }
func (p *Player) IsPlaying() bool { return p.playing }

// RowAt returns every channel's pattern cell at (order, row), skipping
// OrderSkip entries the way normal playback does, for a UI to render
// upcoming or past rows around the current position. It returns nil for
// a negative order or row, when the order reaches OrderEnd or runs past
// the order list (it does not wrap to order 0 as playback does), and
// once row runs past the resolved pattern's row count.
func (p *Player) RowAt(order, row int) []PatternEntry {
	if order < 0 || row < 0 {
		return nil
	}
	for order < len(p.module.PatternOrder) && p.module.PatternOrder[order] == OrderSkip {
		order++
	}
	if order >= len(p.module.PatternOrder) || p.module.PatternOrder[order] == OrderEnd {
		return nil
	}
	pattern := p.module.Patterns[p.module.PatternOrder[order]]
	if row >= pattern.RowCount() {
		return nil
	}
	entries := make([]PatternEntry, pattern.ChannelCount())
	for ch := range entries {
		entries[ch] = *pattern.Entry(ch, row)
	}
	return entries
}

func (p *Player) emit(e VoiceEvent) {
	p.events = append(p.events, e)
}

func (p *Player) sampleFor(instrument int) (*Sample, bool) {
	if instrument < 1 || instrument > len(p.module.Samples) {
		return nil, false
	}
	return p.module.Samples[instrument-1].Sample, true
}

// ProcessTick advances exactly one tick and returns the VoiceEvents it
// produced. A tick is a row tick when the speed-driven counter reaches
// zero; otherwise it only runs the continuous per-channel effect update
// (vibrato waveform, slides, arpeggio) for whichever effect is still
// latched from the last row tick.
func (p *Player) ProcessTick() []VoiceEvent {
	p.events = p.events[:0]

	p.tickCounter--
	initialTick := p.tickCounter == 0
	if initialTick {
		p.tickCounter = p.speed
	}

	pattern := p.module.Patterns[p.module.PatternOrder[p.currentOrder]]
	tickInRow := p.speed - p.tickCounter

	for ch := 0; ch < pattern.ChannelCount(); ch++ {
		c := &p.channels[ch]
		lastFrequency := c.frequency
		c.sampleOffset = 0

		if initialTick {
			entry := *pattern.Entry(ch, p.currentRow)
			p.processGlobalCommand(entry.Effect)
			p.processInitialTick(c, entry)
		} else {
			p.updateEffects(c, tickInRow)
		}

		if c.period+c.periodOffset > 0 {
			c.frequency = periodToFrequency(c.period, c.periodOffset)
		}

		if c.noteOn {
			sample, _ := p.sampleFor(c.lastInstrument)
			p.emit(VoiceEvent{Channel: ch, Kind: EventSetNoteOn, Frequency: c.frequency, Sample: sample})
			c.noteOn = false
		} else if c.frequency != lastFrequency {
			p.emit(VoiceEvent{Channel: ch, Kind: EventSetFrequency, Frequency: c.frequency})
		}

		c.volume = clampVolume(c.volume)
		effectiveVolume := c.volume
		if p.Mute&(1<<uint(ch)) != 0 {
			effectiveVolume = 0
		}
		if effectiveVolume != c.emittedVolume {
			p.emit(VoiceEvent{Channel: ch, Kind: EventSetVolume, Volume: float32(effectiveVolume) / 64})
			c.emittedVolume = effectiveVolume
		}

		if c.sampleOffset > 0 {
			p.emit(VoiceEvent{Channel: ch, Kind: EventSetSampleIndex, Index: c.sampleOffset})
		}
	}

	if initialTick {
		p.advanceRow(pattern)
	}

	return p.events
}

// advanceRow applies the row-boundary/order-boundary transition spec
// §4.4 describes. JumpToOrder/BreakToRow short-circuit straight to the
// order advance by parking processRowAdvanceOrder in processRow; a
// normal row just increments it.
func (p *Player) advanceRow(pattern *Pattern) {
	advance := false
	if p.processRow == processRowAdvanceOrder {
		advance = true
	} else {
		p.processRow++
		if p.processRow >= pattern.RowCount() {
			advance = true
		}
	}
	if advance {
		p.currentOrder++
		for p.module.PatternOrder[p.currentOrder] == OrderSkip {
			p.currentOrder++
		}
		if p.module.PatternOrder[p.currentOrder] == OrderEnd {
			p.currentOrder = 0
		}
		p.processRow = p.breakRow
		p.breakRow = 0
	}
	p.currentRow = p.processRow
}

// processGlobalCommand applies the song-transport effects that act on
// the Player rather than a single channel.
func (p *Player) processGlobalCommand(e Effect) {
	switch e.Command {
	case CmdSetSpeed:
		if e.Data != 0 {
			p.speed = int(e.Data)
			p.tickCounter = int(e.Data)
		}
	case CmdJumpToOrder:
		p.currentOrder = int(e.Data) - 1
		p.processRow = processRowAdvanceOrder
	case CmdBreakToRow:
		p.processRow = processRowAdvanceOrder
		p.breakRow = int(e.Data)
	case CmdSetTempo:
		if e.Data != 0 {
			p.tempo = int(e.Data)
			p.mixer.SetSamplesPerTick(samplesPerTick(p.mixer.OutputRate(), p.tempo))
		}
	}
}

// processInitialTick runs the row-tick setup for one channel: latch
// note/instrument, retrigger, apply the volume column, reset the effect
// state that this row's effect doesn't own, then dispatch the row-tick
// half of whichever effect is in the cell.
func (p *Player) processInitialTick(c *playerChannel, entry PatternEntry) {
	candidateNote := false
	if entry.Note.Kind != NoteEmpty {
		c.lastNote = entry.Note
		candidateNote = true
	}
	if entry.Instrument != 0 {
		c.lastInstrument = entry.Instrument
		candidateNote = true
	}

	if candidateNote && c.lastNote.IsPlayable() && c.lastInstrument != 0 {
		if sample, ok := p.sampleFor(c.lastInstrument); ok {
			if entry.Effect.Command != CmdPortamentoToNote {
				c.noteOn = true
				c.period = calculatePeriod(c.lastNote, sample.PlaybackRate)
			}
			c.volume = p.module.Samples[c.lastInstrument-1].DefaultVolume
		}
	}

	if entry.VolumeEffect.Command == CmdSetVolume {
		c.volume = int(entry.VolumeEffect.Data)
	}

	c.arpeggioOffsets = [3]int{}
	c.volumeSlideSpeed = 0
	if entry.Effect.Command != CmdVibrato && entry.Effect.Command != CmdVibratoAndVolumeSlide {
		c.vibratoSpeed = 0
		c.vibratoDepth = 0
		c.vibratoIndex = 0
		c.periodOffset = 0
	}
	if entry.Effect.Command != CmdPortamentoAndVolumeSlide {
		c.pitchSlideSpeed = 0
	}

	c.effect = entry.Effect.Command
	data := entry.Effect.Data

	switch entry.Effect.Command {
	case CmdVolumeSlide, CmdPortamentoAndVolumeSlide, CmdVibratoAndVolumeSlide:
		c.setupVolumeSlide(data)
	}

	switch entry.Effect.Command {
	case CmdPitchSlideDown:
		c.setupPitchSlideDown(data)
	case CmdPitchSlideUp:
		c.setupPitchSlideUp(data)
	case CmdPortamentoToNote:
		p.setupPortamentoToNote(c, data)
	case CmdVibrato:
		c.setupVibrato(data)
	case CmdArpeggio:
		p.setupArpeggio(c, data)
	case CmdSetSampleOffset:
		c.sampleOffset = 256 * int(data)
	}
}

// updateEffects runs the continuous, non-row-tick half of whichever
// effect is latched on c, for the tickInRow'th tick since the row tick
// (tickInRow is 1 on the first tick after the row tick).
func (p *Player) updateEffects(c *playerChannel, tickInRow int) {
	switch c.effect {
	case CmdVolumeSlide, CmdPortamentoAndVolumeSlide, CmdVibratoAndVolumeSlide:
		c.volume = clampVolume(c.volume + c.volumeSlideSpeed)
	}
	switch c.effect {
	case CmdPitchSlideDown, CmdPitchSlideUp, CmdPortamentoToNote, CmdPortamentoAndVolumeSlide:
		c.updatePitchSlide()
	}
	switch c.effect {
	case CmdVibrato, CmdVibratoAndVolumeSlide:
		c.vibratoIndex += c.vibratoSpeed
		idx := ((c.vibratoIndex % 256) + 256) % 256
		c.periodOffset = (sineTable[idx] * c.vibratoDepth) >> 5
	}
	if c.effect == CmdArpeggio {
		c.periodOffset = c.arpeggioOffsets[tickInRow%3]
	}
}

// substituteMemory implements the shared effect-memory rule: a zero
// data byte reuses memory; a non-zero byte overwrites it.
func substituteMemory(data byte, memory *byte) byte {
	if data == 0 {
		return *memory
	}
	*memory = data
	return data
}

func (c *playerChannel) setupVolumeSlide(data byte) {
	data = substituteMemory(data, &c.volumeSlideMemory)
	hi := data >> 4
	lo := data & 0xF
	switch {
	case hi == 0xF && lo == 0xF:
		// Both nibbles maxed is ambiguous; treat as no slide.
	case hi == 0xF:
		c.volume = clampVolume(c.volume - int(lo))
	case lo == 0xF:
		c.volume = clampVolume(c.volume + int(hi))
	case lo != 0 && hi == 0:
		c.volumeSlideSpeed = -int(lo)
	case hi != 0 && lo == 0:
		c.volumeSlideSpeed = int(hi)
	}
}

func (c *playerChannel) setupPitchSlideDown(data byte) {
	data = substituteMemory(data, &c.pitchSlideMemory)
	hi := data >> 4
	lo := data & 0xF
	switch {
	case hi == 0xE:
		c.period += int(lo)
	case hi == 0xF:
		c.period += 4 * int(lo)
	default:
		c.pitchSlideSpeed = 4 * int(data)
		c.pitchSlideTarget = 54785
	}
}

func (c *playerChannel) setupPitchSlideUp(data byte) {
	data = substituteMemory(data, &c.pitchSlideMemory)
	hi := data >> 4
	lo := data & 0xF
	switch {
	case hi == 0xE:
		c.period -= int(lo)
	case hi == 0xF:
		c.period -= 4 * int(lo)
	default:
		c.pitchSlideSpeed = -4 * int(data)
		c.pitchSlideTarget = 55
	}
}

func (p *Player) setupPortamentoToNote(c *playerChannel, data byte) {
	data = substituteMemory(data, &c.pitchSlideMemory)
	sample, ok := p.sampleFor(c.lastInstrument)
	if !ok {
		return
	}
	target := calculatePeriod(c.lastNote, sample.PlaybackRate)
	speed := 4 * int(data)
	if c.period > target {
		speed = -speed
	}
	c.pitchSlideSpeed = speed
	c.pitchSlideTarget = target
}

// updatePitchSlide advances period by pitchSlideSpeed and clamps at
// pitchSlideTarget so a slide can never overshoot it. PortamentoToNote
// and PortamentoAndVolumeSlide additionally stop the slide dead once the
// target is reached; the plain up/down slides just keep clamping (their
// target is the engine's safety-valve period, not a destination note).
func (c *playerChannel) updatePitchSlide() {
	c.period += c.pitchSlideSpeed
	reachedTarget := (c.pitchSlideSpeed > 0 && c.period >= c.pitchSlideTarget) ||
		(c.pitchSlideSpeed < 0 && c.period <= c.pitchSlideTarget)
	if !reachedTarget {
		return
	}
	c.period = c.pitchSlideTarget
	if c.effect == CmdPortamentoToNote || c.effect == CmdPortamentoAndVolumeSlide {
		c.pitchSlideSpeed = 0
		c.pitchSlideTarget = 0
	}
}

func (c *playerChannel) setupVibrato(data byte) {
	hi := data >> 4
	lo := data & 0xF
	if hi == 0 {
		hi = c.vibratoMemory >> 4
	}
	if lo == 0 {
		lo = c.vibratoMemory & 0xF
	}
	c.vibratoMemory = hi<<4 | lo
	c.vibratoSpeed = 4 * int(hi)
	c.vibratoDepth = 4 * int(lo)
}

func (p *Player) setupArpeggio(c *playerChannel, data byte) {
	sample, ok := p.sampleFor(c.lastInstrument)
	if !ok {
		c.arpeggioOffsets = [3]int{}
		return
	}
	hi := data >> 4
	lo := data & 0xF
	n1 := noteFromValue(c.lastNote.Value() + int(hi))
	n2 := noteFromValue(c.lastNote.Value() + int(lo))
	c.arpeggioOffsets = [3]int{
		0,
		calculatePeriod(n1, sample.PlaybackRate) - c.period,
		calculatePeriod(n2, sample.PlaybackRate) - c.period,
	}
}
