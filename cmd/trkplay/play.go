package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	tracker "github.com/danielpiron/ImpulseTrackerMusicPlayer"
	"github.com/danielpiron/ImpulseTrackerMusicPlayer/internal/reverb"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"
)

var (
	white   = color.New(color.FgWhite).SprintfFunc()
	cyan    = color.New(color.FgCyan).SprintfFunc()
	magenta = color.New(color.FgMagenta).SprintfFunc()
	yellow  = color.New(color.FgYellow).SprintfFunc()
	green   = color.New(color.FgGreen).SprintfFunc()
)

const (
	scratchBufferSize = 10 * 1024
	audioBufferSize   = 1024
	patternRowsBefore = 4
	patternRowsAfter  = 4
	uiLineCount       = 1
)

// AudioPlayer drives audio output through PortAudio and renders a
// scrolling view of the pattern around the Player's current position.
type AudioPlayer struct {
	player  *tracker.Player
	reverb  reverb.Reverber
	stream  *portaudio.Stream
	scratch []float32

	uiWriter        io.Writer
	selectedChannel int
	soloChannel     int
	lastOrder       int
	lastRow         int

	ctx            context.Context
	cancelFn       context.CancelFunc
	wg             sync.WaitGroup
	stopOnce       sync.Once
	terminated     bool
	keyboardDoneCh chan struct{}
}

// NewAudioPlayer creates an AudioPlayer around an already-constructed
// Player.
func NewAudioPlayer(player *tracker.Player, rv reverb.Reverber, noUI bool) *AudioPlayer {
	var uiw io.Writer = os.Stdout
	if noUI {
		uiw = io.Discard
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &AudioPlayer{
		player:         player,
		reverb:         rv,
		scratch:        make([]float32, scratchBufferSize),
		uiWriter:       uiw,
		soloChannel:    -1,
		lastRow:        -1,
		ctx:            ctx,
		cancelFn:       cancel,
		keyboardDoneCh: make(chan struct{}),
	}
}

// Run starts audio playback and the UI render loop, blocking until the
// session ends.
func (ap *AudioPlayer) Run() error {
	if err := ap.setupAudioStream(); err != nil {
		return err
	}
	ap.setupKeyboardHandlers()

	for {
		select {
		case <-ap.ctx.Done():
			goto exit
		default:
		}

		order, row := ap.player.Position()
		if order != ap.lastOrder || row != ap.lastRow {
			ap.renderUI(order, row)
			ap.lastOrder, ap.lastRow = order, row
		}
		time.Sleep(16 * time.Millisecond)
	}

exit:
	select {
	case <-ap.keyboardDoneCh:
	case <-time.After(500 * time.Millisecond):
	}
	ap.wg.Wait()
	return nil
}

func (ap *AudioPlayer) setupAudioStream() error {
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(*flagHz), audioBufferSize, ap.streamCallback)
	if err != nil {
		return err
	}
	ap.stream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	return nil
}

func (ap *AudioPlayer) streamCallback(out []float32) {
	sc := ap.scratch[:len(out)]
	if ap.player.IsPlaying() {
		ap.player.RenderAudio(sc)
	} else {
		clear(sc)
	}

	ap.reverb.InputSamples(sc)
	n := ap.reverb.GetAudio(out)
	if n == 0 {
		clear(out)
	}
}

func (ap *AudioPlayer) setupKeyboardHandlers() {
	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			if key.Code == keys.CtrlC || key.Code == keys.Escape {
				ap.Stop()
				return true, nil
			}
			ap.handleKeyPress(key)
			return false, nil
		})
		close(ap.keyboardDoneCh)
	}()
}

func (ap *AudioPlayer) handleKeyPress(key keys.Key) {
	channelCount := ap.player.Module().ChannelCount
	switch key.Code {
	case keys.Left:
		ap.selectedChannel = max(ap.selectedChannel-1, 0)
	case keys.Right:
		ap.selectedChannel = min(ap.selectedChannel+1, channelCount-1)
	case keys.Space:
		if ap.player.IsPlaying() {
			ap.player.Stop()
		} else {
			ap.player.Start()
		}
	case keys.RuneKey:
		if len(key.Runes) == 0 {
			return
		}
		switch key.Runes[0] {
		case 'm':
			ap.player.Mute ^= 1 << uint(ap.selectedChannel)
		case 's':
			if ap.soloChannel != ap.selectedChannel {
				ap.soloChannel = ap.selectedChannel
				ap.player.Mute = ^uint64(0) ^ (1 << uint(ap.selectedChannel))
			} else {
				ap.soloChannel = -1
				ap.player.Mute = 0
			}
		}
	}
}

// Stop performs a clean shutdown of the audio stream and PortAudio.
func (ap *AudioPlayer) Stop() {
	ap.stopOnce.Do(func() {
		ap.player.Stop()
		ap.cancelFn()
		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}
		if !ap.terminated {
			portaudio.Terminate()
			ap.terminated = true
		}
		fmt.Fprint(ap.uiWriter, showCursor)
	})
}

func (ap *AudioPlayer) renderUI(order, row int) {
	fmt.Fprintf(ap.uiWriter, "%s %02X %s %02X %s %02d %s %3d\n",
		blue("order"), order, blue("row"), row,
		blue("speed"), ap.player.Speed(), blue("bpm"), ap.player.Tempo())

	for i := -patternRowsBefore; i <= patternRowsAfter; i++ {
		ap.renderNoteRow(order, row+i, i == 0)
	}

	fmt.Fprintf(ap.uiWriter, escape+"%dF", uiLineCount+patternRowsBefore+patternRowsAfter+1)
}

func blue(s string, a ...any) string {
	return color.New(color.FgHiBlue).Sprintf(s, a...)
}

func (ap *AudioPlayer) renderNoteRow(order, row int, isCurrent bool) {
	entries := ap.player.RowAt(order, row)
	if entries == nil {
		fmt.Fprintln(ap.uiWriter)
		return
	}

	if isCurrent {
		fmt.Fprint(ap.uiWriter, ">>> ")
	} else {
		fmt.Fprint(ap.uiWriter, "    ")
	}

	const maxChannels = 4
	for ch, e := range entries {
		if ch >= maxChannels {
			fmt.Fprint(ap.uiWriter, " ...")
			break
		}
		marker := green("  ")
		if ch == ap.selectedChannel {
			marker = green("->")
		}
		fmt.Fprint(ap.uiWriter, marker, " ", white("%s", e.Note.String()))
		if e.Instrument != 0 {
			fmt.Fprint(ap.uiWriter, " ", cyan("%02d", e.Instrument))
		} else {
			fmt.Fprint(ap.uiWriter, " ..")
		}
		fmt.Fprint(ap.uiWriter, " ", magenta("%02X", e.Effect.Data), yellow("%c", effectLetter(e.Effect)))
		if ch < maxChannels-1 {
			fmt.Fprint(ap.uiWriter, "|")
		}
	}

	if isCurrent {
		fmt.Fprint(ap.uiWriter, " <<<")
	}
	fmt.Fprintln(ap.uiWriter)
}

func effectLetter(e tracker.Effect) byte {
	if e.Command == tracker.CmdNone {
		return '.'
	}
	for _, l := range "ABCDEFGHJKLOT" {
		if tracker.CommandFromLetter(byte(l)) == e.Command {
			return byte(l)
		}
	}
	return '?'
}
