// trkplay plays an S3M or IT module file through the default audio
// device, with a scrolling colorized view of the pattern data and
// interactive transport controls.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tracker "github.com/danielpiron/ImpulseTrackerMusicPlayer"
	"github.com/danielpiron/ImpulseTrackerMusicPlayer/cmd/internal/config"
	"github.com/danielpiron/ImpulseTrackerMusicPlayer/loader"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"
)

var (
	flagHz     = flag.Int("hz", 44100, "output hz")
	flagReverb = flag.String("reverb", "light", "reverb setting: none, light, medium, silly")
	flagNoUI   = flag.Bool("noui", false, "disable the pattern display")

	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"
)

func loadModule(path string) (*tracker.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".it":
		return loader.LoadIT(data)
	case ".s3m":
		return loader.LoadS3M(data)
	default:
		return nil, fmt.Errorf("unsupported module extension %q", filepath.Ext(path))
	}
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("trkplay: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing module filename")
	}

	module, err := loadModule(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	reverb, err := config.ReverbFromFlag(*flagReverb, *flagHz)
	if err != nil {
		log.Fatal(err)
	}

	mixer := tracker.NewMixer(*flagHz, module.ChannelCount)
	player := tracker.NewPlayer(module, mixer)

	initErr := portaudio.Initialize()
	defer func() {
		if initErr != nil {
			portaudio.Terminate()
		}
	}()

	ap := NewAudioPlayer(player, reverb, *flagNoUI)

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT)
	go func() {
		<-sigch
		ap.Stop()
		fmt.Print(showCursor)
		os.Exit(0)
	}()

	fmt.Print(hideCursor)
	if module.Title != "" {
		fmt.Println(color.New(color.FgWhite).Sprint(module.Title))
	}

	if err := ap.Run(); err != nil {
		log.Fatal(err)
	}
}
