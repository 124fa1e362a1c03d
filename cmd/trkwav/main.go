// trkwav renders an S3M or IT module to a WAV file, headless, stopping
// after the pattern order has looped once.
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
	"github.com/danielpiron/ImpulseTrackerMusicPlayer/internal/wavfile"
	"github.com/danielpiron/ImpulseTrackerMusicPlayer/loader"
)

const outputHz = 44100

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
	log.SetPrefix("trkwav: ")

	wavOut := flag.String("wav", "", "output to a WAVE file")
	flag.Parse()
	if *wavOut == "" {
		log.Fatal("No -wav option provided")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("Missing module filename")
	}

	module, err := loadModule(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	mixer := tracker.NewMixer(outputHz, module.ChannelCount)
	player := tracker.NewPlayer(module, mixer)

	wavF, err := os.Create(*wavOut)
	if err != nil {
		log.Fatal(err)
	}
	defer wavF.Close()

	wavW, err := wavfile.NewWriter(wavF, outputHz)
	if err != nil {
		log.Fatal(err)
	}
	defer wavW.Finish()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT)
	interrupted := false
	go func() {
		<-sigch
		interrupted = true
	}()

	audioOut := make([]float32, 2048)
	lastOrder := 0
	looped := false

	for !interrupted && !looped {
		player.RenderAudio(audioOut)
		if err := wavW.WriteFrame(audioOut); err != nil {
			log.Fatal(err)
		}

		order, _ := player.Position()
		if order < lastOrder {
			looped = true
		}
		lastOrder = order
	}
}
