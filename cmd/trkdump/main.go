// trkdump prints a module's samples, pattern order, and pattern data to
// stdout, for inspecting what a loader produced.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tracker "github.com/danielpiron/ImpulseTrackerMusicPlayer"
	"github.com/danielpiron/ImpulseTrackerMusicPlayer/loader"
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
	log.SetPrefix("trkdump: ")

	if len(os.Args) <= 1 {
		log.Fatal("Missing module filename")
	}

	module, err := loadModule(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	if module.Title != "" {
		fmt.Printf("Title: %s\n", module.Title)
	}
	fmt.Printf("Channels: %d  Speed: %d  Tempo: %d\n",
		module.ChannelCount, module.InitialSpeed, module.InitialTempo)

	fmt.Printf("\nSamples (%d):\n", len(module.Samples))
	for i, s := range module.Samples {
		length := 0
		if s.Sample != nil {
			length = s.Sample.Length()
		}
		fmt.Printf("  %3d: length=%-8d defaultVolume=%d\n", i, length, s.DefaultVolume)
	}

	fmt.Printf("\nOrder (%d): ", len(module.PatternOrder))
	for _, o := range module.PatternOrder {
		switch o {
		case tracker.OrderEnd:
			fmt.Print("END ")
		case tracker.OrderSkip:
			fmt.Print("+++ ")
		default:
			fmt.Printf("%03d ", o)
		}
	}
	fmt.Println()

	if len(module.Patterns) > 0 {
		fmt.Printf("\nPattern 0 (%d patterns total):\n", len(module.Patterns))
		fmt.Println(tracker.FormatPattern(module.Patterns[0]))
	}
}
