// Package config translates trkplay's command-line reverb setting into
// a concrete internal/reverb.Reverber.
package config

import (
	"fmt"

	"github.com/danielpiron/ImpulseTrackerMusicPlayer/internal/reverb"
)

// ReverbFromFlag initializes a reverb.Reverber according to the
// command line flag value.
func ReverbFromFlag(setting string, sampleRate int) (r reverb.Reverber, err error) {
	rf := float32(0.2)
	rd := 150
	switch setting {
	case "medium":
		rf = 0.3
		rd = 250
	case "silly":
		rf = 0.5
		rd = 2500
	case "none":
		rd = 0
		rf = 0
	case "light":
	default:
		err = fmt.Errorf("unrecognized reverb setting %q", setting)
	}

	if rf == 0 {
		r = reverb.NewPassThrough(10 * 1024)
	} else {
		r = reverb.NewCombFixed(10*1024, rf, rd, sampleRate)
	}

	return r, err
}
