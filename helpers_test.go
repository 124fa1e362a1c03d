package tracker

import (
	"testing"

	clone "github.com/huandu/go-clone/generic"
)

// baseTestModule is a one-channel, one-sample module fixture shared by
// tests that don't care about its pattern content on their own; it is
// always cloned before a test mutates it through playback.
var baseTestModule = &Module{
	Samples: []ModuleSample{
		{Sample: NewSample(make([]float32, 1<<16), 8363, DefaultLoop), DefaultVolume: 64},
	},
	PatternOrder: []byte{0, OrderEnd},
	ChannelCount: 1,
	InitialSpeed: 6,
	InitialTempo: 125,
}

// clonedTestModule deep-copies baseTestModule and installs a pattern
// parsed from text, so concurrent tests never observe each other's
// playback mutations through a shared fixture.
func clonedTestModule(t *testing.T, patternText string) *Module {
	t.Helper()
	m := clone.Clone(baseTestModule)
	pattern, err := ParsePattern(patternText)
	if err != nil {
		t.Fatalf("ParsePattern: %v", err)
	}
	m.Patterns = []*Pattern{pattern}
	m.ChannelCount = pattern.ChannelCount()
	return m
}
