package main

import (
	"bytes"
	"testing"
)

func TestConsoleNotifierPlain(t *testing.T) {
	var buf bytes.Buffer
	n := newConsoleNotifier(&buf, false)

	n.Info("Hotspot found at http://10.0.0.1:8080")
	n.Error("Could not reach the hotspot")

	want := "Hotspot found at http://10.0.0.1:8080\nCould not reach the hotspot\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestConsoleNotifierColour(t *testing.T) {
	var buf bytes.Buffer
	n := newConsoleNotifier(&buf, true)

	n.Error("Playback unavailable")

	want := "\033[91mPlayback unavailable\033[0m\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
