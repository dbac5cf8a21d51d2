// Package audio tracks the output format reported by the playback backend.
package audio

import (
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// AudioFormat represents the current audio output format.
type AudioFormat struct {
	SampleRate int    `json:"sampleRate"` // Sample rate in Hz (44100, 48000, etc.)
	BitDepth   int    `json:"bitDepth"`   // Bit depth (16, 24, 32), 0 if unknown
	Channels   int    `json:"channels"`   // Number of channels (usually 2)
	Format     string `json:"format"`     // "PCM", "DSD64", ...
}

// AudioStatus represents the current audio output status.
type AudioStatus struct {
	Playing bool         `json:"playing"`
	Format  *AudioFormat `json:"format"` // nil if not playing
}

// Controller keeps the latest output status.
type Controller struct {
	mu            sync.RWMutex
	playing       bool
	currentFormat *AudioFormat
}

// NewController creates a new audio controller.
func NewController() *Controller {
	return &Controller{}
}

// GetStatus returns the current audio status.
func (c *Controller) GetStatus() AudioStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return AudioStatus{
		Playing: c.playing,
		Format:  c.currentFormat,
	}
}

// UpdateFromMPDStatus updates audio status from MPD status fields.
// mpdState is the playback state ("play", "pause", "stop")
// audio is the MPD audio field format "samplerate:bits:channels" (e.g., "48000:24:2")
func (c *Controller) UpdateFromMPDStatus(mpdState, audio string) (changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasPlaying := c.playing
	c.playing = mpdState == "play"

	var newFormat *AudioFormat
	if audio != "" && c.playing {
		newFormat = parseAudioFormat(audio)
	}

	formatChanged := !audioFormatEqual(c.currentFormat, newFormat)
	c.currentFormat = newFormat

	changed = (wasPlaying != c.playing) || formatChanged

	if changed {
		log.Debug().
			Bool("playing", c.playing).
			Interface("format", c.currentFormat).
			Msg("Audio status changed")
	}

	return changed
}

// Reset marks playback as stopped.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
	c.currentFormat = nil
}

// Summary returns a one-line description of the output status.
func (c *Controller) Summary() string {
	status := c.GetStatus()
	if !status.Playing {
		return "stopped"
	}
	if status.Format == nil {
		return "playing"
	}

	f := status.Format
	parts := []string{"playing", f.Format}
	if f.Format == "PCM" {
		parts = append(parts, FormatSampleRate(f.SampleRate))
	}
	if f.BitDepth > 0 {
		parts = append(parts, FormatBitDepth(f.BitDepth))
	}
	parts = append(parts, FormatChannels(f.Channels))
	return strings.Join(parts, " ")
}

// parseAudioFormat parses MPD's audio format string.
// Format: "samplerate:bits:channels" (e.g., "192000:24:2")
// Compressed streams may report bits as "f" (float) or "*".
func parseAudioFormat(audio string) *AudioFormat {
	parts := strings.Split(audio, ":")
	if len(parts) < 2 {
		return nil
	}

	sampleRate, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil
	}

	bitDepth := 0
	switch parts[1] {
	case "f":
		bitDepth = 32
	case "*":
	default:
		bitDepth, err = strconv.Atoi(parts[1])
		if err != nil {
			return nil
		}
	}

	channels := 2 // Default to stereo
	if len(parts) >= 3 {
		if ch, err := strconv.Atoi(parts[2]); err == nil {
			channels = ch
		}
	}

	return &AudioFormat{
		SampleRate: sampleRate,
		BitDepth:   bitDepth,
		Channels:   channels,
		Format:     detectAudioFormatType(sampleRate),
	}
}

// detectAudioFormatType returns a human-readable format type.
func detectAudioFormatType(sampleRate int) string {
	switch sampleRate {
	case 2822400:
		return "DSD64"
	case 5644800:
		return "DSD128"
	case 11289600:
		return "DSD256"
	case 22579200:
		return "DSD512"
	default:
		return "PCM"
	}
}

// FormatSampleRate returns a human-readable sample rate string.
func FormatSampleRate(sampleRate int) string {
	if sampleRate >= 1000000 {
		return detectAudioFormatType(sampleRate)
	}
	if sampleRate >= 1000 {
		return strconv.FormatFloat(float64(sampleRate)/1000, 'f', -1, 64) + "kHz"
	}
	return strconv.Itoa(sampleRate) + "Hz"
}

// FormatBitDepth returns a human-readable bit depth string.
func FormatBitDepth(bitDepth int) string {
	return strconv.Itoa(bitDepth) + "-bit"
}

// FormatChannels returns "mono", "stereo" or "<n>ch".
func FormatChannels(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return strconv.Itoa(channels) + "ch"
	}
}

// audioFormatEqual compares two AudioFormat pointers for equality.
func audioFormatEqual(a, b *AudioFormat) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
