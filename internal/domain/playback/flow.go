// Package playback drives audio playback of a selected programme.
package playback

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ebulabs/broadcasting-hotspot/internal/domain/hotspot"
)

// Player is the audio output the flow controls.
// Release must be safe to call more than once.
type Player interface {
	Start(ctx context.Context, url string) error
	Stop() error
	Release() error
}

// Notifier shows short messages to the user.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// Flow plays the session programme and tears playback down on suspend.
type Flow struct {
	mu       sync.Mutex
	player   Player
	notifier Notifier
	active   bool
}

// NewFlow creates a playback flow over player.
func NewFlow(player Player, notifier Notifier) *Flow {
	return &Flow{
		player:   player,
		notifier: notifier,
	}
}

// Render formats the programme as status text.
func Render(p hotspot.ProgrammeInfo) string {
	var sb strings.Builder
	sb.WriteString(p.Name + "\n" + p.URL + "\n\n")
	for _, k := range p.InfoKeys() {
		sb.WriteString(k + ": " + p.Info[k] + "\n")
	}
	return sb.String()
}

// Enter starts playback of sess.Programme and returns the status text.
func (f *Flow) Enter(ctx context.Context, sess hotspot.Session) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sess.Programme == nil {
		log.Error().Str("session", sess.ID).Msg("No programme selected")
		err := hotspot.NewError(hotspot.KindPlaybackUnavailable, "play programme", errors.New("no programme selected"))
		f.notifier.Error(err.UserMessage() + ": no programme selected")
		return "", err
	}

	pi := *sess.Programme
	text := Render(pi)

	log.Debug().Str("session", sess.ID).Str("url", pi.URL).Msg("Starting audio stream")
	if err := f.player.Start(ctx, pi.URL); err != nil {
		log.Error().Err(err).Str("url", pi.URL).Msg("Failed to start audio stream")
		if rerr := f.player.Release(); rerr != nil {
			log.Warn().Err(rerr).Msg("Release after failed start")
		}
		herr := hotspot.NewError(hotspot.KindPlaybackUnavailable, "play programme", err)
		f.notifier.Error(herr.UserMessage() + ": could not start " + pi.Name)
		return "", herr
	}

	f.active = true
	log.Info().Str("session", sess.ID).Str("programme", pi.Name).Msg("Playback started")
	return text, nil
}

// Suspend stops and releases playback if it is active. Release runs even
// when Stop fails or panics. Calling Suspend again is a no-op.
func (f *Flow) Suspend() (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.active {
		return nil
	}
	f.active = false

	var stopErr error
	defer func() {
		releaseErr := f.player.Release()
		if releaseErr != nil {
			log.Warn().Err(releaseErr).Msg("Failed to release player")
		}
		log.Info().Msg("Playback suspended")
		err = errors.Join(stopErr, releaseErr)
	}()

	stopErr = f.player.Stop()
	if stopErr != nil {
		log.Warn().Err(stopErr).Msg("Failed to stop audio stream")
	}
	return nil
}

// Active reports whether a playback session is running.
func (f *Flow) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Run enters the flow, calls fn with the status text and suspends when
// fn returns or panics.
func (f *Flow) Run(ctx context.Context, sess hotspot.Session, fn func(ctx context.Context, status string) error) (err error) {
	status, err := f.Enter(ctx, sess)
	if err != nil {
		return err
	}
	defer func() {
		if serr := f.Suspend(); serr != nil && err == nil {
			err = serr
		}
	}()

	return fn(ctx, status)
}
