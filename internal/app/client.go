// Package app wires discovery, capability loading, selection and playback
// into the interactive client flow.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ebulabs/broadcasting-hotspot/internal/domain/hotspot"
	"github.com/ebulabs/broadcasting-hotspot/internal/domain/playback"
	"github.com/ebulabs/broadcasting-hotspot/internal/domain/selection"
	"github.com/ebulabs/broadcasting-hotspot/internal/infra/history"
)

// Locator finds the hotspot base URL.
type Locator interface {
	Locate(ctx context.Context) (string, error)
}

// Catalogue loads the lists published by the hotspot.
type Catalogue interface {
	Fetch(ctx context.Context, baseURL string) ([]hotspot.Tech, error)
	FetchProgrammes(ctx context.Context, baseURL, tech string) ([]hotspot.ProgrammeInfo, error)
}

// Chooser asks the user to pick one of labels. It returns ctx.Err()
// when ctx is done before an answer arrives.
type Chooser interface {
	Choose(ctx context.Context, title string, labels []string) (string, error)
}

// Recorder stores history events.
type Recorder interface {
	Record(ctx context.Context, e history.Event) (history.Event, error)
}

// Client runs the hotspot flow for one session at a time.
type Client struct {
	locator    Locator
	catalogue  Catalogue
	flow       *playback.Flow
	notifier   playback.Notifier
	recorder   Recorder
	hotspotURL string
}

// Option configures a Client.
type Option func(*Client)

// WithRecorder records each completed step to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithHotspotURL skips discovery and uses url as the hotspot base URL.
func WithHotspotURL(url string) Option {
	return func(c *Client) {
		c.hotspotURL = url
	}
}

// NewClient creates a client. player and notifier back the playback flow.
func NewClient(locator Locator, catalogue Catalogue, player playback.Player, notifier playback.Notifier, opts ...Option) *Client {
	c := &Client{
		locator:   locator,
		catalogue: catalogue,
		flow:      playback.NewFlow(player, notifier),
		notifier:  notifier,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Flow returns the playback flow so callers can suspend it on shutdown.
func (c *Client) Flow() *playback.Flow {
	return c.flow
}

// Discover sets the session hotspot URL, browsing the network unless a
// URL was configured.
func (c *Client) Discover(ctx context.Context, sess hotspot.Session) (hotspot.Session, error) {
	if c.hotspotURL != "" {
		log.Info().Str("url", c.hotspotURL).Msg("Using configured hotspot URL")
		sess = sess.WithHotspotURL(c.hotspotURL)
		c.record(ctx, sess, history.Event{Kind: history.EventDiscovered})
		return sess, nil
	}

	url, err := Await(ctx, Dispatch(ctx, c.locator.Locate))
	if err != nil {
		return sess, c.fail(ctx, sess, "discover", err)
	}

	sess = sess.WithHotspotURL(url)
	c.notifier.Info("Hotspot found at " + sess.HotspotURL)
	c.record(ctx, sess, history.Event{Kind: history.EventDiscovered})
	return sess, nil
}

// LoadCapabilities fetches the tech list from the session hotspot.
func (c *Client) LoadCapabilities(ctx context.Context, sess hotspot.Session) (hotspot.Session, error) {
	if sess.HotspotURL == "" {
		err := hotspot.NewError(hotspot.KindMalformedURL, "fetch capabilities", errors.New("no hotspot URL"))
		return sess, c.fail(ctx, sess, "capabilities", err)
	}

	base := sess.HotspotURL
	techs, err := Await(ctx, Dispatch(ctx, func(ctx context.Context) ([]hotspot.Tech, error) {
		return c.catalogue.Fetch(ctx, base)
	}))
	if err != nil {
		return sess, c.fail(ctx, sess, "capabilities", err)
	}

	sess = sess.WithTechs(techs)
	log.Info().Str("session", sess.ID).Int("techs", len(techs)).Msg("Capabilities loaded")
	c.record(ctx, sess, history.Event{Kind: history.EventCapabilities, Detail: fmt.Sprintf("%d techs", len(techs))})
	return sess, nil
}

// ChooseTech asks chooser for a tech and makes it active. An empty tech
// list leaves the session unchanged.
func (c *Client) ChooseTech(ctx context.Context, sess hotspot.Session, chooser Chooser) (hotspot.Session, error) {
	labels := selection.Labels(sess)
	if len(labels) == 0 {
		c.notifier.Info("The hotspot offers no technologies")
		return sess, nil
	}

	label, err := chooser.Choose(ctx, "Technologies", labels)
	if err != nil {
		return sess, c.fail(ctx, sess, "choose tech", err)
	}

	next, ok := selection.Select(sess, label)
	if !ok {
		return sess, nil
	}
	c.record(ctx, next, history.Event{Kind: history.EventTechSelected})
	return next, nil
}

// ChooseProgramme fetches the programmes of the active tech and asks
// chooser for one. Without an active tech or programmes the session is
// returned unchanged.
func (c *Client) ChooseProgramme(ctx context.Context, sess hotspot.Session, chooser Chooser) (hotspot.Session, error) {
	if sess.ActiveTech == nil {
		return sess, nil
	}

	base, tech := sess.HotspotURL, sess.ActiveTech.Name
	programmes, err := Await(ctx, Dispatch(ctx, func(ctx context.Context) ([]hotspot.ProgrammeInfo, error) {
		return c.catalogue.FetchProgrammes(ctx, base, tech)
	}))
	if err != nil {
		return sess, c.fail(ctx, sess, "programmes", err)
	}

	labels := selection.ProgrammeLabels(programmes)
	if len(labels) == 0 {
		c.notifier.Info("No programmes available for " + tech)
		return sess, nil
	}

	label, err := chooser.Choose(ctx, tech+" programmes", labels)
	if err != nil {
		return sess, c.fail(ctx, sess, "choose programme", err)
	}

	next, _ := selection.SelectProgramme(sess, programmes, label)
	return next, nil
}

// Play plays the session programme while hold runs, then stops it.
// Playback failures are reported to the user by the flow itself.
func (c *Client) Play(ctx context.Context, sess hotspot.Session, hold func(ctx context.Context, status string) error) error {
	err := c.flow.Run(ctx, sess, func(ctx context.Context, status string) error {
		c.record(ctx, sess, history.Event{Kind: history.EventPlayStarted})
		return hold(ctx, status)
	})

	if hotspot.KindOf(err) == hotspot.KindPlaybackUnavailable {
		c.record(ctx, sess, history.Event{Kind: history.EventFailed, Detail: "play: " + err.Error()})
		return err
	}
	c.record(context.WithoutCancel(ctx), sess, history.Event{Kind: history.EventPlayStopped})
	return err
}

// Run performs the whole flow for a new session.
func (c *Client) Run(ctx context.Context, chooser Chooser, hold func(ctx context.Context, status string) error) (hotspot.Session, error) {
	sess := hotspot.NewSession()
	log.Info().Str("session", sess.ID).Msg("Session started")

	var err error
	if sess, err = c.Discover(ctx, sess); err != nil {
		return sess, err
	}
	if sess, err = c.LoadCapabilities(ctx, sess); err != nil {
		return sess, err
	}
	if sess, err = c.ChooseTech(ctx, sess, chooser); err != nil {
		return sess, err
	}
	if sess.ActiveTech == nil {
		return sess, nil
	}
	if sess, err = c.ChooseProgramme(ctx, sess, chooser); err != nil {
		return sess, err
	}
	return sess, c.Play(ctx, sess, hold)
}

// fail reports err to the user once, logs and records it, and returns it.
func (c *Client) fail(ctx context.Context, sess hotspot.Session, step string, err error) error {
	if errors.Is(err, context.Canceled) {
		log.Debug().Str("step", step).Msg("Step cancelled")
		return err
	}

	log.Error().Err(err).Str("session", sess.ID).Str("step", step).Msg("Step failed")
	c.notifier.Error(hotspot.UserMessage(err))
	c.record(context.WithoutCancel(ctx), sess, history.Event{Kind: history.EventFailed, Detail: step + ": " + err.Error()})
	return err
}

func (c *Client) record(ctx context.Context, sess hotspot.Session, e history.Event) {
	if c.recorder == nil {
		return
	}

	e.SessionID = sess.ID
	if e.HotspotURL == "" {
		e.HotspotURL = sess.HotspotURL
	}
	if sess.ActiveTech != nil && e.Tech == "" {
		e.Tech = sess.ActiveTech.Name
	}
	if sess.Programme != nil {
		if e.Programme == "" {
			e.Programme = sess.Programme.Name
		}
		if e.URL == "" {
			e.URL = sess.Programme.URL
		}
	}

	if _, err := c.recorder.Record(ctx, e); err != nil {
		log.Warn().Err(err).Str("kind", string(e.Kind)).Msg("Failed to record history event")
	}
}
