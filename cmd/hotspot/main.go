// Package main is the entry point for the hotspot client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ebulabs/broadcasting-hotspot/internal/app"
	"github.com/ebulabs/broadcasting-hotspot/internal/audio"
	"github.com/ebulabs/broadcasting-hotspot/internal/config"
	"github.com/ebulabs/broadcasting-hotspot/internal/domain/selection"
	"github.com/ebulabs/broadcasting-hotspot/internal/infra/capabilities"
	"github.com/ebulabs/broadcasting-hotspot/internal/infra/discovery"
	"github.com/ebulabs/broadcasting-hotspot/internal/infra/history"
	"github.com/ebulabs/broadcasting-hotspot/internal/infra/mpd"
	"github.com/ebulabs/broadcasting-hotspot/internal/version"
)

// statusInterval is the fallback poll used alongside MPD player events.
const statusInterval = 10 * time.Second

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	_ = config.Load()

	// Command line flags
	hotspotURL := flag.String("hotspot-url", config.GetEnv(config.EnvHotspotURL, ""), "Hotspot base URL (skips discovery)")
	service := flag.String("service", config.GetEnv(config.EnvHotspotService, discovery.DefaultService), "DNS-SD service type to browse")
	discoveryTimeout := flag.Duration("discovery-timeout", config.GetEnvDuration(config.EnvDiscoveryTimeout, discovery.DefaultTimeout), "How long to browse for a hotspot")
	mpdHost := flag.String("mpd-host", config.GetEnv(config.EnvMPDHost, "localhost"), "MPD host")
	mpdPort := flag.Int("mpd-port", config.GetEnvInt(config.EnvMPDPort, 6600), "MPD port")
	mpdPassword := flag.String("mpd-password", config.GetEnv(config.EnvMPDPassword, ""), "MPD password")
	historyDB := flag.String("history-db", config.GetEnv(config.EnvHistoryDB, history.DefaultDBPath), "History database path (empty disables history)")
	showHistory := flag.Int("history", 0, "Print the last N history events and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo().String())
		return nil
	}

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msgf("%s", version.GetInfo().String())
	log.Info().
		Str("hotspot_url", *hotspotURL).
		Str("service", *service).
		Dur("discovery_timeout", *discoveryTimeout).
		Str("mpd_host", *mpdHost).
		Int("mpd_port", *mpdPort).
		Bool("password_set", *mpdPassword != "").
		Str("history_db", *historyDB).
		Msg("Configuration")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *history.DB
	if *historyDB != "" {
		store = history.NewDB(*historyDB)
		if err := store.Open(); err != nil {
			log.Warn().Err(err).Msg("History disabled")
			store = nil
		} else {
			defer store.Close()
			if v, err := store.SchemaVersion(ctx); err == nil {
				log.Debug().Str("schema", v).Msg("History schema version")
			}
		}
	}

	if *showHistory > 0 {
		if store == nil {
			log.Error().Msg("History database is not available")
			return errors.New("history unavailable")
		}
		if err := printHistory(ctx, store, *showHistory); err != nil {
			log.Error().Err(err).Msg("Failed to read history")
			return err
		}
		return nil
	}

	notifier := newConsoleNotifier(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()))

	locator, err := discovery.NewZeroconfLocator(
		discovery.WithService(*service),
		discovery.WithTimeout(*discoveryTimeout),
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create hotspot locator")
		return err
	}
	locator.Lock().OnTransition(
		func() { log.Debug().Msg("Multicast reception enabled") },
		func() { log.Debug().Msg("Multicast reception disabled") },
	)

	fetcher := capabilities.NewFetcher(capabilities.WithWarnFunc(notifier.Info))

	mpdClient := mpd.NewClient(*mpdHost, *mpdPort, *mpdPassword)
	player := mpd.NewPlayer(mpdClient)

	opts := []app.Option{app.WithHotspotURL(*hotspotURL)}
	if store != nil {
		opts = append(opts, app.WithRecorder(store))
	}
	client := app.NewClient(locator, fetcher, player, notifier, opts...)
	defer client.Flow().Suspend()

	prompter := selection.NewPrompter(os.Stdin, os.Stdout)
	ctrl := audio.NewController()

	sess, err := client.Run(ctx, prompter, func(ctx context.Context, status string) error {
		fmt.Print(status)
		fmt.Println("Playing. Press Ctrl-C to stop.")
		return holdPlayback(ctx, mpdClient, player, ctrl)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Debug().Err(err).Str("session", sess.ID).Msg("Session ended with error")
		return err
	}
	log.Info().Str("session", sess.ID).Msg("Session finished")
	return nil
}

// holdPlayback prints the output format whenever it changes until ctx ends.
// Refreshes follow MPD player events, with a slow poll as fallback.
func holdPlayback(ctx context.Context, client *mpd.Client, player *mpd.Player, ctrl *audio.Controller) error {
	defer ctrl.Reset()

	events, err := client.Watch("player")
	if err != nil {
		log.Warn().Err(err).Msg("MPD watcher unavailable, polling status")
	}

	mpd.FollowStatus(ctx, player.Status, events, statusInterval, func(state, format string) {
		if ctrl.UpdateFromMPDStatus(state, format) {
			fmt.Println(ctrl.Summary())
		}
	})
	fmt.Println()
	return nil
}

func printHistory(ctx context.Context, store *history.DB, n int) error {
	events, err := store.Recent(ctx, n)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Printf("%s  %-13s  %s", e.CreatedAt.Local().Format(time.DateTime), e.Kind, e.HotspotURL)
		if e.Tech != "" {
			fmt.Printf("  %s", e.Tech)
		}
		if e.Programme != "" {
			fmt.Printf("  %s", e.Programme)
		}
		if e.Detail != "" {
			fmt.Printf("  (%s)", e.Detail)
		}
		fmt.Println()
	}
	return nil
}
