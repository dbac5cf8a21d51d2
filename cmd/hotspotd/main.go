// Package main is the entry point for the hotspot daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ebulabs/broadcasting-hotspot/internal/config"
	"github.com/ebulabs/broadcasting-hotspot/internal/hotspotd"
	"github.com/ebulabs/broadcasting-hotspot/internal/infra/discovery"
	"github.com/ebulabs/broadcasting-hotspot/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	// Command line flags
	port := flag.Int("port", config.GetEnvInt(config.EnvHotspotdPort, 8080), "HTTP server port")
	cataloguePath := flag.String("catalogue", config.GetEnv(config.EnvHotspotdCatalogue, "catalogue.yaml"), "YAML catalogue of techs and programmes")
	identityPath := flag.String("identity", "data/identity.json", "Instance identity file")
	name := flag.String("name", "", "Advertised instance name (defaults to the stored name)")
	service := flag.String("service", config.GetEnv(config.EnvHotspotService, discovery.DefaultService), "DNS-SD service type to advertise")
	noAdvertise := flag.Bool("no-advertise", false, "Do not advertise over DNS-SD")
	showVersion := flag.Bool("version", false, "Print version and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo().String())
		return
	}

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Print startup banner
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", version.GetInfo().String())
	log.Info().Msg("  Broadcasting Hotspot Daemon")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Int("port", *port).
		Str("catalogue", *cataloguePath).
		Str("service", *service).
		Bool("advertise", !*noAdvertise).
		Msg("Configuration")

	catalogue, err := hotspotd.LoadCatalogue(*cataloguePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load catalogue")
	}

	identities, err := hotspotd.NewIdentityStore(*identityPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize identity")
	}
	if *name != "" && *name != identities.Identity().Name {
		if err := identities.SetName(*name); err != nil {
			log.Fatal().Err(err).Msg("Failed to store instance name")
		}
	}
	identity := identities.Identity()

	server := hotspotd.NewServer(catalogue, hotspotd.NewMetrics(), identity)
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(*port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	advertiser := hotspotd.NewAdvertiser(hotspotd.ZeroconfRegistrar)
	if !*noAdvertise {
		if err := advertiser.Start(identity, *service, discovery.DefaultDomain, *port); err != nil {
			log.Error().Err(err).Msg("DNS-SD advertising unavailable, clients need -hotspot-url")
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigCh {
		if sig != syscall.SIGHUP {
			log.Info().Str("signal", sig.String()).Msg("Shutting down")
			break
		}
		reloaded, err := hotspotd.LoadCatalogue(*cataloguePath)
		if err != nil {
			log.Error().Err(err).Msg("Catalogue reload failed, keeping the current one")
			continue
		}
		server.SetCatalogue(reloaded)
	}

	advertiser.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	log.Info().Msg("Hotspot daemon stopped")
}
