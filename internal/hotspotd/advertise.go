package hotspotd

import (
	"fmt"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog/log"
)

// Registrar publishes a DNS-SD service. It matches zeroconf.Register.
type Registrar func(instance, service, domain string, port int, text []string) (Shutdowner, error)

// Shutdowner stops an advertisement.
type Shutdowner interface {
	Shutdown()
}

// ZeroconfRegistrar registers with the multicast DNS responder.
func ZeroconfRegistrar(instance, service, domain string, port int, text []string) (Shutdowner, error) {
	server, err := zeroconf.Register(instance, service, domain, port, text, nil)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// Advertiser announces the hotspot on the local network.
type Advertiser struct {
	register Registrar
	server   Shutdowner
}

// NewAdvertiser creates an advertiser using register.
func NewAdvertiser(register Registrar) *Advertiser {
	return &Advertiser{register: register}
}

// TXTRecords returns the TXT entries published for id. Clients append the
// path value to the base URL.
func TXTRecords(id Identity) []string {
	return []string{"path=/", "id=" + id.UUID}
}

// Start publishes service on port under the identity name.
func (a *Advertiser) Start(id Identity, service, domain string, port int) error {
	if a.server != nil {
		return fmt.Errorf("already advertising")
	}

	server, err := a.register(id.Name, service, domain, port, TXTRecords(id))
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", service, err)
	}
	a.server = server

	log.Info().
		Str("instance", id.Name).
		Str("service", service).
		Str("domain", domain).
		Int("port", port).
		Msg("Advertising hotspot")
	return nil
}

// Stop withdraws the advertisement. Stop without Start is a no-op.
func (a *Advertiser) Stop() {
	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	log.Info().Msg("Hotspot advertisement stopped")
}
