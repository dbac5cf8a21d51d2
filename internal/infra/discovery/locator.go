// Package discovery locates the hotspot service over zeroconf (mDNS/DNS-SD).
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog/log"

	"github.com/ebulabs/broadcasting-hotspot/internal/domain/hotspot"
)

const (
	// DefaultService is the DNS-SD service type advertised by hotspotd.
	DefaultService = "_hotspot._tcp"

	// DefaultDomain is the mDNS browse domain.
	DefaultDomain = "local."

	// DefaultTimeout bounds a single discovery attempt.
	DefaultTimeout = 10 * time.Second
)

// Browser streams service entries for a DNS-SD service type.
// *zeroconf.Resolver satisfies it.
type Browser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// Locator resolves the hotspot base URL.
type Locator struct {
	browser Browser
	lock    *MulticastLock
	service string
	domain  string
	timeout time.Duration
}

// Option configures a Locator.
type Option func(*Locator)

// WithService sets the DNS-SD service type to browse for.
func WithService(service string) Option {
	return func(l *Locator) {
		l.service = service
	}
}

// WithDomain sets the browse domain.
func WithDomain(domain string) Option {
	return func(l *Locator) {
		l.domain = domain
	}
}

// WithTimeout bounds each discovery attempt.
func WithTimeout(d time.Duration) Option {
	return func(l *Locator) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLock sets the multicast lock held while browsing.
func WithLock(lock *MulticastLock) Option {
	return func(l *Locator) {
		l.lock = lock
	}
}

// NewLocator creates a locator that browses with b.
func NewLocator(b Browser, opts ...Option) *Locator {
	l := &Locator{
		browser: b,
		lock:    NewMulticastLock("HotspotDnsSDLock"),
		service: DefaultService,
		domain:  DefaultDomain,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewZeroconfLocator creates a locator backed by a zeroconf resolver.
func NewZeroconfLocator(opts ...Option) (*Locator, error) {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to create zeroconf resolver: %w", err)
	}
	return NewLocator(resolver, opts...), nil
}

// Lock returns the multicast lock used by the locator.
func (l *Locator) Lock() *MulticastLock {
	return l.lock
}

// Locate browses until the first usable entry arrives or the timeout hits.
func (l *Locator) Locate(ctx context.Context) (string, error) {
	var url string
	err := l.lock.Scoped(func() error {
		var err error
		url, err = l.browse(ctx)
		return err
	})
	return url, err
}

func (l *Locator) browse(parent context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(parent, l.timeout)
	defer cancel()

	log.Info().
		Str("service", l.service).
		Str("domain", l.domain).
		Dur("timeout", l.timeout).
		Msg("Trying to find hotspot")

	entries := make(chan *zeroconf.ServiceEntry, 8)
	if err := l.browser.Browse(ctx, l.service, l.domain, entries); err != nil {
		return "", hotspot.NewError(hotspot.KindIO, "browse "+l.service, err)
	}

	for {
		select {
		case <-ctx.Done():
			if parent.Err() != nil {
				return "", parent.Err()
			}
			log.Warn().Dur("timeout", l.timeout).Msg("No hotspot found")
			return "", hotspot.NewError(hotspot.KindTimeout, "locate hotspot", ctx.Err())

		case entry, ok := <-entries:
			if !ok {
				// Resolver gave up before the deadline; wait for it.
				entries = nil
				continue
			}
			url, ok := BaseURL(entry)
			if !ok {
				log.Debug().Msg("Skipping entry without address")
				continue
			}
			log.Info().Str("instance", entry.Instance).Str("url", url).Msg("Found hotspot")
			return url, nil
		}
	}
}

// BaseURL builds the hotspot base URL from a service entry.
// IPv4 addresses are preferred over the advertised host name.
func BaseURL(e *zeroconf.ServiceEntry) (string, bool) {
	if e == nil || e.Port <= 0 {
		return "", false
	}

	var host string
	switch {
	case len(e.AddrIPv4) > 0:
		host = e.AddrIPv4[0].String()
	case e.HostName != "":
		host = strings.TrimSuffix(e.HostName, ".")
	case len(e.AddrIPv6) > 0:
		host = e.AddrIPv6[0].String()
	default:
		return "", false
	}

	url := "http://" + net.JoinHostPort(host, strconv.Itoa(e.Port))
	if p := txtValue(e.Text, "path"); p != "" && p != "/" {
		url += "/" + strings.Trim(p, "/")
	}
	return url, true
}

func txtValue(text []string, key string) string {
	prefix := key + "="
	for _, t := range text {
		if strings.HasPrefix(t, prefix) {
			return strings.TrimPrefix(t, prefix)
		}
	}
	return ""
}
