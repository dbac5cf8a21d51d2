// Package mpd provides a wrapper around the gompd MPD client.
package mpd

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// Client wraps the MPD client with reconnection logic.
type Client struct {
	mu       sync.RWMutex
	client   *mpd.Client
	watcher  *mpd.Watcher
	host     string
	port     int
	password string
}

// NewClient creates a new MPD client wrapper.
func NewClient(host string, port int, password string) *Client {
	return &Client{
		host:     host,
		port:     port,
		password: password,
	}
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// connectLocked establishes connection (must hold lock).
func (c *Client) connectLocked() error {
	addr := c.addr()
	log.Info().Str("addr", addr).Msg("Connecting to MPD")

	var (
		client *mpd.Client
		err    error
	)
	if c.password != "" {
		client, err = mpd.DialAuthenticated("tcp", addr, c.password)
	} else {
		client, err = mpd.Dial("tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to MPD: %w", err)
	}

	c.client = client
	log.Info().Msg("Connected to MPD")
	return nil
}

// ensureConnected checks connection and reconnects if needed.
func (c *Client) ensureConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return c.connectLocked()
	}

	if err := c.client.Ping(); err != nil {
		log.Warn().Err(err).Msg("MPD connection lost, reconnecting...")
		c.client.Close()
		c.client = nil
		return c.connectLocked()
	}

	return nil
}

// Close closes the MPD connection. Closing a closed client is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}

	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// Status returns the current MPD status.
func (c *Client) Status() (mpd.Attrs, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.client.Status()
}

// Stop stops playback.
func (c *Client) Stop() error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.client.Stop()
}

// Clear clears the current queue.
func (c *Client) Clear() error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.client.Clear()
}

// AddID adds a URI to the queue and returns its song ID.
func (c *Client) AddID(uri string) (int, error) {
	if err := c.ensureConnected(); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.client.AddID(uri, -1)
}

// DeleteID removes a song from the queue by ID.
func (c *Client) DeleteID(id int) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.client.DeleteID(id)
}

// PlayID starts playback of the song with the given ID.
func (c *Client) PlayID(id int) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.client.PlayID(id)
}

// Watch starts watching for MPD subsystem changes.
// Returns a channel that receives subsystem names when they change.
// Events are dropped while the channel is full. The channel is closed
// when the client is closed.
func (c *Client) Watch(subsystems ...string) (<-chan string, error) {
	watcher, err := mpd.NewWatcher("tcp", c.addr(), c.password, subsystems...)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	c.mu.Lock()
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.watcher = watcher
	c.mu.Unlock()

	ch := make(chan string, 10)

	go func() {
		defer close(ch)
		for {
			select {
			case subsystem, ok := <-watcher.Event:
				if !ok {
					return
				}
				select {
				case ch <- subsystem:
				default:
				}
			case err, ok := <-watcher.Error:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("MPD watcher error")
				time.Sleep(time.Second)
			}
		}
	}()

	return ch, nil
}
