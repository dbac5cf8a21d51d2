package mpd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// queueClient is the subset of Client used by Player.
type queueClient interface {
	Clear() error
	AddID(uri string) (int, error)
	DeleteID(id int) error
	PlayID(id int) error
	Stop() error
	Status() (mpd.Attrs, error)
	Close() error
}

// Player plays a single stream URL through MPD.
type Player struct {
	mu     sync.Mutex
	client queueClient
	songID int
	queued bool
	closed bool
}

// NewPlayer creates a player that drives client.
func NewPlayer(client *Client) *Player {
	return newPlayer(client)
}

func newPlayer(client queueClient) *Player {
	return &Player{client: client, closed: true}
}

// Start replaces the MPD queue with url and starts playing it.
func (p *Player) Start(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	p.closed = false

	if err := p.client.Clear(); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}

	id, err := p.client.AddID(url)
	if err != nil {
		return fmt.Errorf("failed to add stream: %w", err)
	}
	p.songID = id
	p.queued = true

	if err := p.client.PlayID(id); err != nil {
		return fmt.Errorf("failed to play stream: %w", err)
	}

	log.Info().Str("url", url).Int("song_id", id).Msg("MPD playing stream")
	return nil
}

// Stop stops playback.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	return p.client.Stop()
}

// Release removes the queued stream and closes the connection.
// Calling Release more than once is a no-op.
func (p *Player) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.queued {
		if err := p.client.DeleteID(p.songID); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove stream: %w", err))
		}
		p.queued = false
	}
	if err := p.client.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close MPD connection: %w", err))
	}

	log.Debug().Msg("MPD player released")
	return errors.Join(errs...)
}

// Status returns the MPD playback state and audio format fields.
func (p *Player) Status() (state, audio string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return "stop", "", nil
	}
	attrs, err := p.client.Status()
	if err != nil {
		return "", "", err
	}
	return attrs["state"], attrs["audio"], nil
}
