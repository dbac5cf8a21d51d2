package mpd

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StatusFunc reads the MPD playback state and audio format.
type StatusFunc func() (state, audio string, err error)

// FollowStatus calls update with the current status once, then again after
// every event received on events and on every tick of interval, until ctx
// is done. A nil or closed events channel leaves only the ticker.
func FollowStatus(ctx context.Context, status StatusFunc, events <-chan string, interval time.Duration, update func(state, audio string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh := func() {
		state, audio, err := status()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read MPD status")
			return
		}
		update(state, audio)
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case subsystem, ok := <-events:
			if !ok {
				log.Debug().Msg("MPD watcher closed, polling status")
				events = nil
				continue
			}
			log.Debug().Str("subsystem", subsystem).Msg("MPD subsystem changed")
			refresh()
		case <-ticker.C:
			refresh()
		}
	}
}
