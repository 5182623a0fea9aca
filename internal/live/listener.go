package live

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Listener bridges Postgres NOTIFY events into the hub. The database
// trigger is the single emission point, so rows written by any client
// of the database reach subscribers, not only rows written through
// this service.
type Listener struct {
	pq      *pq.Listener
	channel string
	hub     *Hub
	log     zerolog.Logger
}

func NewListener(dsn, channel string, hub *Hub, log zerolog.Logger) (*Listener, error) {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(event pq.ListenerEventType, err error) {
		if err != nil {
			log.Error().Err(err).Int("event", int(event)).Msg("listener connection event")
		}
	})
	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return nil, err
	}
	return &Listener{pq: listener, channel: channel, hub: hub, log: log}, nil
}

// Run pumps notifications into the hub until the context ends. Long
// quiet periods get a liveness ping so a dead connection reconnects
// instead of idling forever.
func (l *Listener) Run(ctx context.Context) {
	defer l.pq.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case notification := <-l.pq.Notify:
			if notification == nil {
				// nil marks a reconnect; notifications sent while
				// disconnected are lost, subscribers resync on the
				// next event.
				l.log.Warn().Str("channel", l.channel).Msg("listener reconnected")
				continue
			}
			l.hub.Broadcast([]byte(notification.Extra))
		case <-time.After(90 * time.Second):
			if err := l.pq.Ping(); err != nil {
				l.log.Error().Err(err).Msg("listener ping failed")
			}
		}
	}
}
