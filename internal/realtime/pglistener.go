package realtime

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"tutoring-service/internal/logging"
	"tutoring-service/internal/observability"
)

// Publisher accepts decoded insert events.
type Publisher interface {
	Publish(table string, row Row)
}

// PGListener turns postgres NOTIFY payloads into broker publications.
type PGListener struct {
	dsn       string
	channel   string
	publisher Publisher
	log       zerolog.Logger
}

type insertPayload struct {
	Table string `json:"table"`
	Row   Row    `json:"row"`
}

// NewPGListener listens on channel using its own connection to dsn.
func NewPGListener(dsn, channel string, publisher Publisher) *PGListener {
	return &PGListener{
		dsn:       dsn,
		channel:   channel,
		publisher: publisher,
		log:       logging.With("pglistener"),
	}
}

// Run blocks until ctx is cancelled.
func (l *PGListener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.log.Warn().Err(err).Int("event", int(ev)).Msg("listener connection event")
			return
		}
		if ev == pq.ListenerEventReconnected {
			// NOTIFYs sent while disconnected are lost.
			l.log.Info().Msg("listener reconnected")
		}
	})
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return err
	}
	l.log.Info().Str("channel", l.channel).Msg("listening for inserts")

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-listener.Notify:
			if n == nil {
				continue
			}
			l.Dispatch(n.Extra)
		case <-ping.C:
			go func() {
				if err := listener.Ping(); err != nil {
					l.log.Warn().Err(err).Msg("listener ping failed")
				}
			}()
		}
	}
}

// Dispatch decodes one NOTIFY payload and publishes it.
func (l *PGListener) Dispatch(payload string) {
	var ev insertPayload
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.Table == "" || ev.Row == nil {
		l.log.Warn().Err(err).Msg("undecodable insert notification")
		observability.IncFeedDropped("unknown", "decode")
		return
	}
	l.publisher.Publish(ev.Table, ev.Row)
}
