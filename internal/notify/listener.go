package notify

import (
	"context"
	"encoding/json"
	"time"

	"studioslot/internal/logger"

	"github.com/lib/pq"
)

const channelName = "reservation_events"

type insertPayload struct {
	ReservationID   int    `json:"reservation_id"`
	ClassID         int    `json:"class_id"`
	UserID          int    `json:"user_id"`
	ReservationDate string `json:"reservation_date"`
	CreatedAt       string `json:"created_at"`
}

// Listener bridges the reservations insert trigger (pg_notify) into the
// hub, so staff connected to this node see bookings written by any node.
type Listener struct {
	pql *pq.Listener
	hub *Hub
}

func NewListener(databaseURL string, hub *Hub) (*Listener, error) {
	pql := pq.NewListener(databaseURL, 10*time.Second, time.Minute, func(event pq.ListenerEventType, err error) {
		if err != nil {
			logger.Error("reservation listener connection event", "event", int(event), "error", err)
		}
	})

	if err := pql.Listen(channelName); err != nil {
		_ = pql.Close()
		return nil, err
	}

	return &Listener{pql: pql, hub: hub}, nil
}

// Run pumps notifications into the hub until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	defer func() {
		if err := l.pql.Close(); err != nil {
			logger.Errorf("closing reservation listener: %v", err)
		}
	}()

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-l.pql.Notify:
			// nil signals a reconnect; pending events were re-fetched
			// by other nodes' listeners, nothing to replay here.
			if n == nil {
				continue
			}
			l.dispatch(n.Extra)
		case <-ping.C:
			if err := l.pql.Ping(); err != nil {
				logger.Errorf("reservation listener ping: %v", err)
			}
		}
	}
}

func (l *Listener) dispatch(raw string) {
	var payload insertPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		logger.Errorf("bad reservation event payload: %v", err)
		return
	}

	at, err := time.Parse(time.RFC3339, payload.CreatedAt)
	if err != nil {
		at = time.Now()
	}

	l.hub.Publish(NewEvent(payload.ReservationID, payload.ClassID, payload.UserID, payload.ReservationDate, at))
}
