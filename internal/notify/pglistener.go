package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// PGListener sources events from Postgres LISTEN/NOTIFY. The underlying
// listener reconnects on its own; a nil notification after a reconnect only
// signals that events may have been missed while disconnected, which the
// startup sweep of uninspected addresses already covers.
type PGListener struct {
	listener *pq.Listener
	out      chan []byte
	done     chan struct{}
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

func NewPGListener(conninfo, channel string, logger *slog.Logger) (*PGListener, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	logger = logger.With("component", "pg_listener", "channel", channel)

	listener := pq.NewListener(conninfo, minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Error("listener event", "event", ev, "error", err)
			}
		})
	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen on %s: %w", channel, err)
	}

	l := &PGListener{
		listener: listener,
		out:      make(chan []byte, 64),
		done:     make(chan struct{}),
		logger:   logger,
	}
	go l.pump()
	return l, nil
}

func (l *PGListener) pump() {
	defer close(l.out)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case n, ok := <-l.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				l.logger.Warn("connection re-established, notifications may have been dropped")
				continue
			}
			select {
			case l.out <- []byte(n.Extra):
			case <-l.done:
				return
			}
		case <-ping.C:
			if err := l.listener.Ping(); err != nil {
				l.logger.Error("listener ping failed", "error", err)
			}
		case <-l.done:
			return
		}
	}
}

func (l *PGListener) Notifications() <-chan []byte { return l.out }

func (l *PGListener) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		l.closeErr = l.listener.Close()
	})
	return l.closeErr
}
