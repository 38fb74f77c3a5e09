package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisSource sources events from a Redis pub/sub channel. It is the
// deployment alternative when the addresses table lives behind a pooler that
// does not pass LISTEN/NOTIFY through.
type RedisSource struct {
	client *redis.Client
	pubsub *redis.PubSub
	out    chan []byte
	done   chan struct{}
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

func NewRedisSource(ctx context.Context, client *redis.Client, channel string, logger *slog.Logger) (*RedisSource, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	pubsub := client.Subscribe(ctx, channel)
	// Force the subscription so a bad address fails here, not on first read.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	s := &RedisSource{
		client: client,
		pubsub: pubsub,
		out:    make(chan []byte, 64),
		done:   make(chan struct{}),
		logger: logger.With("component", "redis_source", "channel", channel),
	}
	go s.pump()
	return s, nil
}

func (s *RedisSource) pump() {
	defer close(s.out)

	for {
		select {
		case msg, ok := <-s.pubsub.Channel():
			if !ok {
				return
			}
			select {
			case s.out <- []byte(msg.Payload):
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *RedisSource) Notifications() <-chan []byte { return s.out }

func (s *RedisSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.pubsub.Close()
	})
	return s.closeErr
}
