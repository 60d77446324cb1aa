package socket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	rapidredis "github.com/dmitrymomot/rapid/pkg/redis"
)

// DefaultChannel is the Redis pub/sub channel used by RedisBroker.
const DefaultChannel = "rapid:socket"

// RedisBroker fans out events through Redis pub/sub.
type RedisBroker struct {
	client  redis.UniversalClient
	channel string
	owned   bool

	closeOnce sync.Once
	done      chan struct{}
}

// NewRedisBroker wraps an existing client. The caller keeps ownership of it.
func NewRedisBroker(client redis.UniversalClient, channel string) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{
		client:  client,
		channel: channel,
		done:    make(chan struct{}),
	}
}

// OpenRedisBroker connects to url and returns a broker that closes the
// connection on Close.
func OpenRedisBroker(ctx context.Context, url string) (*RedisBroker, error) {
	client, err := rapidredis.Open(ctx, rapidredis.Config{URL: url})
	if err != nil {
		return nil, errors.Join(ErrBrokerFailed, err)
	}
	b := NewRedisBroker(client, DefaultChannel)
	b.owned = true
	return b, nil
}

func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return errors.Join(ErrInvalidMessage, err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return errors.Join(ErrBrokerFailed, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, fn func(Envelope)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return errors.Join(ErrBrokerFailed, err)
	}

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			fn(env)
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		}
	}
}

// Healthcheck pings Redis.
func (b *RedisBroker) Healthcheck(ctx context.Context) error {
	return rapidredis.Healthcheck(b.client)(ctx)
}

func (b *RedisBroker) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		if b.owned {
			err = b.client.Close()
		}
	})
	return err
}
