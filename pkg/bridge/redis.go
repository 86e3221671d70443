package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/amitgarg31/tradesense-ai/pkg/config"
)

// RedisDialer creates one Redis connection plus subscription per Dial call.
// Connections are deliberately not shared across attempts: the subscriber
// discards the whole object on error and dials again.
type RedisDialer struct {
	cfg config.RedisConfig
}

func NewRedisDialer(cfg config.RedisConfig) *RedisDialer {
	return &RedisDialer{cfg: cfg}
}

func (d *RedisDialer) Dial(ctx context.Context) (Conn, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     d.cfg.Addr,
		Password: d.cfg.Password,
		DB:       d.cfg.DB,
	})

	pubsub := client.Subscribe(ctx, d.cfg.Channel)
	// Force the SUBSCRIBE round trip so a dead broker fails here, not in
	// the listen loop
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		client.Close()
		return nil, fmt.Errorf("subscribe %s: %w", d.cfg.Channel, err)
	}

	return &redisConn{client: client, pubsub: pubsub, channel: d.cfg.Channel}, nil
}

type redisConn struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	channel string
}

func (c *redisConn) Listen(ctx context.Context, onMessage func(payload []byte)) error {
	ch := c.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("pub/sub channel closed")
			}
			onMessage([]byte(msg.Payload))
		}
	}
}

func (c *redisConn) Close() error {
	// Unsubscribe is part of pubsub.Close; close the client too so nothing
	// survives into the next attempt
	err := c.pubsub.Close()
	if cerr := c.client.Close(); err == nil {
		err = cerr
	}
	return err
}
