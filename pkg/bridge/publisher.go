package bridge

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

// Publisher is the send side of the bridge. Publish is a single best-effort
// attempt: durability comes from the storage writes that precede it, so a
// failed publish only costs real-time visibility.
type Publisher struct {
	client  *redis.Client
	channel string
}

func NewPublisher(client *redis.Client, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

func (p *Publisher) Publish(ctx context.Context, ev models.TradeEvent) error {
	payload, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("encode trade event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}
