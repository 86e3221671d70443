package worker

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

// KafkaReader abstracts the input stream. Fetch and commit are separate so
// offsets only advance after a task fully succeeds.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RelationalStore is the durable trade log keyed for dedup.
type RelationalStore interface {
	InsertTrade(ctx context.Context, key string, ev models.TradeEvent) error
}

// DocumentStore is the query-side store for trades and summaries.
type DocumentStore interface {
	InsertTrade(ctx context.Context, doc models.TradeDocument) error
	RecentTrades(ctx context.Context, symbol string, limit int64) ([]models.TradeDocument, error)
	InsertSummary(ctx context.Context, summary models.Summary) error
}

// Publisher pushes processed events onto the broadcast channel.
type Publisher interface {
	Publish(ctx context.Context, ev models.TradeEvent) error
}

// LLMClient generates summaries and embeddings.
type LLMClient interface {
	Summarize(ctx context.Context, text string) (string, error)
	Embed(ctx context.Context, text string) ([]float64, error)
}
