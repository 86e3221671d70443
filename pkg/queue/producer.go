package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/pkg/config"
	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

// Task names carried in the envelope. Each message on the task topic is one
// unit of work delivered at-least-once to exactly one worker in the group.
const (
	TaskProcessTrade    = "process_trade"
	TaskGenerateSummary = "generate_summary"
)

// Envelope wraps a task payload on the wire. ID doubles as the task handle
// returned to the caller at enqueue time.
type Envelope struct {
	ID      string          `json:"id"`
	Task    string          `json:"task"`
	Payload json.RawMessage `json:"payload"`
}

// TradePayload is the unit of work for a process_trade task. The timestamp
// stays a string on the wire; the worker normalizes it.
type TradePayload struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

// SummaryPayload is the unit of work for a generate_summary task.
type SummaryPayload struct {
	Symbol string `json:"symbol"`
}

// KafkaWriter abstracts the output stream
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer is the enqueue side of the durable task queue. Writes are
// asynchronous: callers never block on broker acknowledgement, delivery
// failures surface in the completion callback log only.
type Producer struct {
	writer KafkaWriter
	logger *zap.Logger
}

func NewProducer(cfg config.KafkaConfig, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Kafka Write Error", zap.Error(err), zap.Int("messages", len(messages)))
			}
		},
	}
	return &Producer{writer: w, logger: logger}
}

// NewProducerWithWriter wires a custom writer; used by tests.
func NewProducerWithWriter(w KafkaWriter, logger *zap.Logger) *Producer {
	return &Producer{writer: w, logger: logger}
}

// EnqueueTrade queues a tick for asynchronous processing and returns the
// task handle.
func (p *Producer) EnqueueTrade(ctx context.Context, ev models.TradeEvent) (string, error) {
	payload := TradePayload{
		Symbol:    ev.Symbol,
		Price:     ev.Price,
		Timestamp: ev.Timestamp.UTC().Format(models.TimestampLayout),
	}
	return p.enqueue(ctx, TaskProcessTrade, ev.Symbol, payload)
}

// EnqueueSummary queues a summary generation task for a symbol.
func (p *Producer) EnqueueSummary(ctx context.Context, symbol string) (string, error) {
	return p.enqueue(ctx, TaskGenerateSummary, symbol, SummaryPayload{Symbol: symbol})
}

func (p *Producer) enqueue(ctx context.Context, task, key string, payload interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", task, err)
	}

	env := Envelope{ID: uuid.NewString(), Task: task, Payload: raw}
	value, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal %s envelope: %w", task, err)
	}

	// Key by symbol so one instrument lands on one partition
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task, err)
	}

	p.logger.Debug("task enqueued", zap.String("task", task), zap.String("task_id", env.ID))
	return env.ID, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
