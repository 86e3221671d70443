package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
	"github.com/amitgarg31/tradesense-ai/pkg/queue"
)

type mockWriter struct {
	Mu       sync.Mutex
	Messages []kafka.Message
	Err      error
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error { return nil }

func TestEnqueueTrade_Envelope(t *testing.T) {
	w := &mockWriter{}
	p := queue.NewProducerWithWriter(w, zap.NewNop())

	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	handle, err := p.EnqueueTrade(context.Background(), models.TradeEvent{
		Symbol: "BTC-USD", Price: 50000, Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("EnqueueTrade failed: %v", err)
	}
	if handle == "" {
		t.Error("Expected a non-empty task handle")
	}

	if len(w.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(w.Messages))
	}
	if string(w.Messages[0].Key) != "BTC-USD" {
		t.Errorf("Expected symbol key, got %q", w.Messages[0].Key)
	}

	var env queue.Envelope
	if err := json.Unmarshal(w.Messages[0].Value, &env); err != nil {
		t.Fatalf("Envelope did not unmarshal: %v", err)
	}
	if env.Task != queue.TaskProcessTrade {
		t.Errorf("Expected task %s, got %s", queue.TaskProcessTrade, env.Task)
	}
	if env.ID != handle {
		t.Errorf("Handle should match envelope ID: %s vs %s", handle, env.ID)
	}

	var payload queue.TradePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("Payload did not unmarshal: %v", err)
	}
	if payload.Timestamp != "2026-03-14T09:26:53.589793" {
		t.Errorf("Timestamp not in wire layout: %s", payload.Timestamp)
	}
}

func TestEnqueueSummary_Envelope(t *testing.T) {
	w := &mockWriter{}
	p := queue.NewProducerWithWriter(w, zap.NewNop())

	if _, err := p.EnqueueSummary(context.Background(), "ETH-USD"); err != nil {
		t.Fatalf("EnqueueSummary failed: %v", err)
	}

	var env queue.Envelope
	if err := json.Unmarshal(w.Messages[0].Value, &env); err != nil {
		t.Fatalf("Envelope did not unmarshal: %v", err)
	}
	if env.Task != queue.TaskGenerateSummary {
		t.Errorf("Expected task %s, got %s", queue.TaskGenerateSummary, env.Task)
	}
}

func TestEnqueue_WriterError(t *testing.T) {
	w := &mockWriter{Err: errors.New("broker down")}
	p := queue.NewProducerWithWriter(w, zap.NewNop())

	if _, err := p.EnqueueTrade(context.Background(), models.TradeEvent{Symbol: "BTC-USD"}); err == nil {
		t.Error("Expected error when writer fails")
	}
}
