package testutils

import (
	"context"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

// MockReader serves a scripted set of messages, then reports EOF like a
// closed reader would.
type MockReader struct {
	Messages  []kafka.Message
	Committed []kafka.Message
	next      int
}

func (m *MockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if m.next >= len(m.Messages) {
		return kafka.Message{}, io.EOF
	}
	msg := m.Messages[m.next]
	msg.Offset = int64(m.next)
	m.next++
	return msg, nil
}

func (m *MockReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Committed = append(m.Committed, msgs...)
	return nil
}

func (m *MockReader) Close() error { return nil }

// InsertedTrade records one relational write.
type InsertedTrade struct {
	Key   string
	Event models.TradeEvent
}

// MockRelational records trade inserts instead of hitting Postgres.
// FailFirst makes the first N inserts fail before the store recovers.
type MockRelational struct {
	Inserted  []InsertedTrade
	Err       error
	FailFirst int
}

func (m *MockRelational) InsertTrade(ctx context.Context, key string, ev models.TradeEvent) error {
	if m.Err != nil {
		return m.Err
	}
	if m.FailFirst > 0 {
		m.FailFirst--
		return errors.New("connection refused")
	}
	m.Inserted = append(m.Inserted, InsertedTrade{Key: key, Event: ev})
	return nil
}

// MockDocuments records document-store writes and serves canned reads.
type MockDocuments struct {
	Trades    []models.TradeDocument
	Recent    []models.TradeDocument
	Summaries []models.Summary
	InsertErr error
	ReadErr   error
}

func (m *MockDocuments) InsertTrade(ctx context.Context, doc models.TradeDocument) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.Trades = append(m.Trades, doc)
	return nil
}

func (m *MockDocuments) RecentTrades(ctx context.Context, symbol string, limit int64) ([]models.TradeDocument, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if int64(len(m.Recent)) > limit {
		return m.Recent[:limit], nil
	}
	return m.Recent, nil
}

func (m *MockDocuments) InsertSummary(ctx context.Context, summary models.Summary) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.Summaries = append(m.Summaries, summary)
	return nil
}

// MockPublisher records published events.
type MockPublisher struct {
	Events []models.TradeEvent
	Err    error
}

func (m *MockPublisher) Publish(ctx context.Context, ev models.TradeEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, ev)
	return nil
}

// MockLLM returns canned completions.
type MockLLM struct {
	SummaryText string
	SummaryErr  error
	Embedding   []float64
	EmbedErr    error
	Prompts     []string
}

func (m *MockLLM) Summarize(ctx context.Context, text string) (string, error) {
	if m.SummaryErr != nil {
		return "", m.SummaryErr
	}
	m.Prompts = append(m.Prompts, text)
	return m.SummaryText, nil
}

func (m *MockLLM) Embed(ctx context.Context, text string) ([]float64, error) {
	if m.EmbedErr != nil {
		return nil, m.EmbedErr
	}
	return m.Embedding, nil
}
