package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

// MockSubscriber simulates a connected live-stream client.
type MockSubscriber struct {
	IDVal    string
	Received [][]byte
	Closed   bool
	SendErr  error
	Mu       sync.Mutex
}

func NewMockSubscriber(id string) *MockSubscriber {
	return &MockSubscriber{IDVal: id}
}

func (m *MockSubscriber) ID() string { return m.IDVal }

func (m *MockSubscriber) TrySend(b []byte) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	m.Received = append(m.Received, cp)
	return nil
}

func (m *MockSubscriber) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockSubscriber) ReceivedCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Received)
}

// MockProducer records enqueued work instead of writing to Kafka.
type MockProducer struct {
	Trades         []models.TradeEvent
	SummarySymbols []string
	Err            error
	Mu             sync.Mutex
}

func (m *MockProducer) EnqueueTrade(ctx context.Context, ev models.TradeEvent) (string, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Trades = append(m.Trades, ev)
	return "task-1", nil
}

func (m *MockProducer) EnqueueSummary(ctx context.Context, symbol string) (string, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.SummarySymbols = append(m.SummarySymbols, symbol)
	return "task-2", nil
}

// MockDocStore serves canned query results.
type MockDocStore struct {
	Trades    []models.TradeDocument
	Summary   *models.Summary
	FailReads bool
}

func (m *MockDocStore) RecentTrades(ctx context.Context, symbol string, limit int64) ([]models.TradeDocument, error) {
	if m.FailReads {
		return nil, errors.New("document store unavailable")
	}
	if int64(len(m.Trades)) > limit {
		return m.Trades[:limit], nil
	}
	return m.Trades, nil
}

func (m *MockDocStore) LatestSummary(ctx context.Context, symbol string) (*models.Summary, error) {
	if m.FailReads {
		return nil, errors.New("document store unavailable")
	}
	if m.Summary != nil && symbol != "" && m.Summary.Symbol != symbol {
		return nil, nil
	}
	return m.Summary, nil
}
