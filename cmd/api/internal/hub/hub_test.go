package hub_test

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/cmd/api/internal/hub"
	"github.com/amitgarg31/tradesense-ai/cmd/api/internal/testutils"
	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

func testEvent() models.TradeEvent {
	return models.TradeEvent{
		Symbol:    "BTC-USD",
		Price:     50000,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestHub_BroadcastDeliversIdenticalBytesToAll(t *testing.T) {
	h := hub.NewHub(zap.NewNop())

	subs := make([]*testutils.MockSubscriber, 5)
	for i := range subs {
		subs[i] = testutils.NewMockSubscriber(fmt.Sprintf("c%d", i))
		h.Register(subs[i])
	}

	h.Broadcast(testEvent())

	var first []byte
	for i, sub := range subs {
		if sub.ReceivedCount() != 1 {
			t.Fatalf("Subscriber %d received %d messages, expected 1", i, sub.ReceivedCount())
		}
		if first == nil {
			first = sub.Received[0]
			continue
		}
		if !bytes.Equal(first, sub.Received[0]) {
			t.Errorf("Subscriber %d received different bytes", i)
		}
	}
}

func TestHub_FailedSubscriberIsIsolatedAndRemoved(t *testing.T) {
	h := hub.NewHub(zap.NewNop())

	good1 := testutils.NewMockSubscriber("good1")
	broken := testutils.NewMockSubscriber("broken")
	broken.SendErr = errors.New("send buffer full")
	good2 := testutils.NewMockSubscriber("good2")

	h.Register(good1)
	h.Register(broken)
	h.Register(good2)

	h.Broadcast(testEvent())

	if good1.ReceivedCount() != 1 || good2.ReceivedCount() != 1 {
		t.Error("Healthy subscribers must still receive the event")
	}
	if h.Count() != 2 {
		t.Errorf("Broken subscriber should be removed, registry has %d", h.Count())
	}
	if !broken.Closed {
		t.Error("Removed subscriber must be closed")
	}

	// Next pass only reaches the survivors
	h.Broadcast(testEvent())
	if good1.ReceivedCount() != 2 || good2.ReceivedCount() != 2 {
		t.Error("Survivors must keep receiving events")
	}
}

func TestHub_DeregisterIsIdempotent(t *testing.T) {
	h := hub.NewHub(zap.NewNop())
	sub := testutils.NewMockSubscriber("c1")

	h.Register(sub)
	h.Deregister(sub)
	h.Deregister(sub)

	if h.Count() != 0 {
		t.Errorf("Expected empty registry, got %d", h.Count())
	}
}

func TestHub_BroadcastWithNoSubscribers(t *testing.T) {
	h := hub.NewHub(zap.NewNop())
	// Must return without doing anything
	h.Broadcast(testEvent())
}

func TestHub_ConcurrentAccess(t *testing.T) {
	// Run with `go test -race ./...`
	h := hub.NewHub(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sub := testutils.NewMockSubscriber(fmt.Sprintf("c%d", i))
		wg.Add(3)
		go func() {
			defer wg.Done()
			h.Register(sub)
		}()
		go func() {
			defer wg.Done()
			h.Broadcast(testEvent())
		}()
		go func() {
			defer wg.Done()
			h.Deregister(sub)
		}()
	}
	wg.Wait()
}
