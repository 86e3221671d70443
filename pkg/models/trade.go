package models

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimestampLayout is the canonical wire format for tick timestamps:
// microsecond precision, no zone suffix, always UTC.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// TradeEvent is a single market tick as it flows through the pipeline.
type TradeEvent struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
}

// tradeEventWire pins the JSON field names used on the broadcast channel
// and by live-stream subscribers.
type tradeEventWire struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

// Encode serializes the event for the broadcast channel.
func (ev TradeEvent) Encode() ([]byte, error) {
	return json.Marshal(tradeEventWire{
		Symbol:    ev.Symbol,
		Price:     ev.Price,
		Timestamp: ev.Timestamp.UTC().Format(TimestampLayout),
	})
}

// DecodeTradeEvent parses a broadcast payload. A missing symbol or an
// unparsable timestamp is a decode error; callers drop such messages.
func DecodeTradeEvent(b []byte) (TradeEvent, error) {
	var wire tradeEventWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return TradeEvent{}, fmt.Errorf("decode trade event: %w", err)
	}
	if wire.Symbol == "" {
		return TradeEvent{}, fmt.Errorf("decode trade event: missing symbol")
	}
	ts, err := ParseTimestamp(wire.Timestamp)
	if err != nil {
		return TradeEvent{}, fmt.Errorf("decode trade event: %w", err)
	}
	return TradeEvent{Symbol: wire.Symbol, Price: wire.Price, Timestamp: ts}, nil
}

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseTimestamp accepts the canonical layout plus the common ISO-8601
// variants producers have been seen to emit, normalized to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}

// EventKey derives a deterministic dedup key from the fields that identify
// a tick. Redelivered tasks hash to the same key, so unique indexes in the
// stores absorb duplicate writes.
func EventKey(ev TradeEvent) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%.8f", ev.Symbol, ev.Timestamp.UTC().Format(TimestampLayout), ev.Price)
	return fmt.Sprintf("%016x", h.Sum64())
}

// TradeDocument is the shape persisted to the document store and returned
// by trade queries.
type TradeDocument struct {
	Id        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	EventKey  string             `bson:"event_key" json:"-"`
	Symbol    string             `bson:"symbol" json:"symbol"`
	Price     float64            `bson:"price" json:"price"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Summary is an LLM-generated digest of recent trading activity for a
// symbol, stored alongside its embedding vector.
type Summary struct {
	Id        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Symbol    string             `bson:"symbol" json:"symbol"`
	Summary   string             `bson:"summary" json:"summary"`
	Embedding []float64          `bson:"embedding" json:"embedding,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
