package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

const (
	tradesCollection    = "trades"
	summariesCollection = "llm_summaries"
)

// ConnectMongo opens and pings the shared client for the process.
func ConnectMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// MongoStore owns the trades and summaries collections.
type MongoStore struct {
	trades    *mongo.Collection
	summaries *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		trades:    db.Collection(tradesCollection),
		summaries: db.Collection(summariesCollection),
	}
}

// EnsureIndexes creates the unique event-key index used to absorb duplicate
// writes from redelivered tasks. Safe to call on every startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.trades.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "symbol", Value: 1}, {Key: "timestamp", Value: -1}},
		},
	})
	return err
}

func (s *MongoStore) InsertTrade(ctx context.Context, doc models.TradeDocument) error {
	_, err := s.trades.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		// Redelivered task; the record is already there
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert trade %s: %w", doc.Symbol, err)
	}
	return nil
}

// RecentTrades returns up to limit trades for a symbol, newest first.
func (s *MongoStore) RecentTrades(ctx context.Context, symbol string, limit int64) ([]models.TradeDocument, error) {
	cursor, err := s.trades.Find(ctx,
		bson.M{"symbol": symbol},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("find trades %s: %w", symbol, err)
	}
	defer cursor.Close(ctx)

	var trades []models.TradeDocument
	if err := cursor.All(ctx, &trades); err != nil {
		return nil, fmt.Errorf("decode trades %s: %w", symbol, err)
	}
	return trades, nil
}

func (s *MongoStore) InsertSummary(ctx context.Context, summary models.Summary) error {
	if _, err := s.summaries.InsertOne(ctx, summary); err != nil {
		return fmt.Errorf("insert summary %s: %w", summary.Symbol, err)
	}
	return nil
}

// LatestSummary returns the newest summary, optionally scoped to one symbol.
// A nil result with nil error means no summary exists yet.
func (s *MongoStore) LatestSummary(ctx context.Context, symbol string) (*models.Summary, error) {
	filter := bson.M{}
	if symbol != "" {
		filter["symbol"] = symbol
	}

	var summary models.Summary
	err := s.summaries.FindOne(ctx, filter,
		options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})).
		Decode(&summary)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest summary: %w", err)
	}
	return &summary, nil
}
