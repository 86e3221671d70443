package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/cmd/worker/internal/worker"
	"github.com/amitgarg31/tradesense-ai/pkg/bridge"
	"github.com/amitgarg31/tradesense-ai/pkg/config"
	"github.com/amitgarg31/tradesense-ai/pkg/llm"
	"github.com/amitgarg31/tradesense-ai/pkg/queue"
	"github.com/amitgarg31/tradesense-ai/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// The broker may still be coming up when the worker starts
	for attempt := 1; ; attempt++ {
		if err = queue.EnsureTopic(cfg.Kafka); err == nil {
			break
		}
		if attempt >= 10 {
			logger.Fatal("failed to ensure task topic", zap.Error(err))
		}
		logger.Warn("task topic not ready, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(2 * time.Second)
	}

	relational, err := storage.NewPostgresStore(cfg.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	mongoClient, err := storage.ConnectMongo(cfg.Mongo.URI)
	if err != nil {
		logger.Fatal("failed to connect to mongo", zap.Error(err))
	}
	documents := storage.NewMongoStore(mongoClient, cfg.Mongo.Database)

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := documents.EnsureIndexes(indexCtx); err != nil {
		indexCancel()
		logger.Fatal("failed to ensure mongo indexes", zap.Error(err))
	}
	indexCancel()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	publisher := bridge.NewPublisher(redisClient, cfg.Redis.Channel)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Kafka.Brokers,
		Topic:             cfg.Kafka.Topic,
		GroupID:           cfg.Kafka.GroupID,
		MinBytes:          200,
		MaxBytes:          10e6,
		MaxWait:           time.Second,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    10 * time.Second,
	})

	w := worker.New(reader, relational, documents, publisher,
		llm.NewClient(cfg.LLM), logger)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker")
		cancel()
	}()

	logger.Info("worker consuming",
		zap.String("topic", cfg.Kafka.Topic), zap.String("group", cfg.Kafka.GroupID))
	if err := w.Run(ctx); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
	}

	if err := reader.Close(); err != nil {
		logger.Error("failed to close reader", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		logger.Error("failed to close redis client", zap.Error(err))
	}
	if err := relational.Close(); err != nil {
		logger.Error("failed to close postgres", zap.Error(err))
	}
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if err := mongoClient.Disconnect(closeCtx); err != nil {
		logger.Error("failed to disconnect mongo", zap.Error(err))
	}

	logger.Info("worker stopped")
}
