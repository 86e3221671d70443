package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/cmd/simulator/internal/simulator"
	"github.com/amitgarg31/tradesense-ai/pkg/config"
	"github.com/amitgarg31/tradesense-ai/pkg/queue"
)

// Base prices for symbols without a configured starting point.
const defaultBasePrice = 100.0

var basePrices = map[string]float64{
	"BTC-USD": 50000,
	"ETH-USD": 3000,
	"SOL-USD": 150,
}

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

	prices := make(map[string]float64, len(cfg.Simulator.Symbols))
	for _, symbol := range cfg.Simulator.Symbols {
		if base, ok := basePrices[symbol]; ok {
			prices[symbol] = base
		} else {
			prices[symbol] = defaultBasePrice
		}
	}

	producer := queue.NewProducer(cfg.Kafka, logger)

	sim := simulator.New(producer, prices,
		time.Duration(cfg.Simulator.IntervalMS)*time.Millisecond,
		rand.New(rand.NewSource(time.Now().UnixNano())),
		simulator.SystemClock(), logger)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down simulator")
		cancel()
	}()

	logger.Info("simulator running",
		zap.Strings("symbols", cfg.Simulator.Symbols),
		zap.Int("interval_ms", cfg.Simulator.IntervalMS))
	sim.Run(ctx)

	if err := producer.Close(); err != nil {
		logger.Error("failed to close producer", zap.Error(err))
	}

	logger.Info("simulator stopped")
}
