package simulator

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

// Simulator feeds the pipeline with synthetic ticks. Each symbol walks
// randomly around its base price, drifting at most five units per tick.
type Simulator struct {
	producer Producer
	prices   map[string]float64
	interval time.Duration
	rand     Rand
	clock    Clock
	logger   *zap.Logger
}

func New(producer Producer, basePrices map[string]float64, interval time.Duration,
	rand Rand, clock Clock, logger *zap.Logger) *Simulator {
	prices := make(map[string]float64, len(basePrices))
	for symbol, price := range basePrices {
		prices[symbol] = price
	}
	return &Simulator{
		producer: producer,
		prices:   prices,
		interval: interval,
		rand:     rand,
		clock:    clock,
		logger:   logger,
	}
}

// Run emits one tick per symbol per interval until the context is canceled.
func (s *Simulator) Run(ctx context.Context) {
	symbols := make([]string, 0, len(s.prices))
	for symbol := range s.prices {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for {
		for _, symbol := range symbols {
			s.prices[symbol] += s.rand.Float64()*10 - 5
			ev := models.TradeEvent{
				Symbol:    symbol,
				Price:     s.prices[symbol],
				Timestamp: s.clock.Now().UTC(),
			}
			if _, err := s.producer.EnqueueTrade(ctx, ev); err != nil {
				s.logger.Error("failed to enqueue tick",
					zap.String("symbol", symbol), zap.Error(err))
				continue
			}
			s.logger.Debug("tick emitted",
				zap.String("symbol", symbol), zap.Float64("price", ev.Price))
		}
		if !s.clock.Sleep(ctx, s.interval) {
			return
		}
	}
}
