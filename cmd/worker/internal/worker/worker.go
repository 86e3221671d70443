package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
	"github.com/amitgarg31/tradesense-ai/pkg/queue"
)

// summaryTradeCount is how many of the newest trades feed one summary.
const summaryTradeCount = 20

const (
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 30 * time.Second
)

// Worker consumes tasks from the queue and executes them. Delivery is
// at-least-once: a message is committed only after its task succeeds, so
// every write path must tolerate redelivery.
type Worker struct {
	reader     KafkaReader
	relational RelationalStore
	documents  DocumentStore
	publisher  Publisher
	llm        LLMClient
	logger     *zap.Logger

	sleep func(ctx context.Context, d time.Duration) bool
}

func New(reader KafkaReader, relational RelationalStore, documents DocumentStore,
	publisher Publisher, llm LLMClient, logger *zap.Logger) *Worker {
	return &Worker{
		reader:     reader,
		relational: relational,
		documents:  documents,
		publisher:  publisher,
		llm:        llm,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// Run consumes tasks until the context is canceled or the reader closes.
// Commits are cumulative per partition: acknowledging a later offset also
// acknowledges every earlier one, so a failed task is retried in place with
// backoff rather than skipped. Only malformed messages are committed past,
// so they cannot wedge the partition.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("fetch task: %w", err)
		}

		delay := initialRetryDelay
		for {
			err := w.handle(ctx, msg.Value)
			if err == nil {
				break
			}
			w.logger.Error("task failed, retrying in place",
				zap.Int64("offset", msg.Offset),
				zap.Duration("retry_in", delay), zap.Error(err))
			if !w.sleep(ctx, delay) {
				return nil
			}
			delay = nextDelay(delay)
		}

		if err := w.reader.CommitMessages(ctx, msg); err != nil {
			w.logger.Error("failed to commit offset",
				zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (w *Worker) handle(ctx context.Context, value []byte) error {
	var env queue.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		w.logger.Warn("dropping malformed task envelope", zap.Error(err))
		return nil
	}

	switch env.Task {
	case queue.TaskProcessTrade:
		return w.processTrade(ctx, env)
	case queue.TaskGenerateSummary:
		return w.generateSummary(ctx, env)
	default:
		w.logger.Warn("dropping task of unknown type",
			zap.String("task", env.Task), zap.String("task_id", env.ID))
		return nil
	}
}

// processTrade normalizes the tick, writes it durably to both stores, then
// publishes it for live subscribers. The publish is best effort: once both
// writes land the task has succeeded, stream delivery or not.
func (w *Worker) processTrade(ctx context.Context, env queue.Envelope) error {
	var p queue.TradePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		w.logger.Warn("dropping trade task with malformed payload",
			zap.String("task_id", env.ID), zap.Error(err))
		return nil
	}

	ts, err := models.ParseTimestamp(p.Timestamp)
	if err != nil {
		// Degraded but not fatal; the tick is still worth keeping
		w.logger.Warn("unparsable trade timestamp, substituting current time",
			zap.String("task_id", env.ID), zap.String("timestamp", p.Timestamp))
		ts = time.Now().UTC()
	}

	ev := models.TradeEvent{Symbol: p.Symbol, Price: p.Price, Timestamp: ts}
	key := models.EventKey(ev)

	if err := w.relational.InsertTrade(ctx, key, ev); err != nil {
		return fmt.Errorf("relational write: %w", err)
	}
	if err := w.documents.InsertTrade(ctx, models.TradeDocument{
		EventKey:  key,
		Symbol:    ev.Symbol,
		Price:     ev.Price,
		Timestamp: ts,
	}); err != nil {
		return fmt.Errorf("document write: %w", err)
	}

	if err := w.publisher.Publish(ctx, ev); err != nil {
		w.logger.Error("broadcast publish failed",
			zap.String("symbol", ev.Symbol), zap.Error(err))
	}

	w.logger.Debug("trade processed",
		zap.String("symbol", ev.Symbol), zap.Float64("price", ev.Price))
	return nil
}

// generateSummary reads the newest trades for a symbol and persists an LLM
// digest with its embedding. LLM failures and empty results are logged and
// dropped rather than retried; the next trigger will try again with fresher
// data. Nothing is persisted unless both the summary and its vector exist.
func (w *Worker) generateSummary(ctx context.Context, env queue.Envelope) error {
	var p queue.SummaryPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		w.logger.Warn("dropping summary task with malformed payload",
			zap.String("task_id", env.ID), zap.Error(err))
		return nil
	}

	trades, err := w.documents.RecentTrades(ctx, p.Symbol, summaryTradeCount)
	if err != nil {
		return fmt.Errorf("read recent trades: %w", err)
	}
	if len(trades) == 0 {
		w.logger.Info("no trades to summarize", zap.String("symbol", p.Symbol))
		return nil
	}

	text, err := w.llm.Summarize(ctx, formatTrades(trades))
	if err != nil {
		w.logger.Warn("summary generation failed, dropping task",
			zap.String("symbol", p.Symbol), zap.Error(err))
		return nil
	}
	if text == "" {
		w.logger.Warn("llm returned empty summary", zap.String("symbol", p.Symbol))
		return nil
	}

	embedding, err := w.llm.Embed(ctx, text)
	if err != nil || len(embedding) == 0 {
		w.logger.Warn("embedding unavailable, dropping task",
			zap.String("symbol", p.Symbol), zap.Error(err))
		return nil
	}

	if err := w.documents.InsertSummary(ctx, models.Summary{
		Symbol:    p.Symbol,
		Summary:   text,
		Embedding: embedding,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("store summary %s: %w", p.Symbol, err)
	}

	w.logger.Info("summary generated",
		zap.String("symbol", p.Symbol), zap.Int("trades", len(trades)))
	return nil
}

func formatTrades(trades []models.TradeDocument) string {
	var b strings.Builder
	for _, t := range trades {
		fmt.Fprintf(&b, "%s traded at %.2f on %s\n",
			t.Symbol, t.Price, t.Timestamp.UTC().Format(models.TimestampLayout))
	}
	return b.String()
}
