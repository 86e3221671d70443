package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

const defaultQueryLimit = 5

// ProducerItf is the enqueue side of the task queue.
type ProducerItf interface {
	EnqueueTrade(ctx context.Context, ev models.TradeEvent) (string, error)
	EnqueueSummary(ctx context.Context, symbol string) (string, error)
}

// DocStoreItf serves the read boundaries.
type DocStoreItf interface {
	RecentTrades(ctx context.Context, symbol string, limit int64) ([]models.TradeDocument, error)
	LatestSummary(ctx context.Context, symbol string) (*models.Summary, error)
}

type Handler struct {
	producer ProducerItf
	store    DocStoreItf
	logger   *zap.Logger
}

func NewHandler(producer ProducerItf, store DocStoreItf, logger *zap.Logger) *Handler {
	return &Handler{producer: producer, store: store, logger: logger}
}

func (hd *Handler) Register(r gin.IRouter) {
	r.GET("/health", hd.Health)
	r.POST("/ingest", hd.Ingest)
	r.GET("/query", hd.QueryTrades)
	r.POST("/insights/trigger", hd.TriggerSummary)
	r.GET("/insights/latest", hd.LatestSummary)
}

func (hd *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ingest stamps the server-side timestamp and queues the tick. The caller
// gets the stamped payload back immediately and never sees the processing
// result; even an enqueue error only gets logged, because the async writer
// owns delivery from here.
func (hd *Handler) Ingest(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.Error(ErrNoSymbol)
		return
	}
	price, err := strconv.ParseFloat(c.Query("price"), 64)
	if err != nil {
		c.Error(ErrBadPrice)
		return
	}

	ev := models.TradeEvent{
		Symbol:    symbol,
		Price:     price,
		Timestamp: time.Now().UTC(),
	}

	if _, err := hd.producer.EnqueueTrade(c.Request.Context(), ev); err != nil {
		hd.logger.Error("failed to enqueue trade", zap.String("symbol", symbol), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "received",
		"data": gin.H{
			"symbol":    ev.Symbol,
			"price":     ev.Price,
			"timestamp": ev.Timestamp.Format(models.TimestampLayout),
		},
	})
}

// QueryTrades returns the most recent trades for a symbol, newest first.
func (hd *Handler) QueryTrades(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.Error(ErrNoSymbol)
		return
	}

	limit := int64(defaultQueryLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			c.Error(ErrBadLimit)
			return
		}
		limit = parsed
	}

	trades, err := hd.store.RecentTrades(c.Request.Context(), symbol, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":        symbol,
		"recent_trades": trades,
	})
}

// TriggerSummary queues summary generation and returns the task handle
// without waiting for completion.
func (hd *Handler) TriggerSummary(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.Error(ErrNoSymbol)
		return
	}

	taskID, err := hd.producer.EnqueueSummary(c.Request.Context(), symbol)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "triggered",
		"task_id": taskID,
		"symbol":  symbol,
	})
}

// LatestSummary returns the newest summary, optionally scoped to a symbol.
func (hd *Handler) LatestSummary(c *gin.Context) {
	summary, err := hd.store.LatestSummary(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		c.Error(err)
		return
	}
	if summary == nil {
		c.Error(ErrNoSummary)
		return
	}

	c.JSON(http.StatusOK, summary)
}
