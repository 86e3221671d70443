package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/cmd/api/internal/gateway"
	"github.com/amitgarg31/tradesense-ai/cmd/api/internal/handler"
	"github.com/amitgarg31/tradesense-ai/cmd/api/internal/hub"
	"github.com/amitgarg31/tradesense-ai/pkg/bridge"
	"github.com/amitgarg31/tradesense-ai/pkg/config"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, err := storage.ConnectMongo(cfg.Mongo.URI)
	if err != nil {
		logger.Fatal("failed to connect to mongo", zap.Error(err))
	}
	docStore := storage.NewMongoStore(mongoClient, cfg.Mongo.Database)

	producer := queue.NewProducer(cfg.Kafka, logger)

	wsHub := hub.NewHub(logger)

	// The bridge feeds every broadcast; if Redis drops, it keeps retrying
	// in the background while HTTP stays up.
	sub := bridge.NewSubscriber(bridge.NewRedisDialer(cfg.Redis), wsHub.Broadcast, logger)
	go sub.Run(ctx)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.Error())

	hd := handler.NewHandler(producer, docStore, logger)
	hd.Register(router)

	router.GET("/ws/trades", func(c *gin.Context) {
		conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
		if err != nil {
			logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}
		client := gateway.NewClient(conn, wsHub, logger)
		wsHub.Register(client)
		client.Start()
	})

	srv := &http.Server{
		Addr:    cfg.App.Port,
		Handler: router,
	}

	go func() {
		logger.Info("api listening", zap.String("addr", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down api")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	if err := producer.Close(); err != nil {
		logger.Error("failed to close producer", zap.Error(err))
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Error("failed to disconnect mongo", zap.Error(err))
	}

	logger.Info("api stopped")
}
