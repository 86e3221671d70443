package config_test

import (
	"testing"

	"github.com/amitgarg31/tradesense-ai/pkg/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.App.Port != ":8000" {
		t.Errorf("Expected default port :8000, got %s", cfg.App.Port)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		t.Error("Expected at least one default Kafka broker")
	}
	if cfg.Kafka.Topic != "trade_tasks" {
		t.Errorf("Expected default topic trade_tasks, got %s", cfg.Kafka.Topic)
	}
	if cfg.Redis.Channel != "trade_events" {
		t.Errorf("Expected default channel trade_events, got %s", cfg.Redis.Channel)
	}
	if cfg.LLM.Model == "" {
		t.Error("Expected a default LLM model")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("KAFKA_TOPIC", "ticks")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Expected env override for redis addr, got %s", cfg.Redis.Addr)
	}
	if cfg.Kafka.Topic != "ticks" {
		t.Errorf("Expected env override for kafka topic, got %s", cfg.Kafka.Topic)
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := config.NewLogger(config.AppConfig{Env: "local"}, config.LoggerConfig{Level: "loud"})
	if err == nil {
		t.Error("Expected error for invalid log level")
	}
}
