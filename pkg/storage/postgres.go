package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amitgarg31/tradesense-ai/pkg/config"
	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

// Trade is the relational record of one processed tick.
type Trade struct {
	ID        uint   `gorm:"primaryKey"`
	EventKey  string `gorm:"size:32;uniqueIndex"`
	Symbol    string `gorm:"size:16;index"`
	Price     float64
	Timestamp time.Time
}

// PostgresStore wraps the relational connection pool. One instance is
// constructed at process startup and shared.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(cfg config.PostgresConfig) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn(cfg)), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&Trade{}); err != nil {
		return nil, fmt.Errorf("migrate trades: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// InsertTrade writes one tick under its normalized event timestamp, the
// same instant the document store records. A redelivered task carries the
// same event key and hits the unique index; the first write wins and the
// duplicate is a no-op success.
func (s *PostgresStore) InsertTrade(ctx context.Context, key string, ev models.TradeEvent) error {
	row := Trade{
		EventKey:  key,
		Symbol:    ev.Symbol,
		Price:     ev.Price,
		Timestamp: ev.Timestamp,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_key"}},
			DoNothing: true,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("insert trade %s: %w", ev.Symbol, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dsn(cfg config.PostgresConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	q := url.Values{}
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
