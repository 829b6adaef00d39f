package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taxi-tariff/internal/config"
	"taxi-tariff/internal/logger"

	_ "github.com/lib/pq"
)

// DB представляет подключение к PostgreSQL
type DB struct {
	*sql.DB
}

// schema создаёт таблицу базовых тарифов таксопарков. Столбцы ставок допускают NULL:
// отсутствующее значение заменяется тарифом по умолчанию при чтении.
const schema = `
CREATE TABLE IF NOT EXISTS base_tariffs (
	tenant_id   TEXT PRIMARY KEY,
	start_fee   DOUBLE PRECISION,
	km_0_10     DOUBLE PRECISION,
	km_over_10  DOUBLE PRECISION,
	per_minute  DOUBLE PRECISION,
	version     INTEGER NOT NULL DEFAULT 1,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Connect создает подключение к базе данных
func Connect(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Successfully connected to database")

	return &DB{DB: sqlDB}, nil
}

// Migrate создает схему, если её ещё нет
func (db *DB) Migrate(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return errors.New("database is not initialized")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close закрывает подключение к базе данных
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// Health проверяет состояние подключения к базе данных
func (db *DB) Health() error {
	if db == nil || db.DB == nil {
		return errors.New("database is not initialized")
	}
	return db.Ping()
}
