package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var (
	db   *sql.DB
	once sync.Once
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (cfg *Config) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.DBName, cfg.SSLMode,
	)

	if cfg.Password != "" {
		connStr += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return connStr
}

func Initalize(cfg *Config) error {
	var initError error

	once.Do(func() {
		var err error
		db, err = sql.Open("postgres", cfg.ConnectionString())
		if err != nil {
			initError = fmt.Errorf("failed to open database: %w", err)
			return
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			initError = fmt.Errorf("failed to ping database: %w", err)
			return
		}

		if err := runMigrations(); err != nil {
			initError = fmt.Errorf("failed to run migrations: %w", err)
			return
		}

		logrus.Info("database connection established")
	})

	return initError
}

func runMigrations() error {
	migrations := []string{
		`
		CREATE TABLE IF NOT EXISTS guild_music_settings (
			guild_id TEXT PRIMARY KEY,
			default_volume INTEGER NOT NULL DEFAULT 30,
			autoplay_mode TEXT NOT NULL DEFAULT 'partial',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("failed to execute migration: %w\nQuery: %s", err, m)
		}
	}
	logrus.Info("database migrations completed")
	return nil
}

func GetDB() *sql.DB {
	return db
}

func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}
