package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	client *redislib.Client
	once   sync.Once
)

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

const (
	pingAttempts   = 5
	pingTimeout    = 3 * time.Second
	initialBackoff = 200 * time.Millisecond
)

// Init connects once and verifies the connection with a few pings before
// giving up. Later calls return the client from the first attempt.
func Init(cfg Config) (*redislib.Client, error) {
	var initErr error

	once.Do(func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		client = redislib.NewClient(&redislib.Options{
			Addr:     addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		backoff := initialBackoff
		for attempt := 1; attempt <= pingAttempts; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			err := client.Ping(ctx).Err()
			cancel()

			if err == nil {
				initErr = nil
				logrus.WithField("addr", addr).Info("redis connection established")
				return
			}

			initErr = err
			logrus.Warnf("redis ping %d/%d failed: %v", attempt, pingAttempts, err)
			if attempt < pingAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}

		_ = client.Close()
		client = nil
	})

	if client == nil && initErr == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	return client, initErr
}

// Client returns the shared client, or nil when Init never succeeded.
func Client() *redislib.Client {
	return client
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}
