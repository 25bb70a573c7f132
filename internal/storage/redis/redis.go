package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/config"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Key prefixes. Every key this backend writes starts with "gametrack:".
const (
	sessionKeyPrefix   = "gametrack:session:"
	sessionStartIndex  = "gametrack:sessions:by_start"
	activityKeyPrefix  = "gametrack:activity:"
	activityTimeIndex  = "gametrack:activities:by_ts"
	rolloverKeyPrefix  = "gametrack:rollover:"
	rolloverDatesIndex = "gametrack:rollover:dates"
	settingsKey        = "gametrack:settings"
)

// Store implements the storage.Store interface using Redis
type Store struct {
	client     *redis.Client
	sessions   *sessionStore
	activities *activityStore
	rollover   *rolloverStore
	settings   *settingsStore
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// Host may already carry the port (tests pass "host:port").
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		client:     client,
		sessions:   &sessionStore{client: client},
		activities: &activityStore{client: client},
		rollover:   &rolloverStore{client: client},
		settings:   &settingsStore{client: client},
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Sessions returns the SessionStore implementation
func (s *Store) Sessions() storage.SessionStore {
	return s.sessions
}

// Activities returns the ActivityStore implementation
func (s *Store) Activities() storage.ActivityStore {
	return s.activities
}

// Rollover returns the RolloverStore implementation
func (s *Store) Rollover() storage.RolloverStore {
	return s.rollover
}

// Settings returns the SettingsStore implementation
func (s *Store) Settings() storage.SettingsStore {
	return s.settings
}
