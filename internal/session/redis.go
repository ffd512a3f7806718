package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "matchkeys:session:"

// RedisConfig holds the connection settings for RedisStore.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore keeps sessions as JSON values with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects and pings Redis.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

func key(name string) string {
	return keyPrefix + name
}

func (r *RedisStore) Load(ctx context.Context, name string) (*Session, error) {
	data, err := r.client.Get(ctx, key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", name, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %q: %w", name, err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session %q: %w", s.Name, err)
	}

	if err := r.client.Set(ctx, key(s.Name), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %q: %w", s.Name, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, key(name)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %q: %w", name, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Open returns a RedisStore, or a MemoryStore when Redis is unreachable.
func Open(ctx context.Context, cfg RedisConfig) Store {
	store, err := NewRedisStore(ctx, cfg)
	if err != nil {
		log.Warn().
			Err(err).
			Str("host", cfg.Host).
			Msg("Redis unavailable, session will not outlive this process")
		return NewMemoryStore(cfg.TTL)
	}
	return store
}
