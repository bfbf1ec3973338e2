package qrcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/domain/session"
)

const keyPrefix = "whatsapp:qr:"

// Redis shares QR payloads across replicas through Redis.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedis connects to redisURL, which may list several comma separated
// addresses for cluster deployments.
func NewRedis(redisURL string, ttl time.Duration, log zerolog.Logger) (*Redis, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL must be provided")
	}
	logger := log.With().Str("component", "qr-cache").Logger()

	opts, err := buildUniversalOptions(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if len(opts.Addrs) > 1 && opts.DB != 0 {
		logger.Warn().Msg("ignoring non-zero DB when using Redis Cluster configuration")
		opts.DB = 0
	}

	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	logger.Info().Strs("addrs", opts.Addrs).Msg("connected to redis qr cache")
	return &Redis{client: client, ttl: ttl, log: logger}, nil
}

func buildUniversalOptions(raw string) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "://") {
			opts.Addrs = append(opts.Addrs, part)
			continue
		}

		parsed, err := redis.ParseURL(part)
		if err != nil {
			return nil, err
		}
		opts.Addrs = append(opts.Addrs, parsed.Addr)
		if opts.Username == "" {
			opts.Username = parsed.Username
		}
		if opts.Password == "" {
			opts.Password = parsed.Password
		}
		if opts.DB == 0 {
			opts.DB = parsed.DB
		}
		if opts.TLSConfig == nil {
			opts.TLSConfig = parsed.TLSConfig
		}
		if opts.DialTimeout == 0 {
			opts.DialTimeout = parsed.DialTimeout
		}
		if opts.PoolSize == 0 {
			opts.PoolSize = parsed.PoolSize
		}
	}

	if len(opts.Addrs) == 0 {
		return nil, fmt.Errorf("no redis addresses provided")
	}
	return opts, nil
}

func key(id session.Identifier) string {
	return keyPrefix + id.String()
}

func (r *Redis) Set(ctx context.Context, id session.Identifier, qr string) error {
	if err := r.client.Set(ctx, key(id), qr, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache qr for %s: %w", id, err)
	}
	return nil
}

// Get treats lookup failures as misses.
func (r *Redis) Get(ctx context.Context, id session.Identifier) (string, bool) {
	val, err := r.client.Get(ctx, key(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("phone_number", id.String()).Msg("qr cache lookup failed")
		}
		return "", false
	}
	return val, true
}

func (r *Redis) Delete(ctx context.Context, id session.Identifier) error {
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("evict qr for %s: %w", id, err)
	}
	return nil
}

// Health pings Redis.
func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
