package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/state"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	shiftKeyPrefix    = "shift:"
	defaultSessionTTL = 24 * time.Hour
)

// RedisStorage implements the Storage interface using Redis for shift
// sessions and the filesystem for guidelines and passengers
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	content *Content
	ttl     time.Duration
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL may be a
// bare host:port or a redis:// URL.
func NewRedisStorage(redisURL, dataDir string, ttl time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opt := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opt = parsed
	}

	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	return &RedisStorage{
		client:  redis.NewClient(opt),
		logger:  logger,
		content: NewContent(dataDir, logger),
		ttl:     ttl,
	}, nil
}

// Client exposes the underlying connection for Pub/Sub.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Shift operations (Redis-backed)

func (r *RedisStorage) SaveShift(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("shift cannot be nil")
	}

	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal shift", "shift_id", id, "error", err)
		return fmt.Errorf("failed to marshal shift: %w", err)
	}

	if err := r.client.Set(ctx, shiftKeyPrefix+id.String(), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save shift", "shift_id", id, "error", err)
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadShift(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	data, err := r.client.Get(ctx, shiftKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Shift not found", "shift_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load shift", "shift_id", id, "error", err)
		return nil, fmt.Errorf("failed to load shift: %w", err)
	}

	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		r.logger.Error("Failed to unmarshal shift", "shift_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal shift: %w", err)
	}
	return &gs, nil
}

func (r *RedisStorage) DeleteShift(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, shiftKeyPrefix+id.String()).Err(); err != nil {
		r.logger.Error("Failed to delete shift", "shift_id", id, "error", err)
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return nil
}

// Content operations (filesystem-backed)

func (r *RedisStorage) ListGuidelines(ctx context.Context) ([]guideline.Guideline, error) {
	return r.content.Guidelines(ctx)
}

func (r *RedisStorage) ListPassengers(ctx context.Context) ([]passenger.Passenger, error) {
	return r.content.Passengers(ctx)
}
