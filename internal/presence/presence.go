// FilePath: internal/presence/presence.go

// Package presence tracks device liveness in Redis. Every telemetry report
// refreshes a TTL key; a device whose key has expired is considered quiet
// regardless of its stored status.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/aquasense/hub/internal/config"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

type Service struct {
	client *redis.Client
	ttl    time.Duration
}

// NewService connects to Redis and verifies the connection.
func NewService(cfg config.RedisConfig) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	nuts.L.Infof("[Presence] Connected to Redis at %s:%d (db %d)", cfg.Host, cfg.Port, cfg.DB)
	return &Service{client: client, ttl: cfg.PresenceTTL}, nil
}

func key(deviceID string) string {
	return "presence:device:" + deviceID
}

// Touch marks the device as recently seen.
func (s *Service) Touch(ctx context.Context, deviceID string) error {
	return s.client.Set(ctx, key(deviceID), time.Now().UTC().Format(time.RFC3339), s.ttl).Err()
}

// Online reports whether the device has been seen within the TTL window.
func (s *Service) Online(ctx context.Context, deviceID string) (bool, error) {
	n, err := s.client.Exists(ctx, key(deviceID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OnlineBatch checks many devices in one round trip.
func (s *Service) OnlineBatch(ctx context.Context, deviceIDs []string) (map[string]bool, error) {
	if len(deviceIDs) == 0 {
		return map[string]bool{}, nil
	}

	keys := make([]string, len(deviceIDs))
	for i, id := range deviceIDs {
		keys[i] = key(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(deviceIDs))
	for i, id := range deviceIDs {
		out[id] = values[i] != nil
	}
	return out, nil
}

// Close releases the Redis connection.
func (s *Service) Close() error {
	return s.client.Close()
}
