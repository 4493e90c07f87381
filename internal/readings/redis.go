package readings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "iot:deployment:"

// RedisSource reads the latest sensor value per deployment from Redis.
// The ingestion pipeline writes one JSON payload per deployment under
// <prefix><deploymentID>:latest, refreshed on every sample.
type RedisSource struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

func NewRedisSource(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisSource {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisSource{client: client, keyPrefix: keyPrefix, logger: logger}
}

func (s *RedisSource) LatestValue(ctx context.Context, deploymentID string) (Reading, error) {
	key := s.keyPrefix + deploymentID + ":latest"
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return Reading{}, ErrNoReading
		}
		return Reading{}, fmt.Errorf("failed to get reading: %w", err)
	}
	var reading Reading
	if err := json.Unmarshal([]byte(val), &reading); err != nil {
		s.logger.Warn("malformed reading payload",
			zap.String("deployment_id", deploymentID),
			zap.String("key", key),
			zap.Error(err),
		)
		return Reading{}, fmt.Errorf("failed to unmarshal reading: %w", err)
	}
	return reading, nil
}
