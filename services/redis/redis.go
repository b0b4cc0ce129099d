package redis

import (
	"context"
	"fmt"
	"log"

	"forestfight/services/security"

	"github.com/redis/go-redis/v9"
)

// RedisClient handles Redis operations. It owns the vault used to seal
// sensitive room fields at rest.
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
	vault  *security.Vault
}

// NewRedisClient creates a new Redis client instance. Addr may be a
// plain host:port or a full redis:// URL for remote deployments.
func NewRedisClient(addr string, db int, password string, vault *security.Vault) *RedisClient {
	var client *redis.Client
	if len(addr) > 8 && addr[:8] == "redis://" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     addr,
			DB:       db,
			Password: password,
		})
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
		vault:  vault,
	}
}

// CleanupKeys removes the specified keys from Redis
func (rc *RedisClient) CleanupKeys(keys []string) error {
	for _, key := range keys {
		if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to cleanup Redis key %s: %v", key, err)
		}
	}
	return nil
}
