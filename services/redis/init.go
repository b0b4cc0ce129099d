package redis

import (
	"fmt"
	"log"

	"forestfight/services/security"
)

// InitRedis initializes the Redis connection and basic configuration.
// Rooms are NOT flushed on startup: Redis is the authoritative room
// store and live matches must survive a server restart.
func InitRedis(addr string, db int, password string, vault *security.Vault) (*RedisClient, error) {
	rc := NewRedisClient(addr, db, password, vault)

	// Test connection
	if err := rc.client.Ping(rc.ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	log.Println("Successfully connected to Redis")
	return rc, nil
}

// CloseRedis gracefully closes the Redis connection
func CloseRedis(rc *RedisClient) error {
	if err := rc.client.Close(); err != nil {
		return fmt.Errorf("error closing Redis connection: %v", err)
	}
	return nil
}
