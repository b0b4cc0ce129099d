package config

import (
	"log"
	"os"
	"strconv"

	"forestfight/services/redis"
	"forestfight/services/security"
)

// Connect_redis connects to Redis and hands the store the vault it
// seals room fields with. REDIS_URL wins over the host/password/db
// triple.
func Connect_redis() (*redis.RedisClient, error) {
	vaultKey := os.Getenv("VAULT_KEY")
	if vaultKey == "" {
		vaultKey = security.DefaultSymmetricKey
	}
	vaultIV := os.Getenv("VAULT_IV")
	if vaultIV == "" {
		vaultIV = security.DefaultSymmetricIV
	}
	vault := security.NewVault(vaultKey, vaultIV)

	addr := os.Getenv("REDIS_URL")
	password := ""
	db := 0
	if addr == "" {
		addr = os.Getenv("REDIS_HOST")
		if addr == "" {
			addr = "localhost:6379"
		}
		password = os.Getenv("REDIS_PASSWORD")
		if raw := os.Getenv("REDIS_DB"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				log.Printf("Ignoring bad REDIS_DB %q: %v", raw, err)
			} else {
				db = parsed
			}
		}
	}

	redisClient, err := redis.InitRedis(addr, db, password, vault)
	if err != nil {
		log.Printf("Error connecting to Redis: %v", err)
		return nil, err
	}
	log.Println("Redis connection established")
	return redisClient, nil
}
