package main

import (
	"log"
	"os"

	"forestfight/config"
	_ "forestfight/config/swagger"
	"forestfight/middleware"
	"forestfight/routes"
	"forestfight/services/abilities"
	"forestfight/services/match"
	"forestfight/services/redis"
	"forestfight/services/security"
	"forestfight/services/socket_io"
	socketio_types "forestfight/services/socket_io/types"
	"forestfight/services/timers"
	"forestfight/sync"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// @title Forest Fight API
// @version 1.0
// @description Gin-Gonic server for the "Forest Fight" multiplayer combat game
// @host localhost:8080
// @BasePath /
func main() {
	godotenv.Load()
	log.Println("Setting up server...")

	if os.Getenv("PROD") == "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}
	log.Println("GORM Connected")

	// Only migrate in development or during deployment
	if os.Getenv("MIGRATE_POSTGRES") == "true" {
		log.Println("Migrating PostgreSQL database...")
		if err := config.MigrateDatabase(gormDB); err != nil {
			log.Printf("Warning: Database migration failed: %v", err)
			// Continue execution even if migration fails
		} else {
			log.Println("Database migrated successfully")
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := config.Connect_redis()
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	log.Println("Connection to Redis successful")
	defer redis.CloseRedis(redisClient)

	privateKey, publicKey, err := config.LoadServerKeys()
	if err != nil {
		log.Fatalf("Error loading server RSA keys: %v", err)
	}
	sec := security.NewService(privateKey, publicKey,
		security.DefaultSymmetricKey, security.DefaultSymmetricIV, gormDB)

	// The broadcaster needs the socket server struct before Start
	// fills it in; it only dereferences at emit time.
	sioServer := &socketio_types.SocketServer{}
	registry := match.NewRegistry()
	broadcaster := socket_io.NewRoomBroadcaster(sioServer, registry, sec)
	results := sync.NewSyncManager(sqlDB)

	engineCfg := match.DefaultConfig()
	if os.Getenv("REQUIRE_BOTH_GROUPS") == "false" {
		engineCfg.RequireBothGroups = false
	}
	if os.Getenv("TURN_AUTO_SKIP") == "true" {
		engineCfg.AutoSkip = true
	}

	engine := match.NewEngine(redisClient, abilities.NewCatalog(gormDB),
		registry, timers.NewService(), broadcaster, results, engineCfg)

	r := gin.Default()

	middleware.SetUpMiddleware(r)

	routes.SetupRoutes(r, gormDB, engine, sec)

	(*socket_io.MySocketServer)(sioServer).Start(r, gormDB, engine, sec)

	// Configure port
	port := os.Getenv("PORT")
	if port == "" {
		if os.Getenv("USE_HTTPS") == "true" {
			port = "443"
		} else {
			port = "8080"
		}
	}

	if os.Getenv("USE_HTTPS") == "true" {
		certFile := os.Getenv("CERT_FILE")
		keyFile := os.Getenv("KEY_FILE")
		if certFile == "" || keyFile == "" {
			log.Fatal("USE_HTTPS requires CERT_FILE and KEY_FILE")
		}

		if err := r.RunTLS(":"+port, certFile, keyFile); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	} else {
		if err := r.Run(":" + port); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}
}
