package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	models "forestfight/models/postgres"
	"forestfight/services/abilities"

	_ "github.com/lib/pq"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func postgresDSN() string {
	user := os.Getenv("POSTGRES_USER")
	password := os.Getenv("POSTGRES_PASSWORD")
	host := os.Getenv("POSTGRES_HOST")
	port := os.Getenv("POSTGRES_PORT")
	database := os.Getenv("POSTGRES_DATABASE")

	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		user, password, host, port, database)
}

// ConnectGORM returns a GORM DB instance connected to PostgreSQL. The
// underlying lib/pq connection is shared with the match-result sync,
// which reaches it through db.DB().
func ConnectGORM() (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", postgresDSN())
	if err != nil {
		log.Printf("Error connecting to PostgreSQL: %v", err)
		return nil, err
	}

	gormConfig := &gorm.Config{}
	if os.Getenv("VERBOSE_POSTGRES") == "true" {
		gormConfig.Logger = logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold: time.Second,
				LogLevel:      logger.Info,
				Colorful:      true,
			},
		)
	}

	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		log.Printf("Error connecting to PostgreSQL with GORM: %v", err)
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		log.Printf("Error pinging PostgreSQL: %v", err)
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL with GORM")
	return db, nil
}

// MigrateDatabase migrates the GORM models and seeds the ability
// catalog the game depends on.
func MigrateDatabase(db *gorm.DB) error {
	err := db.AutoMigrate(
		models.User{},
		models.Character{},
		models.Ability{},
		models.MatchResult{})
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}

	if err := abilities.Seed(db); err != nil {
		return fmt.Errorf("ability seeding failed: %w", err)
	}

	log.Println("PostgreSQL database migrated successfully")
	return nil
}
