package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"smartreminder/internal/models"
	"smartreminder/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Settings holds what is needed to reach Postgres
type Settings struct {
	DSN        string
	MaxRetries int
	RetryDelay time.Duration
	LogSQL     bool
}

// Open connects to the database, configures the pool and migrates the schema
func Open(settings Settings) (*gorm.DB, error) {
	if settings.DSN == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}
	if settings.MaxRetries <= 0 {
		settings.MaxRetries = 5
	}
	if settings.RetryDelay <= 0 {
		settings.RetryDelay = time.Second * 5
	}

	logLevel := logger.Warn
	if settings.LogSQL {
		logLevel = logger.Info
	}

	baseLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags|log.Lshortfile),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	// The scheduler polls every interval, keep that out of the SQL log
	customLogger := utils.NewCustomGormLogger(baseLogger, DuePollPattern)

	gormConfig := &gorm.Config{
		Logger: customLogger,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		PrepareStmt: true,
		// Civil timestamps are stored UTC-labelled, keep GORM's autoTime in the same form
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error
	for i := 0; i < settings.MaxRetries; i++ {
		db, err = gorm.Open(postgres.Open(settings.DSN), gormConfig)
		if err == nil {
			break
		}
		log.Printf("Database connection attempt %d failed: %v", i+1, err)
		if i < settings.MaxRetries-1 {
			log.Printf("Retrying in %v...", settings.RetryDelay)
			time.Sleep(settings.RetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", settings.MaxRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.Reminder{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Println("Database connection established and migrations completed")
	return db, nil
}

// BuildDSN assembles a key/value DSN from individual connection parameters.
// The session time zone is pinned to UTC so civil timestamps round-trip unchanged.
func BuildDSN(host, user, password, dbname, port, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC connect_timeout=10",
		host, user, password, dbname, port, sslMode)
}
