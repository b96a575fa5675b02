package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Pool sizes the sql.DB connection pool.
type Pool struct {
	MaxIdle     int
	MaxOpen     int
	MaxLifetime time.Duration
}

var DefaultPool = Pool{MaxIdle: 10, MaxOpen: 100, MaxLifetime: time.Hour}

// zerologWriter routes gorm's slow-query and error lines into zerolog.
type zerologWriter struct {
	logger zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...interface{}) {
	w.logger.Warn().Msgf(format, args...)
}

// ConnectDB opens postgres at dsn with the DefaultPool.
func ConnectDB(dsn string, logger zerolog.Logger) (*gorm.DB, error) {
	return Connect(dsn, DefaultPool, logger)
}

func Connect(dsn string, pool Pool, logger zerolog.Logger) (*gorm.DB, error) {
	logger = logger.With().Str("component", "gorm").Logger()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: dsn,
		// Poolers in transaction mode (pgbouncer, Supabase) reject prepared statements.
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.New(zerologWriter{logger: logger}, gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdle)
	sqlDB.SetMaxOpenConns(pool.MaxOpen)
	sqlDB.SetConnMaxLifetime(pool.MaxLifetime)

	logger.Info().Int("max_open", pool.MaxOpen).Msg("Database connection established")
	return db, nil
}
