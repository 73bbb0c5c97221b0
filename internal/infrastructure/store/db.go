package store

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/skinlens/backend/internal/pkg/logger"
)

// Config selects the database backing knowledge tables and history
type Config struct {
	Driver      string // "sqlite" or "postgres"
	DSN         string
	AutoMigrate bool
	LogQueries  bool
}

// zapWriter routes gorm's slow-query and error output through the app logger
type zapWriter struct {
	log *logger.Logger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.SugaredLogger.Warnf(format, args...)
}

// Open connects to the configured database and migrates the schema when asked
func Open(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	if log == nil {
		log = logger.NewNop()
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file::memory:"
		}
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := gormLogger.Warn
	if cfg.LogQueries {
		level = gormLogger.Info
	}
	gormLog := gormLogger.New(
		zapWriter{log: log.With("component", "gorm")},
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialector.Name() == "sqlite" {
		// sqlite allows a single writer; an in-memory database also lives
		// only as long as its connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate creates or updates every table the service uses
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
