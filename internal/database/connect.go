package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns int
	Logger       zerolog.Logger
}

// Open connects to PostgreSQL when the URL uses a postgres scheme and to an SQLite
// file otherwise. The returned dialect must be used for all schema work.
func Open(url string, opts Options) (*gorm.DB, Dialect, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, Dialect{}, fmt.Errorf("database url must not be empty")
	}

	dialect := DialectFor(url)
	cfg := &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(log.New(opts.Logger, "", 0), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch dialect.Name {
	case Postgres.Name:
		db, err = gorm.Open(postgres.Open(normalizePostgresURL(url)), cfg)
	default:
		db, err = gorm.Open(sqlite.Open(sqliteDSN(url)), cfg)
	}
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("failed to connect to %s: %w", dialect.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if dialect.Name == SQLite.Name {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY on concurrent transactions.
		sqlDB.SetMaxOpenConns(1)
	} else if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}

	return db, dialect, nil
}

func normalizePostgresURL(url string) string {
	if strings.HasPrefix(url, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(url, "postgres://")
	}
	return url
}

func sqliteDSN(path string) string {
	params := "_foreign_keys=1&_busy_timeout=5000"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}
