package cache

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Cache is the cross-unit reference and artifact store. One Cache is
// shared by every unit a single compiler invocation builds.
type Cache struct {
	db *gorm.DB
}

// Connect opens (creating if necessary) the cache database at dsn and
// migrates its schema. dsn may be a local file path or a libsql/Turso
// URL (scheme "libsql://" or "https://"), in which case
// NML_LIBSQL_AUTH_TOKEN supplies the auth token, mirroring how a local
// SQLite file and a remote Turso database are both just a gorm
// dialector away in this codebase's existing connection layer.
func Connect(dsn string, debug bool) (*Cache, error) {
	if !isURL(dsn) {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("cache: create directory: %w", err)
			}
		}
	}

	config := &gorm.Config{}
	if debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		dialector gorm.Dialector
		conn      *sql.DB
	)
	if isURL(dsn) {
		var (
			connector driver.Connector
			err       error
		)
		if token := os.Getenv("NML_LIBSQL_AUTH_TOKEN"); token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, fmt.Errorf("cache: libsql connector: %w", err)
		}
		conn = sql.OpenDB(connector)
		dialector = sqlite.New(sqlite.Config{
			DriverName: "libsql",
			Conn:       conn,
			DSN:        dsn,
		})
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("cache: connect: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
		sqlDB.Exec("PRAGMA busy_timeout = 5000")
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("cache: migrate: %w", err)
	}

	return &Cache{db: db}, nil
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "http://") ||
		strings.HasPrefix(dsn, "https://") ||
		strings.HasPrefix(dsn, "libsql://")
}

// Migrate creates or updates every table this package owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ReferenceableUnit{},
		&ReferenceRow{},
		&CachedTex{},
		&CachedGraphviz{},
		&CachedCode{},
	)
}

// withRetry retries fn while it fails with SQLite's "database is
// locked" error, up to 5 times with a 500ms backoff, mirroring this
// codebase's existing exec-retry helpers for the same failure mode on
// the raw database/sql layer this package's GORM writes ultimately sit
// on top of.
func withRetry(fn func() error) error {
	const maxRetries = 5
	var err error
	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("cache: database is locked after %d retries: %w", maxRetries, err)
}

// Close releases the underlying connection.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// QuickCheck runs SQLite's integrity self-check, surfacing corruption
// before a build silently trusts a bad cache.
func (c *Cache) QuickCheck() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	row := sqlDB.QueryRow("PRAGMA quick_check;")
	var result string
	if err := row.Scan(&result); err != nil {
		return fmt.Errorf("cache: quick_check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("cache: quick_check failed: %s", result)
	}
	return nil
}
