package core

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Database wraps sql.DB with additional functionality
type Database struct {
	*sql.DB
	driver string
	logger *Logger
}

// NewDatabaseWithDriver creates a database wrapper for the named driver
func NewDatabaseWithDriver(db *sql.DB, driver string, logger *Logger) *Database {
	return &Database{
		DB:     db,
		driver: driver,
		logger: logger,
	}
}

// OpenDatabase opens and pings a database using the configured driver
func OpenDatabase(cfg DatabaseConfig, logger *Logger) (*Database, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; a shared connection also keeps
	// in-memory databases visible to every caller.
	if cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	database := NewDatabaseWithDriver(db, cfg.Driver, logger)
	if err := database.PingWithTimeout(5 * time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established", "driver", cfg.Driver)
	return database, nil
}

// Driver returns the driver name the database was opened with
func (db *Database) Driver() string {
	return db.driver
}

// Rebind rewrites ? placeholders into the driver's bind style
func (db *Database) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Transaction executes a function within a database transaction
func (db *Database) Transaction(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			// A panic occurred, rollback and re-panic
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return err
}

// PingWithTimeout pings the database with a timeout
func (db *Database) PingWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return db.PingContext(ctx)
}

// ExecWithTimeout executes a command with a timeout
func (db *Database) ExecWithTimeout(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return db.ExecContext(queryCtx, db.Rebind(query), args...)
}

// Close closes the database connection
func (db *Database) Close() error {
	db.logger.Info("Closing database connection")
	return db.DB.Close()
}

// LogStats logs database statistics
func (db *Database) LogStats() {
	stats := db.Stats()
	db.logger.Info("Database stats",
		"max_open_connections", stats.MaxOpenConnections,
		"open_connections", stats.OpenConnections,
		"in_use", stats.InUse,
		"idle", stats.Idle,
		"wait_count", stats.WaitCount,
		"wait_duration", stats.WaitDuration,
	)
}
