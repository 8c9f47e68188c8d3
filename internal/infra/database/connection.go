// internal/infra/database/connection.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// Supported database/sql driver names.
const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"
)

// DB は *sql.DB と使用中のドライバ名を保持します。
type DB struct {
	Client *sql.DB
	Driver string
}

// NewConnection は PostgreSQL の接続プールを初期化します。
// driver は "pgx" (デフォルト) または "postgres" (lib/pq)。
func NewConnection(ctx context.Context, driver, dsn string) (*DB, error) {
	d := strings.ToLower(strings.TrimSpace(driver))
	switch d {
	case "", DriverPgx:
		d = DriverPgx
	case DriverPq, "pq":
		d = DriverPq
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database: dsn is empty")
	}

	db, err := sql.Open(d, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	// Connection pool tuning
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	log.Printf("[DB] Connected to PostgreSQL driver=%s", d)
	return &DB{Client: db, Driver: d}, nil
}

func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
