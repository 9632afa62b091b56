package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"sourcing-backend/internal/shared/telemetry"
)

const defaultPingTimeout = 5 * time.Second

// Options sizes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

var openDB = sql.Open

// DefaultServerOptions is the pool used by the API. Session rows are small and touched once
// per request.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 2 * time.Minute,
		PingTimeout:     defaultPingTimeout,
	}
}

// DefaultMigrateOptions is a single-connection pool for cmd/migrate.
func DefaultMigrateOptions() Options {
	opts := DefaultServerOptions()
	opts.MaxOpenConns = 1
	opts.MaxIdleConns = 1
	return opts
}

// OptionsFromEnv applies DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS, DB_CONN_MAX_LIFETIME,
// DB_CONN_MAX_IDLE_TIME and DB_PING_TIMEOUT on top of defaults. Invalid values are logged
// and ignored.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	ints := map[string]*int{
		"DB_MAX_OPEN_CONNS": &opts.MaxOpenConns,
		"DB_MAX_IDLE_CONNS": &opts.MaxIdleConns,
	}
	for key, dst := range ints {
		raw, ok := lookup(key)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			warnInvalid(key, raw)
			continue
		}
		*dst = v
	}
	durations := map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME":  &opts.ConnMaxLifetime,
		"DB_CONN_MAX_IDLE_TIME": &opts.ConnMaxIdleTime,
		"DB_PING_TIMEOUT":       &opts.PingTimeout,
	}
	for key, dst := range durations {
		raw, ok := lookup(key)
		if !ok {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil || v <= 0 {
			warnInvalid(key, raw)
			continue
		}
		*dst = v
	}
	return opts
}

// Connect opens the pgx-backed pool and pings it within opts.PingTimeout.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}
	conn, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	opts.apply(conn)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	telemetry.Info("db.connected", map[string]any{
		"max_open":      conn.Stats().MaxOpenConnections,
		"max_idle":      opts.MaxIdleConns,
		"ping_timeout":  timeout.String(),
		"conn_lifetime": opts.ConnMaxLifetime.String(),
	})
	return conn, nil
}

func (o Options) apply(conn *sql.DB) {
	defaults := DefaultServerOptions()
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = defaults.MaxOpenConns
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = defaults.MaxIdleConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	conn.SetMaxOpenConns(o.MaxOpenConns)
	conn.SetMaxIdleConns(min(o.MaxIdleConns, o.MaxOpenConns))
	conn.SetConnMaxLifetime(o.ConnMaxLifetime)
	if o.ConnMaxIdleTime > 0 {
		conn.SetConnMaxIdleTime(o.ConnMaxIdleTime)
	}
}

func lookup(key string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	return raw, raw != ""
}

func warnInvalid(key, raw string) {
	telemetry.Warn("db.env_invalid", map[string]any{"key": key, "value": raw})
}
