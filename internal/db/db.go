package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/notepid/postboard/internal/config"
)

// Supported driver names, as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Pragmas applied to every SQLite connection. They go in the DSN rather than
// through Exec so that each pooled connection gets them.
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"busy_timeout(5000)",
}

// DB wraps a sqlx connection pool.
type DB struct {
	*sqlx.DB
	log zerolog.Logger
}

// Transactor runs fn inside a single unit of work.
type Transactor interface {
	WithTx(ctx context.Context, reason string, fn func(ctx context.Context) error) error
}

var _ Transactor = (*DB)(nil)

type txKey struct{}

// Open connects to the configured database, verifies the connection and
// applies pending migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*DB, error) {
	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	}

	sqlxDB, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlxDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlxDB.PingContext(pingCtx); err != nil {
		sqlxDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}

	db := &DB{DB: sqlxDB, log: log.With().Str("component", "db").Logger()}

	if err := db.migrate(); err != nil {
		sqlxDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// New wraps an existing sqlx handle without running migrations.
func New(sqlxDB *sqlx.DB, log zerolog.Logger) *DB {
	return &DB{DB: sqlxDB, log: log.With().Str("component", "db").Logger()}
}

// sqliteDSN turns a file path or modernc DSN into one carrying the pragmas
// and makes sure the parent directory exists. Pragmas already present in the
// query string are left as given.
func sqliteDSN(dsn string) (string, error) {
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("create data directory: %w", err)
		}
	}

	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(path)
	sep := "?"
	if query != "" {
		b.WriteString("?")
		b.WriteString(query)
		sep = "&"
	}
	for _, p := range sqlitePragmas {
		name, _, _ := strings.Cut(p, "(")
		if strings.Contains(query, "_pragma="+name+"(") {
			continue
		}
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String(), nil
}

// Ext returns the transaction bound to ctx by WithTx, or the pool itself.
func (db *DB) Ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db.DB
}

// WithTx runs fn in a transaction that is committed when fn returns nil and
// rolled back otherwise. Nested calls join the outer transaction.
func (db *DB) WithTx(ctx context.Context, reason string, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	log := db.log.With().Str("tx", reason).Logger()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction (%s): %w", reason, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("transaction rollback failed")
			return
		}
		log.Debug().Msg("transaction rolled back")
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction (%s): %w", reason, err)
	}
	committed = true

	return nil
}
