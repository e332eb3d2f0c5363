package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/viviztech/voterapp/internal/common"
)

// Dialect identifies the storage engine behind a Store.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Store wraps the relational backend. The DSN selects the engine: postgres://
// or postgresql:// URLs open a pgx pool, anything else is treated as a SQLite
// file path (including :memory:).
type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool // nil for sqlite
	dialect Dialect
	logger  *slog.Logger
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if isPostgresDSN(cfg.DSN) {
		return openPostgres(ctx, cfg, logger)
	}

	logger.Info("opening sqlite database", "path", cfg.DSN)
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		logger.Error("failed to open sqlite database", "error", err)
		return nil, common.NewAppError("DB_OPEN", cfg.DSN, fmt.Errorf("%w: %w", common.ErrDatabase, err))
	}
	// modernc sqlite is not safe for concurrent writers over one file
	db.SetMaxOpenConns(1)
	return &Store{db: db, dialect: SQLite, logger: logger}, nil
}

func openPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	logger.Info("connecting to postgres", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse postgres dsn", "error", err)
		return nil, common.NewAppError("DB_OPEN", "bad dsn", fmt.Errorf("%w: %w", common.ErrDatabase, err))
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "voterapp"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		return nil, common.NewAppError("DB_OPEN", "connect", fmt.Errorf("%w: %w", common.ErrDatabase, err))
	}

	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to postgres")
	return &Store{db: db, pool: pool, dialect: Postgres, logger: logger}, nil
}

// Close closes the database connections gracefully.
func (s *Store) Close() {
	s.logger.Info("closing database connections")
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database", "error", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// Dialect reports the active storage engine.
func (s *Store) Dialect() Dialect { return s.dialect }

// DB exposes the underlying handle for read-only reporting queries.
func (s *Store) DB() *sql.DB { return s.db }

// HealthCheck pings the backend to catch DSN issues early.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.db.PingContext(ctx)
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// rebind converts ?-style placeholders to $N for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
