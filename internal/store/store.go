package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"bizcard/internal/config"
	"bizcard/internal/logging"
	"bizcard/internal/services"
)

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

var (
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
	// ErrDuplicate reports a row with the same name already exists.
	ErrDuplicate = errors.New("duplicate card name")
	// ErrNotFound reports a lookup that matched no rows.
	ErrNotFound = errors.New("card not found")
	// ErrInvalidColumn reports a selector or target outside the column whitelist.
	ErrInvalidColumn = errors.New("invalid column")
)

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages card persistence.
type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool
	dialect dialect
	target  string
	logger  *slog.Logger
}

// Open connects to the backend selected by cfg.Database and ensures the schema exists.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "config is nil", nil)
	}
	logger = logging.NewComponentLogger(logger, "store")
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.Database, logger)
	case config.DriverSQLite, "":
		return OpenSQLite(ctx, cfg.Database.SQLitePath, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", fmt.Sprintf("unsupported driver %q", cfg.Database.Driver), nil)
	}
}

// OpenSQLite opens or creates a SQLite card database at path.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure database directory: %w", err)
		}
	}

	query := url.Values{}
	query.Set("_txlock", "immediate")
	query.Add("_pragma", "journal_mode(WAL)")
	query.Add("_pragma", "foreign_keys(1)")
	query.Add("_pragma", "busy_timeout(5000)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &Store{db: db, dialect: sqliteDialect, target: path, logger: logger}
	if err := s.initSchema(ensureContext(ctx)); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("card store ready", logging.String("driver", "sqlite"), logging.String("path", path))
	return s, nil
}

func openPostgres(ctx context.Context, cfg config.Database, logger *slog.Logger) (*Store, error) {
	ctx = ensureContext(ctx)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "store", "parse dsn", "invalid postgres dsn", err)
	}
	pc.MaxConns = int32(cfg.MaxConns)
	pc.MinConns = int32(cfg.MinConns)
	pc.MaxConnLifetime = time.Duration(cfg.ConnMaxLifetimeSeconds) * time.Second
	pc.ConnConfig.RuntimeParams["application_name"] = "bizcard"

	dialCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.DialTimeoutSeconds)*time.Second)
	defer cancel()

	logger.Info("connecting to database", logging.String("driver", "postgres"), logging.String("host", pc.ConnConfig.Host))
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "connect", "create postgres pool", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, services.Wrap(services.ErrTransient, "store", "connect", "ping postgres", err)
	}

	s := &Store{
		db:      stdlib.OpenDBFromPool(pool),
		pool:    pool,
		dialect: postgresDialect,
		target:  pc.ConnConfig.Host + "/" + pc.ConnConfig.Database,
		logger:  logger,
	}
	if err := s.initSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Driver reports the active backend name.
func (s *Store) Driver() string {
	return s.dialect.name
}

// Target describes where the data lives (file path or host/database).
func (s *Store) Target() string {
	return s.target
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ensureContext(ctx))
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	if err := s.db.QueryRowContext(ctx, s.dialect.tableExists).Scan(&tableExists); err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range s.dialect.statements() {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, s.dialect.rebind("INSERT INTO schema_version (version) VALUES (?)"), schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	})
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// retry re-runs op while SQLite reports the database as busy.
func (s *Store) retry(ctx context.Context, op func() error) error {
	if s.dialect.name != sqliteDialect.name {
		return op()
	}
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return s.retry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := s.retry(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}
