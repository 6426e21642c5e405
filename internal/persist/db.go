package persist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/uogo/client/internal/config"
)

// Dialects, named the way goose names them.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// DB is the local client store: login profiles and the message journal.
// A postgres:// DSN selects the pgx driver, anything else is a SQLite file
// (":memory:" for a throwaway store).
type DB struct {
	SQL     *sql.DB
	Dialect string
	log     *zap.Logger
}

func Open(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (*DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		return nil, fmt.Errorf("empty store dsn")
	}

	driver, dialect := "sqlite", DialectSQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, dialect = "pgx", DialectPostgres
	} else if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if dialect == DialectSQLite {
		// One connection: an in-memory database lives and dies with it.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	if dialect == DialectSQLite {
		for _, p := range []string{
			"PRAGMA journal_mode=WAL;",
			"PRAGMA synchronous=NORMAL;",
			"PRAGMA busy_timeout=5000;",
		} {
			if _, err := db.ExecContext(ctx, p); err != nil {
				db.Close()
				return nil, fmt.Errorf("sqlite pragma: %w", err)
			}
		}
	}

	log.Info("store opened", zap.String("dialect", dialect))
	return &DB{SQL: db, Dialect: dialect, log: log}, nil
}

func (db *DB) Close() error {
	return db.SQL.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (db *DB) rebind(query string) string {
	if db.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
