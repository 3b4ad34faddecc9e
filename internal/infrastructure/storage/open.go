package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver
	_ "modernc.org/sqlite"             // SQLite driver

	"ListingScanner/internal/domain"
)

// Options selects the physical store of a source.
type Options struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string
	// DataDir holds one SQLite file per source.
	DataDir string
	// DSN is the Postgres connection string of the source.
	DSN string
}

// FileName is the SQLite database file of a source inside DataDir.
func FileName(source domain.Source) string {
	if source == domain.SourceJustDial {
		return "justdial_businesses.db"
	}
	return "businesses.db"
}

// Open connects to the store of source and provisions its schema.
func Open(ctx context.Context, source domain.Source, opts Options) (*Repository, error) {
	d, err := lookupDialect(opts.Driver)
	if err != nil {
		return nil, err
	}

	var dsn string
	switch d.name {
	case DriverSQLite:
		if err := os.MkdirAll(opts.DataDir, 0o700); err != nil {
			return nil, storageErr("create data directory", err)
		}
		path := filepath.Join(opts.DataDir, FileName(source))
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("%w: no dsn configured for %s", domain.ErrStorageUnavailable, source)
		}
		dsn = opts.DSN
	}

	db, err := sql.Open(d.sqlDriver, dsn)
	if err != nil {
		return nil, storageErr("open database", err)
	}
	if d.name == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storageErr("ping database", err)
	}

	repo, err := NewRepository(ctx, db, d.name, source)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}
