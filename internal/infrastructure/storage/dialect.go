package storage

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"ListingScanner/internal/domain"
)

// Supported database/sql drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialect struct {
	name        string
	sqlDriver   string
	placeholder sq.PlaceholderFormat
	autoID      string
	realType    string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:        DriverSQLite,
		sqlDriver:   "sqlite",
		placeholder: sq.Question,
		autoID:      "INTEGER PRIMARY KEY AUTOINCREMENT",
		realType:    "REAL",
	},
	DriverPostgres: {
		name:        DriverPostgres,
		sqlDriver:   "pgx",
		placeholder: sq.Dollar,
		autoID:      "BIGSERIAL PRIMARY KEY",
		realType:    "DOUBLE PRECISION",
	},
}

func lookupDialect(name string) (dialect, error) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported storage driver %q", name)
	}
	return d, nil
}

// tables names the relations of one source. Every name carries the source
// prefix so both sources can share a single database.
type tables struct {
	namespaces string
	listings   string
	identity   string
}

func tablesFor(source domain.Source) tables {
	prefix := string(source) + "_"
	return tables{
		namespaces: prefix + "namespaces",
		listings:   prefix + "listings",
		identity:   prefix + "listings_identity",
	}
}

// schema returns the DDL statements for a source store. The column set is
// fixed per source; namespaces share the listings table through the
// namespace discriminator and the identity index.
func (d dialect) schema(source domain.Source) []string {
	t := tablesFor(source)

	extra := ""
	if source.RatingBearing() {
		extra = fmt.Sprintf(`
			website_status TEXT,
			rating %s,
			votes BIGINT,`, d.realType)
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			keyword TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			source_url TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`, t.namespaces),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id %s,
			uid TEXT NOT NULL UNIQUE,
			namespace TEXT NOT NULL REFERENCES %s(id),
			name TEXT NOT NULL,
			address TEXT NOT NULL,
			phone TEXT,
			website TEXT,%s
			keyword TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			scraped_at TEXT NOT NULL,
			norm_name TEXT NOT NULL,
			norm_address TEXT NOT NULL
		)`, t.listings, d.autoID, t.namespaces, extra),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s
			ON %s (namespace, norm_name, norm_address)`, t.identity, t.listings),
	}
}

// recordColumns lists the listing columns read back into domain.Record.
func recordColumns(source domain.Source) []string {
	cols := []string{"uid", "name", "address", "phone", "website"}
	if source.RatingBearing() {
		cols = append(cols, "website_status", "rating", "votes")
	}
	return append(cols, "keyword", "location", "scraped_at")
}
