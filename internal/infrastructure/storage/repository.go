package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ListingScanner/internal/domain"
	"ListingScanner/internal/ports"
)

// Repository persists the listings of one source into one physical store.
type Repository struct {
	db      *sql.DB
	source  domain.Source
	dialect dialect
	tables  tables
	sb      sq.StatementBuilderType
}

var _ ports.ListingRepository = (*Repository)(nil)

// NewRepository wires an open sql.DB and creates the source schema if absent.
func NewRepository(ctx context.Context, db *sql.DB, driver string, source domain.Source) (*Repository, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}

	r := &Repository{
		db:      db,
		source:  source,
		dialect: d,
		tables:  tablesFor(source),
		sb:      sq.StatementBuilder.PlaceholderFormat(d.placeholder),
	}

	for _, stmt := range d.schema(source) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, storageErr("create schema", err)
		}
	}

	return r, nil
}

// Source reports which provider this store belongs to.
func (r *Repository) Source() domain.Source {
	return r.source
}

// EnsureNamespace records ns as provisioned; a no-op when it already exists.
func (r *Repository) EnsureNamespace(ctx context.Context, ns domain.Namespace) error {
	createdAt := ns.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query, args, err := r.sb.Insert(r.tables.namespaces).
		Columns("id", "keyword", "location", "source_url", "created_at").
		Values(ns.ID, ns.Keyword, ns.Location, ns.URL, createdAt.UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build ensure namespace: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storageErr("ensure namespace", err)
	}
	return nil
}

// Namespace loads the metadata of a provisioned namespace.
func (r *Repository) Namespace(ctx context.Context, id string) (domain.Namespace, error) {
	query, args, err := r.sb.Select("id", "keyword", "location", "source_url", "created_at").
		From(r.tables.namespaces).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Namespace{}, fmt.Errorf("build namespace lookup: %w", err)
	}

	var (
		ns        = domain.Namespace{Source: r.source}
		createdAt string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&ns.ID, &ns.Keyword, &ns.Location, &ns.URL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Namespace{}, fmt.Errorf("%w: %s", domain.ErrNamespaceNotFound, id)
	}
	if err != nil {
		return domain.Namespace{}, storageErr("query namespace", err)
	}

	ns.CreatedAt = parseTime(createdAt)
	return ns, nil
}

// ListNamespaces returns every provisioned namespace id in alphabetical order.
func (r *Repository) ListNamespaces(ctx context.Context) ([]string, error) {
	query, args, err := r.sb.Select("id").From(r.tables.namespaces).OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list namespaces: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query namespaces", err)
	}

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, storageErr("scan namespace", err)
		}
		ids = append(ids, id)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, storageErr("namespace rows iteration", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, storageErr("close namespace rows", closeErr)
	}

	return ids, nil
}

// HasIdentity reports whether namespace already holds a row with key.
func (r *Repository) HasIdentity(ctx context.Context, namespace string, key domain.IdentityKey) (bool, error) {
	query, args, err := r.sb.Select("1").
		From(r.tables.listings).
		Where(sq.Eq{"namespace": namespace, "norm_name": key.Name, "norm_address": key.Address}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build identity lookup: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("query identity", err)
	}
	return true, nil
}

// InsertRecord stores record under namespace. It returns false when another
// row with the same identity key won the insert.
func (r *Repository) InsertRecord(ctx context.Context, namespace string, key domain.IdentityKey, record domain.Record) (bool, error) {
	scrapedAt := record.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}

	columns := []string{"uid", "namespace", "name", "address", "phone", "website"}
	values := []any{record.UID, namespace, record.Name, record.Address, nullString(record.Phone), nullString(record.Website)}
	if r.source.RatingBearing() {
		columns = append(columns, "website_status", "rating", "votes")
		values = append(values, nullString(record.WebsiteStatus), nullFloat(record.Rating), nullInt(record.Votes))
	}
	columns = append(columns, "keyword", "location", "scraped_at", "norm_name", "norm_address")
	values = append(values, record.Keyword, record.Location, scrapedAt.UTC().Format(time.RFC3339), key.Name, key.Address)

	query, args, err := r.sb.Insert(r.tables.listings).
		Columns(columns...).
		Values(values...).
		Suffix("ON CONFLICT (namespace, norm_name, norm_address) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert listing: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, storageErr("insert listing", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("insert listing rows affected", err)
	}
	return affected > 0, nil
}

// ReadAll returns the rows of namespace in first-seen order.
func (r *Repository) ReadAll(ctx context.Context, namespace string) ([]domain.Record, error) {
	if _, err := r.Namespace(ctx, namespace); err != nil {
		return nil, err
	}

	query, args, err := r.sb.Select(recordColumns(r.source)...).
		From(r.tables.listings).
		Where(sq.Eq{"namespace": namespace}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build read listings: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query listings", err)
	}

	records := make([]domain.Record, 0)
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			_ = rows.Close()
			return nil, storageErr("scan listing", err)
		}
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, storageErr("listing rows iteration", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, storageErr("close listing rows", closeErr)
	}

	return records, nil
}

// Close releases the underlying database handle.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) scanRecord(rows *sql.Rows) (domain.Record, error) {
	var (
		rec                    domain.Record
		phone, website, status sql.NullString
		rating                 sql.NullFloat64
		votes                  sql.NullInt64
		scrapedAt              string
	)

	dest := []any{&rec.UID, &rec.Name, &rec.Address, &phone, &website}
	if r.source.RatingBearing() {
		dest = append(dest, &status, &rating, &votes)
	}
	dest = append(dest, &rec.Keyword, &rec.Location, &scrapedAt)

	if err := rows.Scan(dest...); err != nil {
		return domain.Record{}, err
	}

	rec.Phone = fromNullString(phone)
	rec.Website = fromNullString(website)
	rec.WebsiteStatus = fromNullString(status)
	if rating.Valid {
		rec.Rating = &rating.Float64
	}
	if votes.Valid {
		rec.Votes = &votes.Int64
	}
	rec.ScrapedAt = parseTime(scrapedAt)
	return rec, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
