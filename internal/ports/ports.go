package ports

import (
	"context"
	"io"

	"ListingScanner/internal/domain"
)

// ListingRepository persists listings of a single source, partitioned by namespace.
type ListingRepository interface {
	Source() domain.Source
	EnsureNamespace(ctx context.Context, ns domain.Namespace) error
	Namespace(ctx context.Context, id string) (domain.Namespace, error)
	ListNamespaces(ctx context.Context) ([]string, error)
	HasIdentity(ctx context.Context, namespace string, key domain.IdentityKey) (bool, error)
	InsertRecord(ctx context.Context, namespace string, key domain.IdentityKey, record domain.Record) (bool, error)
	ReadAll(ctx context.Context, namespace string) ([]domain.Record, error)
	Close() error
}

// Browser drives the page a scan strategy extracts listings from.
type Browser interface {
	Navigate(ctx context.Context, pageURL string) error
	ScrollToBottom(ctx context.Context) error
	HTML(ctx context.Context) (string, error)
}

// Exporter serializes tabular rows into a spreadsheet format.
type Exporter interface {
	Format() string
	Export(w io.Writer, sheet string, columns []string, rows [][]string) error
}
