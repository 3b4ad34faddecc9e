package usecase

import (
	"context"
	"fmt"
	"io"

	"ListingScanner/internal/domain"
	"ListingScanner/internal/namespace"
	"ListingScanner/internal/ports"
)

// Catalog serves the read side: namespace listing and row retrieval across
// every source store. It never writes.
type Catalog struct {
	repos map[domain.Source]ports.ListingRepository
}

// NewCatalog indexes repositories by their source.
func NewCatalog(repos ...ports.ListingRepository) *Catalog {
	c := &Catalog{repos: map[domain.Source]ports.ListingRepository{}}
	for _, repo := range repos {
		if repo != nil {
			c.repos[repo.Source()] = repo
		}
	}
	return c
}

// ListNamespaces returns the namespace ids of source, alphabetically.
func (c *Catalog) ListNamespaces(ctx context.Context, source domain.Source) ([]string, error) {
	repo, err := c.repo(source)
	if err != nil {
		return nil, err
	}

	ids, err := repo.ListNamespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s namespaces: %w", source, err)
	}
	return ids, nil
}

// Describe returns the metadata of namespace id.
func (c *Catalog) Describe(ctx context.Context, id string) (domain.Namespace, error) {
	repo, err := c.repoFor(id)
	if err != nil {
		return domain.Namespace{}, err
	}
	return repo.Namespace(ctx, id)
}

// ReadAll returns every record of namespace id in first-seen order.
func (c *Catalog) ReadAll(ctx context.Context, id string) ([]domain.Record, error) {
	repo, err := c.repoFor(id)
	if err != nil {
		return nil, err
	}
	return repo.ReadAll(ctx, id)
}

// Export writes namespace id through exporter and returns the row count.
func (c *Catalog) Export(ctx context.Context, id string, exporter ports.Exporter, w io.Writer) (int, error) {
	records, err := c.ReadAll(ctx, id)
	if err != nil {
		return 0, err
	}

	source, _ := namespace.SourceOf(id)
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.Row(source))
	}

	if err := exporter.Export(w, id, domain.Columns(source), rows); err != nil {
		return 0, fmt.Errorf("export %s as %s: %w", id, exporter.Format(), err)
	}
	return len(rows), nil
}

func (c *Catalog) repoFor(id string) (ports.ListingRepository, error) {
	source, ok := namespace.SourceOf(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNamespaceNotFound, id)
	}
	return c.repo(source)
}

func (c *Catalog) repo(source domain.Source) (ports.ListingRepository, error) {
	repo, ok := c.repos[source]
	if !ok {
		return nil, fmt.Errorf("%w: no store for %q", domain.ErrUnknownSource, source)
	}
	return repo, nil
}
