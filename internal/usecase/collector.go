package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ListingScanner/internal/domain"
	"ListingScanner/internal/namespace"
	"ListingScanner/internal/ports"
	"ListingScanner/internal/scanner"
)

// Query describes one search session: a keyword/location pair or a direct URL.
type Query struct {
	Source      domain.Source
	Keyword     string
	Location    string
	URL         string
	MaxListings int
	Scrolls     int
}

// Namespace resolves the storage namespace of q. A URL takes precedence over
// the keyword/location pair; explicit keyword/location still label it.
func (q Query) Namespace() (domain.Namespace, error) {
	if strings.TrimSpace(q.URL) == "" {
		return namespace.Resolve(q.Source, q.Keyword, q.Location)
	}

	ns, err := namespace.ResolveURL(q.Source, q.URL)
	if err != nil {
		return domain.Namespace{}, err
	}
	if k := strings.TrimSpace(q.Keyword); k != "" {
		ns.Keyword = k
	}
	if l := strings.TrimSpace(q.Location); l != "" {
		ns.Location = l
	}
	return ns, nil
}

// CollectorDeps wires browser, strategies and per-source ingestors.
type CollectorDeps struct {
	Registry  *scanner.Registry
	Browser   ports.Browser
	Ingestors []*Ingestor
	Logger    *slog.Logger
}

// Collector implements the scrape workflow: load pages, extract candidates,
// ingest them batch by batch.
type Collector struct {
	registry  *scanner.Registry
	browser   ports.Browser
	ingestors map[domain.Source]*Ingestor
	logger    *slog.Logger
}

// NewCollector constructs the orchestration component.
func NewCollector(deps CollectorDeps) *Collector {
	c := &Collector{
		registry:  deps.Registry,
		browser:   deps.Browser,
		ingestors: map[domain.Source]*Ingestor{},
		logger:    orDiscard(deps.Logger),
	}
	for _, ing := range deps.Ingestors {
		if ing != nil {
			c.ingestors[ing.Source()] = ing
		}
	}
	return c
}

// Collect scrapes q and ingests every batch the strategy yields. The
// accumulated result is returned even when the scrape stops early.
func (c *Collector) Collect(ctx context.Context, q Query) (domain.Namespace, domain.IngestResult, error) {
	var total domain.IngestResult

	ns, err := q.Namespace()
	if err != nil {
		return domain.Namespace{}, total, err
	}

	ingestor, err := c.ingestor(q.Source)
	if err != nil {
		return ns, total, err
	}

	if c.registry == nil {
		return ns, total, fmt.Errorf("scanner registry is not configured")
	}
	strategy, err := c.registry.Resolve(q.Source)
	if err != nil {
		return ns, total, err
	}

	if err := ingestor.Ensure(ctx, ns); err != nil {
		return ns, total, err
	}

	c.logger.Info("collect started", "namespace", ns.ID, "descriptor", ns.Descriptor())

	emit := func(ctx context.Context, batch []domain.Candidate) error {
		res, err := ingestor.Ingest(ctx, ns, batch)
		total.Add(res)
		return err
	}

	req := scanner.Request{
		Namespace:   ns,
		StartURL:    strings.TrimSpace(q.URL),
		MaxListings: q.MaxListings,
		Scrolls:     q.Scrolls,
	}
	if err := strategy.Scan(ctx, c.browser, req, emit); err != nil {
		return ns, total, fmt.Errorf("scan %s: %w", ns.ID, err)
	}

	c.logger.Info("collect finished",
		"namespace", ns.ID,
		"inserted", total.Inserted,
		"skipped_duplicate", total.SkippedDuplicate,
		"skipped_invalid", total.SkippedInvalid,
	)
	return ns, total, nil
}

// Import ingests an already extracted batch under the namespace of q.
func (c *Collector) Import(ctx context.Context, q Query, batch []domain.Candidate) (domain.Namespace, domain.IngestResult, error) {
	ns, err := q.Namespace()
	if err != nil {
		return domain.Namespace{}, domain.IngestResult{}, err
	}

	ingestor, err := c.ingestor(q.Source)
	if err != nil {
		return ns, domain.IngestResult{}, err
	}

	res, err := ingestor.Ingest(ctx, ns, batch)
	return ns, res, err
}

func (c *Collector) ingestor(source domain.Source) (*Ingestor, error) {
	ing, ok := c.ingestors[source]
	if !ok {
		return nil, fmt.Errorf("%w: no store for %q", domain.ErrUnknownSource, source)
	}
	return ing, nil
}
