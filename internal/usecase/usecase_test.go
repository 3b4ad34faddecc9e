package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ListingScanner/internal/domain"
	"ListingScanner/internal/infrastructure/export"
	"ListingScanner/internal/infrastructure/storage"
	"ListingScanner/internal/namespace"
	"ListingScanner/internal/ports"
	"ListingScanner/internal/scanner"
)

func openRepo(t *testing.T, source domain.Source) *storage.Repository {
	t.Helper()

	repo, err := storage.Open(context.Background(), source, storage.Options{Driver: storage.DriverSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func fixedIngestor(repo ports.ListingRepository) *Ingestor {
	n := 0
	return NewIngestor(IngestorDeps{
		Repository: repo,
		Now:        func() time.Time { return time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC) },
		NewUID: func() string {
			n++
			return fmt.Sprintf("uid-%d", n)
		},
	})
}

func mustResolve(t *testing.T, source domain.Source, keyword, location string) domain.Namespace {
	t.Helper()
	ns, err := namespace.Resolve(source, keyword, location)
	require.NoError(t, err)
	return ns
}

func TestIngestScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, domain.SourceMaps)
	ingestor := fixedIngestor(repo)
	ns := mustResolve(t, domain.SourceMaps, "coffee", "nyc")
	require.Equal(t, "maps_coffee_nyc", ns.ID)

	res, err := ingestor.Ingest(ctx, ns, []domain.Candidate{
		{"name": "Joe's Cafe", "address": "1 Main St"},
		{"name": "Joe's Cafe", "address": "1 Main St"},
		{"name": "", "address": "2 Oak St"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IngestResult{Inserted: 1, SkippedDuplicate: 1, SkippedInvalid: 1}, res)

	records, err := NewCatalog(repo).ReadAll(ctx, ns.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Joe's Cafe", records[0].Name)
	assert.Equal(t, "coffee", records[0].Keyword)
	assert.Equal(t, "nyc", records[0].Location)
	assert.Equal(t, "uid-1", records[0].UID)
}

func TestIngestAccountsForEveryCandidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, domain.SourceMaps)
	ns := mustResolve(t, domain.SourceMaps, "bakery", "goa")

	batch := []domain.Candidate{
		{"name": "A", "address": "x"},
		{"name": "B", "address": "y"},
		{"name": " a ", "address": "X"},
		{"name": "N/A", "address": "z"},
		{"name": "C"},
		{"address": "only"},
		{"name": "D", "address": "w", "phone": "N/A"},
	}

	res, err := fixedIngestor(repo).Ingest(ctx, ns, batch)
	require.NoError(t, err)
	assert.Equal(t, len(batch), res.Total())
	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 1, res.SkippedDuplicate)
	assert.Equal(t, 3, res.SkippedInvalid)

	records, err := repo.ReadAll(ctx, ns.ID)
	require.NoError(t, err)
	assert.Len(t, records, res.Inserted)
	assert.Nil(t, records[2].Phone)
}

func TestIngestRejectsInvisibleText(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, domain.SourceMaps)
	ns := mustResolve(t, domain.SourceMaps, "coffee", "nyc")

	res, err := fixedIngestor(repo).Ingest(ctx, ns, []domain.Candidate{
		{"name": "\u200b", "address": "1 Main St"},
		{"name": "Joe's Cafe", "address": "\u200b\u200d"},
		{"name": "\ufeff", "address": "2 Oak St"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IngestResult{SkippedInvalid: 3}, res)

	records, err := repo.ReadAll(ctx, ns.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestIngestIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, domain.SourceMaps)
	ingestor := fixedIngestor(repo)
	ns := mustResolve(t, domain.SourceMaps, "tea", "pune")

	batch := []domain.Candidate{
		{"name": "Chai Point", "address": "FC Road"},
		{"name": "Tea Villa", "address": "Baner"},
	}

	first, err := ingestor.Ingest(ctx, ns, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	second, err := ingestor.Ingest(ctx, ns, batch)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestResult{SkippedDuplicate: len(batch)}, second)
}

func TestReadAllPreservesFirstSeenOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, domain.SourceMaps)
	ingestor := fixedIngestor(repo)
	ns := mustResolve(t, domain.SourceMaps, "gym", "delhi")

	_, err := ingestor.Ingest(ctx, ns, []domain.Candidate{
		{"name": "Zeta", "address": "1"},
		{"name": "Alpha", "address": "2"},
	})
	require.NoError(t, err)
	_, err = ingestor.Ingest(ctx, ns, []domain.Candidate{
		{"name": "alpha", "address": "2"},
		{"name": "Mid", "address": "3"},
	})
	require.NoError(t, err)

	records, err := repo.ReadAll(ctx, ns.ID)
	require.NoError(t, err)

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, names)
}

func TestEquivalentDescriptorsShareContainer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, domain.SourceMaps)
	ingestor := fixedIngestor(repo)

	a := mustResolve(t, domain.SourceMaps, "coffee", "nyc")
	b := mustResolve(t, domain.SourceMaps, "coffee", "NYC ")
	require.Equal(t, a.ID, b.ID)

	_, err := ingestor.Ingest(ctx, a, []domain.Candidate{{"name": "Joe's Cafe", "address": "1 Main St"}})
	require.NoError(t, err)
	res, err := ingestor.Ingest(ctx, b, []domain.Candidate{{"name": "JOE'S CAFE", "address": " 1 main st"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SkippedDuplicate)

	ids, err := NewCatalog(repo).ListNamespaces(ctx, domain.SourceMaps)
	require.NoError(t, err)
	assert.Equal(t, []string{"maps_coffee_nyc"}, ids)
}

func TestCatalogNamespaceNotFound(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog(openRepo(t, domain.SourceMaps), openRepo(t, domain.SourceJustDial))

	_, err := catalog.ReadAll(context.Background(), "maps_never_provisioned")
	assert.ErrorIs(t, err, domain.ErrNamespaceNotFound)

	_, err = catalog.ReadAll(context.Background(), "unprefixed")
	assert.ErrorIs(t, err, domain.ErrNamespaceNotFound)
}

func TestCatalogProvisionedButEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, domain.SourceJustDial)
	ns := mustResolve(t, domain.SourceJustDial, "spa", "goa")
	require.NoError(t, fixedIngestor(repo).Ensure(ctx, ns))

	records, err := NewCatalog(repo).ReadAll(ctx, ns.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCatalogUnknownSource(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog(openRepo(t, domain.SourceMaps)).ListNamespaces(context.Background(), domain.SourceJustDial)
	assert.ErrorIs(t, err, domain.ErrUnknownSource)
}

func TestCatalogExport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, domain.SourceJustDial)
	ns := mustResolve(t, domain.SourceJustDial, "gym", "pune")
	_, err := fixedIngestor(repo).Ingest(ctx, ns, []domain.Candidate{
		{"name": "Iron Gym", "address": "FC Road", "rating": "4.3", "votes": "1,234 Ratings", "website": "https://iron.example"},
		{"name": "Flex", "address": "JM Road", "rating": "N/A"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := NewCatalog(repo).Export(ctx, ns.ID, export.CSVExporter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,address,phone,website,website_status,rating,votes,keyword,location,scraped_at", lines[0])
	assert.Equal(t, "Iron Gym,FC Road,,https://iron.example,Online,4.3,1234,gym,pune,2025-01-02T03:04:05Z", lines[1])
	assert.Equal(t, "Flex,JM Road,,,Unknown,,,gym,pune,2025-01-02T03:04:05Z", lines[2])
}

// countingRepo wraps a repository to count provisioning and fail inserts on demand.
type countingRepo struct {
	ports.ListingRepository
	ensureCalls int
	inserts     int
	failAfter   int
}

func (c *countingRepo) EnsureNamespace(ctx context.Context, ns domain.Namespace) error {
	c.ensureCalls++
	return c.ListingRepository.EnsureNamespace(ctx, ns)
}

func (c *countingRepo) InsertRecord(ctx context.Context, nsID string, key domain.IdentityKey, rec domain.Record) (bool, error) {
	if c.failAfter > 0 && c.inserts >= c.failAfter {
		return false, fmt.Errorf("insert listing: %w: %w", domain.ErrStorageUnavailable, errors.New("disk full"))
	}
	c.inserts++
	return c.ListingRepository.InsertRecord(ctx, nsID, key, rec)
}

func TestProvisionerEnsuresOncePerNamespace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := &countingRepo{ListingRepository: openRepo(t, domain.SourceMaps)}
	ingestor := fixedIngestor(repo)

	ns := mustResolve(t, domain.SourceMaps, "coffee", "nyc")
	other := mustResolve(t, domain.SourceMaps, "tea", "nyc")
	for i := 0; i < 3; i++ {
		_, err := ingestor.Ingest(ctx, ns, []domain.Candidate{{"name": "A", "address": "B"}})
		require.NoError(t, err)
	}
	_, err := ingestor.Ingest(ctx, other, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.ensureCalls)
}

func TestProvisionerRejectsForeignSource(t *testing.T) {
	t.Parallel()

	p := NewProvisioner(openRepo(t, domain.SourceMaps), nil)
	err := p.Ensure(context.Background(), mustResolve(t, domain.SourceJustDial, "a", "b"))
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestIngestStorageFailureKeepsCommittedRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := openRepo(t, domain.SourceMaps)
	repo := &countingRepo{ListingRepository: base, failAfter: 1}
	ns := mustResolve(t, domain.SourceMaps, "coffee", "nyc")

	res, err := fixedIngestor(repo).Ingest(ctx, ns, []domain.Candidate{
		{"name": "First", "address": "1"},
		{"name": "Second", "address": "2"},
		{"name": "Third", "address": "3"},
	})
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Equal(t, 1, res.Inserted)

	records, err := base.ReadAll(ctx, ns.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "First", records[0].Name)
}

// stubBrowser satisfies ports.Browser without doing anything.
type stubBrowser struct{}

func (stubBrowser) Navigate(context.Context, string) error { return nil }
func (stubBrowser) ScrollToBottom(context.Context) error   { return nil }
func (stubBrowser) HTML(context.Context) (string, error)   { return "", nil }

// stubScanner emits fixed batches.
type stubScanner struct {
	source  domain.Source
	batches [][]domain.Candidate
	got     scanner.Request
}

func (s *stubScanner) Source() domain.Source { return s.source }

func (s *stubScanner) SearchURL(keyword, location string) string { return keyword + "/" + location }

func (s *stubScanner) Scan(ctx context.Context, _ ports.Browser, req scanner.Request, emit scanner.EmitFunc) error {
	s.got = req
	for _, b := range s.batches {
		if err := emit(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func TestCollectorCollect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, domain.SourceMaps)

	strategy := &stubScanner{source: domain.SourceMaps, batches: [][]domain.Candidate{
		{{"name": "Joe's Cafe", "address": "1 Main St"}},
		{{"name": "Joe's Cafe", "address": "1 Main St"}},
		{{"name": "", "address": ""}},
	}}
	registry := scanner.NewRegistry()
	registry.Register(strategy)

	collector := NewCollector(CollectorDeps{
		Registry:  registry,
		Browser:   stubBrowser{},
		Ingestors: []*Ingestor{fixedIngestor(repo)},
	})

	ns, res, err := collector.Collect(ctx, Query{Source: domain.SourceMaps, Keyword: "coffee", Location: "nyc", MaxListings: 5, Scrolls: 2})
	require.NoError(t, err)
	assert.Equal(t, "maps_coffee_nyc", ns.ID)
	assert.Equal(t, domain.IngestResult{Inserted: 1, SkippedDuplicate: 1, SkippedInvalid: 1}, res)
	assert.Equal(t, 5, strategy.got.MaxListings)
	assert.Equal(t, 2, strategy.got.Scrolls)
	assert.Equal(t, ns.ID, strategy.got.Namespace.ID)
}

func TestCollectorCollectEmptyScanStillProvisions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, domain.SourceJustDial)
	registry := scanner.NewRegistry()
	registry.Register(&stubScanner{source: domain.SourceJustDial})

	collector := NewCollector(CollectorDeps{Registry: registry, Browser: stubBrowser{}, Ingestors: []*Ingestor{fixedIngestor(repo)}})

	ns, res, err := collector.Collect(ctx, Query{Source: domain.SourceJustDial, URL: "https://www.justdial.com/Pune/Gyms"})
	require.NoError(t, err)
	assert.Zero(t, res.Total())

	meta, err := NewCatalog(repo).Describe(ctx, ns.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gyms", meta.Keyword)
	assert.Equal(t, "Pune", meta.Location)
	assert.Equal(t, "https://www.justdial.com/Pune/Gyms", meta.URL)
}

func TestCollectorRejectsInvalidQuery(t *testing.T) {
	t.Parallel()

	collector := NewCollector(CollectorDeps{Registry: scanner.NewRegistry()})
	_, _, err := collector.Collect(context.Background(), Query{Source: domain.SourceMaps, Keyword: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestCollectorImport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, domain.SourceMaps)
	collector := NewCollector(CollectorDeps{Ingestors: []*Ingestor{fixedIngestor(repo)}})

	ns, res, err := collector.Import(ctx, Query{Source: domain.SourceMaps, Keyword: "coffee", Location: "nyc"},
		[]domain.Candidate{{"name": "A", "address": "B"}})
	require.NoError(t, err)
	assert.Equal(t, "maps_coffee_nyc", ns.ID)
	assert.Equal(t, 1, res.Inserted)

	_, _, err = collector.Import(ctx, Query{Source: domain.SourceJustDial, Keyword: "a", Location: "b"}, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownSource)
}
