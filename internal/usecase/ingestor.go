package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ListingScanner/internal/domain"
	"ListingScanner/internal/normalize"
	"ListingScanner/internal/ports"
)

// IngestorDeps wires the collaborators of an Ingestor.
type IngestorDeps struct {
	Repository  ports.ListingRepository
	Provisioner *Provisioner
	Logger      *slog.Logger
	// Now and NewUID default to time.Now and uuid.NewString.
	Now    func() time.Time
	NewUID func() string
}

// Ingestor merges raw candidate batches into a namespace, inserting only
// identities the namespace has not seen.
type Ingestor struct {
	repo        ports.ListingRepository
	provisioner *Provisioner
	logger      *slog.Logger
	now         func() time.Time
	newUID      func() string
}

// NewIngestor constructs an Ingestor for the repository's source.
func NewIngestor(deps IngestorDeps) *Ingestor {
	i := &Ingestor{
		repo:        deps.Repository,
		provisioner: deps.Provisioner,
		logger:      orDiscard(deps.Logger),
		now:         deps.Now,
		newUID:      deps.NewUID,
	}
	if i.provisioner == nil {
		i.provisioner = NewProvisioner(deps.Repository, deps.Logger)
	}
	if i.now == nil {
		i.now = time.Now
	}
	if i.newUID == nil {
		i.newUID = uuid.NewString
	}
	return i
}

// Source reports which store the ingestor writes to.
func (i *Ingestor) Source() domain.Source {
	return i.repo.Source()
}

// Ensure provisions ns ahead of the first batch.
func (i *Ingestor) Ensure(ctx context.Context, ns domain.Namespace) error {
	return i.provisioner.Ensure(ctx, ns)
}

// Ingest processes batch in order. On a storage failure the partial result
// is returned with the error; rows inserted before it stay committed.
func (i *Ingestor) Ingest(ctx context.Context, ns domain.Namespace, batch []domain.Candidate) (domain.IngestResult, error) {
	var result domain.IngestResult

	if err := i.provisioner.Ensure(ctx, ns); err != nil {
		return result, err
	}

	for idx, candidate := range batch {
		name := candidate.Text(domain.FieldName)
		address := candidate.Text(domain.FieldAddress)
		key := IdentityKeyOf(name, address)
		// Text that folds away entirely (zero-width runes) names nothing.
		if key.Name == "" || key.Address == "" {
			result.SkippedInvalid++
			i.logger.Debug("skipped invalid", "namespace", ns.ID, "index", idx)
			continue
		}

		found, err := i.repo.HasIdentity(ctx, ns.ID, key)
		if err != nil {
			return result, fmt.Errorf("lookup candidate %d: %w", idx, err)
		}
		if found {
			result.SkippedDuplicate++
			i.logger.Debug("skipped duplicate", "namespace", ns.ID, "name", name)
			continue
		}

		inserted, err := i.repo.InsertRecord(ctx, ns.ID, key, i.toRecord(ns, candidate, name, address))
		if err != nil {
			return result, fmt.Errorf("insert candidate %d: %w", idx, err)
		}
		if !inserted {
			result.SkippedDuplicate++
			i.logger.Debug("skipped duplicate", "namespace", ns.ID, "name", name)
			continue
		}

		result.Inserted++
		i.logger.Debug("saved", "namespace", ns.ID, "name", name)
	}

	i.logger.Info("batch ingested",
		"namespace", ns.ID,
		"inserted", result.Inserted,
		"skipped_duplicate", result.SkippedDuplicate,
		"skipped_invalid", result.SkippedInvalid,
	)
	return result, nil
}

// IdentityKeyOf folds name and address into the duplicate-detection key.
func IdentityKeyOf(name, address string) domain.IdentityKey {
	return domain.IdentityKey{
		Name:    normalize.Fold(name),
		Address: normalize.Fold(address),
	}
}

func (i *Ingestor) toRecord(ns domain.Namespace, c domain.Candidate, name, address string) domain.Record {
	rec := domain.Record{
		UID:       i.newUID(),
		Name:      name,
		Address:   address,
		Phone:     c.OptionalText(domain.FieldPhone),
		Website:   c.OptionalText(domain.FieldWebsite),
		Keyword:   ns.Keyword,
		Location:  ns.Location,
		ScrapedAt: i.now().UTC(),
	}

	if ns.Source.RatingBearing() {
		rec.Rating = c.Float(domain.FieldRating)
		rec.Votes = c.Int(domain.FieldVotes)
		rec.WebsiteStatus = c.OptionalText(domain.FieldWebsiteStatus)
		if rec.WebsiteStatus == nil {
			status := "Unknown"
			if rec.Website != nil {
				status = "Online"
			}
			rec.WebsiteStatus = &status
		}
	}

	return rec
}
