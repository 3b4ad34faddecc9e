package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ListingScanner/internal/domain"
	"ListingScanner/internal/ports"
)

// Provisioner makes sure a namespace container exists before the first write.
// Each namespace is provisioned at most once per process.
type Provisioner struct {
	repo    ports.ListingRepository
	logger  *slog.Logger
	mu      sync.Mutex
	ensured map[string]struct{}
}

// NewProvisioner wraps the repository of one source.
func NewProvisioner(repo ports.ListingRepository, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		repo:    repo,
		logger:  orDiscard(logger),
		ensured: map[string]struct{}{},
	}
}

// Ensure creates the container of ns if absent; repeated calls are no-ops.
func (p *Provisioner) Ensure(ctx context.Context, ns domain.Namespace) error {
	if ns.ID == "" {
		return fmt.Errorf("%w: empty namespace id", domain.ErrInvalidQuery)
	}
	if ns.Source != p.repo.Source() {
		return fmt.Errorf("%w: namespace %s belongs to %s, store holds %s", domain.ErrInvalidQuery, ns.ID, ns.Source, p.repo.Source())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.ensured[ns.ID]; ok {
		return nil
	}

	if err := p.repo.EnsureNamespace(ctx, ns); err != nil {
		return fmt.Errorf("ensure %s: %w", ns.ID, err)
	}

	p.ensured[ns.ID] = struct{}{}
	p.logger.Debug("namespace provisioned", "namespace", ns.ID)
	return nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
