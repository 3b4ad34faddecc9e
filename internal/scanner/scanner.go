package scanner

import (
	"context"
	"fmt"

	"ListingScanner/internal/domain"
	"ListingScanner/internal/ports"
)

// Request carries all parameters required to execute a scan.
type Request struct {
	Namespace   domain.Namespace
	StartURL    string
	MaxListings int
	Scrolls     int
}

// EmitFunc receives each batch of candidates as soon as a page yields it.
type EmitFunc func(ctx context.Context, batch []domain.Candidate) error

// Scanner captures a single provider strategy (Google Maps, JustDial).
type Scanner interface {
	Source() domain.Source
	SearchURL(keyword, location string) string
	Scan(ctx context.Context, browser ports.Browser, req Request, emit EmitFunc) error
}

// Registry keeps a mapping from sources to their implementations.
type Registry struct {
	scanners map[domain.Source]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[domain.Source]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[domain.Source]Scanner{}
	}
	r.scanners[scanner.Source()] = scanner
}

// Resolve returns the scanner of a source or an error if it is absent.
func (r *Registry) Resolve(source domain.Source) (Scanner, error) {
	if scanner, ok := r.scanners[source]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner for %s is not registered", source)
}
