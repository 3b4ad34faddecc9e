package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies one of the listing providers.
type Source string

const (
	SourceMaps     Source = "maps"
	SourceJustDial Source = "justdial"
)

// Sources lists every supported provider in display order.
func Sources() []Source {
	return []Source{SourceMaps, SourceJustDial}
}

// ParseSource maps a user supplied name onto a Source.
func ParseSource(value string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "maps", "google", "google maps", "googlemaps":
		return SourceMaps, nil
	case "justdial", "jd":
		return SourceJustDial, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, value)
	}
}

// RatingBearing reports whether the provider publishes ratings and vote counts.
func (s Source) RatingBearing() bool {
	return s == SourceJustDial
}

// Namespace is the storage partition for one search query or source URL.
type Namespace struct {
	ID        string
	Source    Source
	Keyword   string
	Location  string
	URL       string
	CreatedAt time.Time
}

// Descriptor renders the raw query the namespace was derived from.
func (n Namespace) Descriptor() string {
	if n.URL != "" {
		return n.URL
	}
	return n.Keyword + " in " + n.Location
}

// Record is one stored business listing.
type Record struct {
	UID           string
	Name          string
	Address       string
	Phone         *string
	Website       *string
	WebsiteStatus *string
	Rating        *float64
	Votes         *int64
	Keyword       string
	Location      string
	ScrapedAt     time.Time
}

// IdentityKey is the normalized (name, address) pair used for duplicate detection.
type IdentityKey struct {
	Name    string
	Address string
}

// IngestResult counts what happened to every candidate of a batch.
type IngestResult struct {
	Inserted         int
	SkippedDuplicate int
	SkippedInvalid   int
}

// Total is the number of candidates accounted for.
func (r IngestResult) Total() int {
	return r.Inserted + r.SkippedDuplicate + r.SkippedInvalid
}

// Add accumulates another result into r.
func (r *IngestResult) Add(other IngestResult) {
	r.Inserted += other.Inserted
	r.SkippedDuplicate += other.SkippedDuplicate
	r.SkippedInvalid += other.SkippedInvalid
}
