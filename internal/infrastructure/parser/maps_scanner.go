package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ListingScanner/internal/domain"
	"ListingScanner/internal/ports"
	"ListingScanner/internal/scanner"
)

const (
	mapsSearchBaseURL = "https://www.google.com/maps/search/"
	mapsLinkCap       = 200
)

// MapsScanner collects place links from a Google Maps search and extracts
// one listing per place page.
type MapsScanner struct {
	pageDelay  time.Duration
	scrollWait time.Duration
	logger     *slog.Logger
}

var _ scanner.Scanner = (*MapsScanner)(nil)

// NewMapsScanner wires the pacing between page visits and scrolls.
func NewMapsScanner(pageDelay, scrollWait time.Duration, logger *slog.Logger) *MapsScanner {
	return &MapsScanner{pageDelay: pageDelay, scrollWait: scrollWait, logger: logger}
}

// Source identifies the strategy inside the registry.
func (m *MapsScanner) Source() domain.Source {
	return domain.SourceMaps
}

// SearchURL builds the Maps search page for "<keyword> in <location>".
func (m *MapsScanner) SearchURL(keyword, location string) string {
	return mapsSearchBaseURL + url.QueryEscape(strings.TrimSpace(keyword)) + "+in+" + url.QueryEscape(strings.TrimSpace(location))
}

// Scan loads the search page, gathers place links and emits one candidate per place.
func (m *MapsScanner) Scan(ctx context.Context, browser ports.Browser, req scanner.Request, emit scanner.EmitFunc) error {
	start := req.StartURL
	if start == "" {
		start = m.SearchURL(req.Namespace.Keyword, req.Namespace.Location)
	}

	doc, err := loadDocument(ctx, browser, start, req.Scrolls, m.scrollWait)
	if err != nil {
		return fmt.Errorf("search page: %w", err)
	}

	links := collectPlaceLinks(doc, start, req.MaxListings)
	m.debug("collected place links", "count", len(links), "namespace", req.Namespace.ID)

	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}

		placeDoc, err := loadDocument(ctx, browser, link, 0, 0)
		if err != nil {
			return fmt.Errorf("place %d: %w", i, err)
		}

		if err := emit(ctx, []domain.Candidate{parsePlace(placeDoc)}); err != nil {
			return err
		}

		if i < len(links)-1 {
			if err := sleep(ctx, m.pageDelay); err != nil {
				return err
			}
		}
	}

	return nil
}

// collectPlaceLinks returns unique absolute /maps/place/ links in page order.
func collectPlaceLinks(doc *goquery.Document, base string, limit int) []string {
	baseURL, _ := url.Parse(base)

	var links []string
	seen := map[string]struct{}{}
	doc.Find(`a[href*="/maps/place/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return true
		}

		if baseURL != nil {
			if ref, err := url.Parse(href); err == nil {
				href = baseURL.ResolveReference(ref).String()
			}
		}

		if _, dup := seen[href]; dup {
			return true
		}
		seen[href] = struct{}{}
		links = append(links, href)

		return len(links) < mapsLinkCap
	})

	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	return links
}

// parsePlace extracts a single listing from a Maps place page.
func parsePlace(doc *goquery.Document) domain.Candidate {
	website, _ := doc.Find(`a[data-item-id="authority"]`).First().Attr("href")

	return domain.Candidate{
		domain.FieldName:    strings.TrimSpace(doc.Find("h1").First().Text()),
		domain.FieldAddress: strings.TrimSpace(doc.Find(`button[data-item-id="address"] div`).First().Text()),
		domain.FieldPhone:   strings.TrimSpace(doc.Find(`button[data-item-id^="phone"] div`).First().Text()),
		domain.FieldWebsite: strings.TrimSpace(website),
	}
}

func (m *MapsScanner) debug(msg string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
