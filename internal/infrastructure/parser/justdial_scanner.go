package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ListingScanner/internal/domain"
	"ListingScanner/internal/ports"
	"ListingScanner/internal/scanner"
)

const (
	justDialBaseURL = "https://www.justdial.com/"

	websiteOnline  = "Online"
	websiteUnknown = "Unknown"
)

var (
	phoneExpr = regexp.MustCompile(`^[\d\s+\-()]{10,}$`)

	listingSelector = "li.cntanr, div.resultbox, section.resultbox_listing"
	nameSelector    = "h2.resultbox_title, h3.resultbox_title, .resultbox_title_anchor, .complist_title"
	phoneSelector   = ".callcontent, .callNowAnchor, .greenfill_animate span"
	ratingSelector  = ".resultbox_totalrate, .star_m, .green-box, .rating"
	votesSelector   = ".resultbox_countrate, .rt_count, .votes, .review-count"

	addressSelectors = []string{
		".resultbox_locat_icon + .locatcity",
		".cont_fl_addr",
		".add_icon_link",
		"address",
		".resultbox_address div",
		".locatcity",
	}
)

// JustDialScanner extracts every listing card of a JustDial results page.
type JustDialScanner struct {
	scrollWait time.Duration
	logger     *slog.Logger
}

var _ scanner.Scanner = (*JustDialScanner)(nil)

// NewJustDialScanner wires how long to wait for lazy content after each scroll.
func NewJustDialScanner(scrollWait time.Duration, logger *slog.Logger) *JustDialScanner {
	return &JustDialScanner{scrollWait: scrollWait, logger: logger}
}

// Source identifies the strategy inside the registry.
func (j *JustDialScanner) Source() domain.Source {
	return domain.SourceJustDial
}

// SearchURL builds https://www.justdial.com/<location>/<keyword>.
func (j *JustDialScanner) SearchURL(keyword, location string) string {
	return justDialBaseURL + url.QueryEscape(strings.TrimSpace(location)) + "/" + url.QueryEscape(strings.TrimSpace(keyword))
}

// Scan loads the results page, scrolls to load more cards and emits them as one batch.
func (j *JustDialScanner) Scan(ctx context.Context, browser ports.Browser, req scanner.Request, emit scanner.EmitFunc) error {
	start := req.StartURL
	if start == "" {
		start = j.SearchURL(req.Namespace.Keyword, req.Namespace.Location)
	}

	doc, err := loadDocument(ctx, browser, start, req.Scrolls, j.scrollWait)
	if err != nil {
		return fmt.Errorf("results page: %w", err)
	}

	batch := parseListings(doc, req.MaxListings)
	if j.logger != nil {
		j.logger.Debug("extracted listings", "count", len(batch), "namespace", req.Namespace.ID)
	}
	if len(batch) == 0 {
		return nil
	}

	return emit(ctx, batch)
}

// parseListings extracts listing cards, dropping cards without a name and
// repeated names on the same page.
func parseListings(doc *goquery.Document, limit int) []domain.Candidate {
	var results []domain.Candidate
	seen := map[string]struct{}{}

	doc.Find(listingSelector).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		candidate, ok := parseListing(card)
		if !ok {
			return true
		}

		name := candidate.Text(domain.FieldName)
		if _, dup := seen[name]; dup {
			return true
		}
		seen[name] = struct{}{}
		results = append(results, candidate)

		return limit <= 0 || len(results) < limit
	})

	return results
}

func parseListing(card *goquery.Selection) (domain.Candidate, bool) {
	name := firstText(card, nameSelector)
	if name == "" {
		return nil, false
	}

	address := ""
	for _, selector := range addressSelectors {
		if text := firstText(card, selector); text != "" {
			address = text
			break
		}
	}

	website, status := listingWebsite(card)

	return domain.Candidate{
		domain.FieldName:          name,
		domain.FieldAddress:       address,
		domain.FieldPhone:         listingPhone(card),
		domain.FieldWebsite:       website,
		domain.FieldWebsiteStatus: status,
		domain.FieldRating:        firstText(card, ratingSelector),
		domain.FieldVotes:         firstText(card, votesSelector),
	}, true
}

func listingPhone(card *goquery.Selection) string {
	if phone := firstMatching(card.Find(phoneSelector)); phone != "" {
		return phone
	}
	return firstMatching(card.Find("*"))
}

func firstMatching(sel *goquery.Selection) string {
	var phone string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if phoneExpr.MatchString(text) {
			phone = text
			return false
		}
		return true
	})
	return phone
}

func listingWebsite(card *goquery.Selection) (string, string) {
	website := ""
	card.Find(`a[href*="http"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		lower := strings.ToLower(href)
		if href == "" ||
			strings.Contains(lower, "justdial") ||
			strings.Contains(lower, "tel:") ||
			strings.Contains(lower, "mailto:") ||
			strings.HasPrefix(lower, "javascript:") {
			return true
		}
		website = href
		return false
	})

	if website == "" {
		return "", websiteUnknown
	}
	return website, websiteOnline
}

func firstText(sel *goquery.Selection, selector string) string {
	return strings.TrimSpace(sel.Find(selector).First().Text())
}
