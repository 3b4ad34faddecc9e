package domain

import (
	"strconv"
	"time"
)

// Columns returns the fixed export column order for a source.
func Columns(source Source) []string {
	if source.RatingBearing() {
		return []string{"name", "address", "phone", "website", "website_status", "rating", "votes", "keyword", "location", "scraped_at"}
	}
	return []string{"name", "address", "phone", "website", "keyword", "location", "scraped_at"}
}

// Row renders r in Columns(source) order; missing values become empty strings.
func (r Record) Row(source Source) []string {
	row := []string{r.Name, r.Address, deref(r.Phone), deref(r.Website)}
	if source.RatingBearing() {
		row = append(row, deref(r.WebsiteStatus), formatRating(r.Rating), formatVotes(r.Votes))
	}

	scraped := ""
	if !r.ScrapedAt.IsZero() {
		scraped = r.ScrapedAt.UTC().Format(time.RFC3339)
	}
	return append(row, r.Keyword, r.Location, scraped)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatRating(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatVotes(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
