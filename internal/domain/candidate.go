package domain

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Candidate field names produced by extractors and JSON batches.
const (
	FieldName          = "name"
	FieldAddress       = "address"
	FieldPhone         = "phone"
	FieldWebsite       = "website"
	FieldWebsiteStatus = "website_status"
	FieldRating        = "rating"
	FieldVotes         = "votes"
)

// placeholder is what the page extractors emit for a missing value.
const placeholder = "N/A"

var (
	decimalExpr = regexp.MustCompile(`\d+(?:\.\d+)?`)
	countExpr   = regexp.MustCompile(`\d[\d,]*`)
)

// Candidate is a raw record as extracted from a page, keyed by field name.
type Candidate map[string]any

// Text returns the trimmed textual value of field, or "" when missing or a placeholder.
func (c Candidate) Text(field string) string {
	raw, ok := c[field]
	if !ok || raw == nil {
		return ""
	}

	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return ""
	}

	s = strings.TrimSpace(s)
	if strings.EqualFold(s, placeholder) {
		return ""
	}
	return s
}

// OptionalText is Text that maps "" to nil.
func (c Candidate) OptionalText(field string) *string {
	s := c.Text(field)
	if s == "" {
		return nil
	}
	return &s
}

// Float extracts the first decimal number of field ("4.3", "4.3 stars", 4.3).
func (c Candidate) Float(field string) *float64 {
	switch v := c[field].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	case int:
		f := float64(v)
		return &f
	}

	match := decimalExpr.FindString(c.Text(field))
	if match == "" {
		return nil
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Int extracts the first grouped integer of field ("1,234 Ratings", 1234).
func (c Candidate) Int(field string) *int64 {
	switch v := c[field].(type) {
	case float64:
		if math.IsNaN(v) || v < 0 || v >= math.MaxInt64 {
			return nil
		}
		n := int64(v)
		return &n
	case int:
		if v < 0 {
			return nil
		}
		n := int64(v)
		return &n
	case int64:
		if v < 0 {
			return nil
		}
		return &v
	}

	match := countExpr.FindString(c.Text(field))
	if match == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(match, ",", ""), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
