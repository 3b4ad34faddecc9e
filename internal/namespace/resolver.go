// Package namespace derives stable storage namespace identifiers from search
// descriptors.
//
// A keyword/location pair is folded, joined with the source name and reduced
// to the alphabet [a-z0-9_]. The reduction is lossy by rule: any run of
// punctuation or whitespace becomes underscores, so ("a b", "c") and
// ("a", "b c") share a namespace. URL descriptors always carry a hash suffix
// of the full URL, so two distinct URLs never share one. Identifiers longer
// than MaxLength are truncated and suffixed with a hash of the unsanitised
// descriptor.
package namespace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ListingScanner/internal/domain"
	"ListingScanner/internal/normalize"
)

const (
	// MaxLength keeps identifiers within the Postgres identifier limit.
	MaxLength = 63

	separator = "_"
	hashLen   = 8
)

// Resolve maps a keyword/location search onto its namespace.
func Resolve(source domain.Source, keyword, location string) (domain.Namespace, error) {
	if err := checkSource(source); err != nil {
		return domain.Namespace{}, err
	}

	keyword = strings.TrimSpace(keyword)
	location = strings.TrimSpace(location)
	if keyword == "" || location == "" {
		return domain.Namespace{}, fmt.Errorf("%w: keyword and location are required", domain.ErrInvalidQuery)
	}

	descriptor := string(source) + separator + normalize.Fold(keyword) + separator + normalize.Fold(location)

	return domain.Namespace{
		ID:       bound(sanitize(descriptor), descriptor),
		Source:   source,
		Keyword:  keyword,
		Location: location,
	}, nil
}

// ResolveURL maps a direct source URL onto its namespace. The URL is used
// verbatim as the descriptor and must point at the source's own host.
func ResolveURL(source domain.Source, rawURL string) (domain.Namespace, error) {
	if err := checkSource(source); err != nil {
		return domain.Namespace{}, err
	}

	parsed, err := parseURL(rawURL)
	if err != nil {
		return domain.Namespace{}, err
	}
	if !hostAllowed(source, parsed.Hostname()) {
		return domain.Namespace{}, fmt.Errorf("%w: %s is not a %s url", domain.ErrInvalidQuery, parsed.Host, source)
	}

	verbatim := strings.TrimSpace(rawURL)
	slug := sanitize(strings.ToLower(parsed.Host + parsed.Path))
	id := bound(string(source)+separator+"url"+separator+slug+separator+shortHash(verbatim), verbatim)

	keyword, location := DescriptorFromURL(source, verbatim)

	return domain.Namespace{
		ID:       id,
		Source:   source,
		Keyword:  keyword,
		Location: location,
		URL:      verbatim,
	}, nil
}

// DescriptorFromURL guesses keyword and location from a source URL.
//
// JustDial paths read /<location>/<keyword>[/...]; Maps search paths read
// /maps/search/<keyword>+in+<location>. Both values are empty when the URL
// does not follow its source's layout.
func DescriptorFromURL(source domain.Source, rawURL string) (keyword, location string) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", ""
	}

	switch source {
	case domain.SourceJustDial:
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return "", ""
		}
		title := cases.Title(language.Und)
		location = title.String(strings.ReplaceAll(parts[0], "-", " "))
		keyword = title.String(strings.ReplaceAll(parts[1], "-", " "))
		return keyword, location

	case domain.SourceMaps:
		parts := strings.Split(strings.Trim(parsed.EscapedPath(), "/"), "/")
		for i := 0; i+2 < len(parts); i++ {
			if parts[i] == "maps" && parts[i+1] == "search" {
				return splitMapsQuery(parts[i+2])
			}
		}
	}
	return "", ""
}

// splitMapsQuery splits "coffee+in+new+york" at its last " in ".
func splitMapsQuery(segment string) (keyword, location string) {
	query, err := url.PathUnescape(strings.ReplaceAll(segment, "+", " "))
	if err != nil {
		return "", ""
	}
	words := strings.Fields(query)

	for i := len(words) - 2; i > 0; i-- {
		if strings.EqualFold(words[i], "in") {
			return strings.Join(words[:i], " "), strings.Join(words[i+1:], " ")
		}
	}
	return strings.Join(words, " "), ""
}

// hostAllowed reports whether host belongs to source: justdial.com and its
// subdomains, or any google.<tld> host (and the maps.app.goo.gl short links).
func hostAllowed(source domain.Source, host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	switch source {
	case domain.SourceJustDial:
		return host == "justdial.com" || strings.HasSuffix(host, ".justdial.com")
	case domain.SourceMaps:
		if host == "maps.app.goo.gl" || host == "goo.gl" {
			return true
		}
		for _, label := range strings.Split(host, ".") {
			if label == "google" {
				return true
			}
		}
	}
	return false
}

// SourceOf recovers the source an identifier was resolved for.
func SourceOf(id string) (domain.Source, bool) {
	for _, s := range domain.Sources() {
		if strings.HasPrefix(id, string(s)+separator) {
			return s, true
		}
	}
	return "", false
}

func parseURL(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty url", domain.ErrInvalidQuery)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported url scheme %q", domain.ErrInvalidQuery, parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: url has no host", domain.ErrInvalidQuery)
	}
	return parsed, nil
}

func checkSource(source domain.Source) error {
	for _, s := range domain.Sources() {
		if s == source {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownSource, source)
}

// sanitize replaces every rune outside [a-z0-9_] with an underscore.
func sanitize(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// bound truncates id to MaxLength, appending a hash of descriptor when it cuts.
func bound(id, descriptor string) string {
	if len(id) <= MaxLength {
		return id
	}
	suffix := separator + shortHash(descriptor)
	return id[:MaxLength-len(suffix)] + suffix
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:hashLen]
}
