package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ListingScanner/internal/ports"
)

// loadDocument navigates to pageURL, scrolls the requested number of times
// and parses the resulting DOM.
func loadDocument(ctx context.Context, browser ports.Browser, pageURL string, scrolls int, scrollWait time.Duration) (*goquery.Document, error) {
	if browser == nil {
		return nil, fmt.Errorf("browser is not configured")
	}

	if err := browser.Navigate(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	for i := 0; i < scrolls; i++ {
		if err := browser.ScrollToBottom(ctx); err != nil {
			return nil, fmt.Errorf("scroll %s: %w", pageURL, err)
		}
		if err := sleep(ctx, scrollWait); err != nil {
			return nil, err
		}
	}

	html, err := browser.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read dom %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
