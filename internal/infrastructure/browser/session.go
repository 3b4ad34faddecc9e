// Package browser drives a Chrome instance through Rod for the scan
// strategies: one tab, navigated sequentially.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"ListingScanner/internal/ports"
	"ListingScanner/pkg/logger"
)

// Config configures the browser session.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local Chrome.
	RemoteURL string

	Headless bool

	// Stealth opens the tab through go-rod/stealth instead of a plain target.
	Stealth bool

	// NavigationTimeout bounds each Navigate call. Default: 30s.
	NavigationTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// Session is a lazily started single-tab browser.
type Session struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
	closed  bool
}

var _ ports.Browser = (*Session)(nil)

// NewSession creates a Session. Chrome starts on the first navigation.
func NewSession(cfg Config) *Session {
	cfg.defaults()
	return &Session{cfg: cfg}
}

// Navigate loads pageURL in the session tab and waits for the load event.
func (s *Session) Navigate(ctx context.Context, pageURL string) error {
	page, err := s.tab(ctx)
	if err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}

	if err := page.Context(navCtx).WaitLoad(); err != nil {
		s.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	return nil
}

// ScrollToBottom scrolls the document so lazy result lists load more entries.
func (s *Session) ScrollToBottom(ctx context.Context) error {
	page, err := s.tab(ctx)
	if err != nil {
		return err
	}

	if _, err := page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		return fmt.Errorf("browser: scroll: %w", err)
	}
	return nil
}

// HTML serialises the current DOM as outer HTML.
func (s *Session) HTML(ctx context.Context) (string, error) {
	page, err := s.tab(ctx)
	if err != nil {
		return "", err
	}

	res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return res.Value.Str(), nil
}

// Close shuts the tab, the browser and any launched Chrome process.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	var firstErr error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			firstErr = err
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return firstErr
}

func (s *Session) tab(ctx context.Context) (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("browser: session is closed")
	}
	if s.page != nil {
		return s.page, nil
	}

	if s.browser == nil {
		b, err := s.launch(ctx)
		if err != nil {
			return nil, err
		}
		s.browser = b
	}

	var (
		page *rod.Page
		err  error
	)
	if s.cfg.Stealth {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	s.page = page
	return page, nil
}

func (s *Session) launch(ctx context.Context) (*rod.Browser, error) {
	log := s.cfg.Logger

	wsURL := s.cfg.RemoteURL
	if wsURL != "" {
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().
			Context(ctx).
			Headless(s.cfg.Headless).
			Logger(logger.NewWriter(log.With("stream", "chrome"), slog.LevelDebug))
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "headless", s.cfg.Headless)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	return b, nil
}
