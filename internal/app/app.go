package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"ListingScanner/internal/config"
	"ListingScanner/internal/domain"
	"ListingScanner/internal/infrastructure/browser"
	"ListingScanner/internal/infrastructure/export"
	"ListingScanner/internal/infrastructure/parser"
	"ListingScanner/internal/infrastructure/storage"
	"ListingScanner/internal/logging"
	"ListingScanner/internal/ports"
	"ListingScanner/internal/scanner"
	"ListingScanner/internal/usecase"
)

// Application wires configs to use cases and owns every opened resource.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	repos     []*storage.Repository
	browser   *browser.Session
	collector *usecase.Collector
	catalog   *usecase.Catalog
	exporters map[string]ports.Exporter
}

// New opens one store per source and builds the use cases on top of them.
// Chrome is not started until the first scrape.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{
		cfg:    cfg,
		logger: baseLogger,
		exporters: map[string]ports.Exporter{
			export.CSVExporter{}.Format():  export.CSVExporter{},
			export.XLSXExporter{}.Format(): export.XLSXExporter{},
		},
	}

	var (
		ingestors []*usecase.Ingestor
		repos     []ports.ListingRepository
	)
	for _, source := range domain.Sources() {
		repo, err := storage.Open(ctx, source, storageOptions(cfg.Storage, source))
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("open %s store: %w", source, err)
		}
		a.repos = append(a.repos, repo)
		repos = append(repos, repo)

		ingestors = append(ingestors, usecase.NewIngestor(usecase.IngestorDeps{
			Repository: repo,
			Logger:     baseLogger.With("component", "ingestor."+string(source)),
		}))
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewMapsScanner(cfg.Browser.PageDelay, cfg.Browser.ScrollWait, baseLogger.With("component", "scanner.maps")))
	registry.Register(parser.NewJustDialScanner(cfg.Browser.ScrollWait, baseLogger.With("component", "scanner.justdial")))

	a.browser = browser.NewSession(browser.Config{
		RemoteURL:         cfg.Browser.RemoteURL,
		Headless:          cfg.Browser.Headless,
		Stealth:           cfg.Browser.Stealth,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		Logger:            baseLogger.With("component", "browser"),
	})

	a.collector = usecase.NewCollector(usecase.CollectorDeps{
		Registry:  registry,
		Browser:   a.browser,
		Ingestors: ingestors,
		Logger:    baseLogger.With("component", "collector"),
	})
	a.catalog = usecase.NewCatalog(repos...)

	return a, nil
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config { return a.cfg }

// Logger returns the root logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Collector returns the scrape and import workflow.
func (a *Application) Collector() *usecase.Collector { return a.collector }

// Catalog returns the read side.
func (a *Application) Catalog() *usecase.Catalog { return a.catalog }

// Exporter looks up an exporter by format name.
func (a *Application) Exporter(format string) (ports.Exporter, error) {
	e, ok := a.exporters[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q (want one of %s)", format, strings.Join(a.Formats(), ", "))
	}
	return e, nil
}

// Formats lists the supported export formats.
func (a *Application) Formats() []string {
	formats := make([]string, 0, len(a.exporters))
	for f := range a.exporters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Close releases the browser and every store.
func (a *Application) Close() error {
	var errs []error
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	for _, repo := range a.repos {
		if err := repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s store: %w", repo.Source(), err))
		}
	}
	a.repos = nil
	return errors.Join(errs...)
}

func storageOptions(cfg config.StorageConfig, source domain.Source) storage.Options {
	opts := storage.Options{Driver: cfg.Driver, DataDir: cfg.DataDir}
	switch source {
	case domain.SourceMaps:
		opts.DSN = cfg.MapsDSN
	case domain.SourceJustDial:
		opts.DSN = cfg.JustDialDSN
	}
	return opts
}
