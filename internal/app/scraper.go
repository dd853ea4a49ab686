package app

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/livescore-sync/internal/config"
	"github.com/riskibarqy/livescore-sync/internal/extraction"
	"github.com/riskibarqy/livescore-sync/internal/infrastructure/browser"
	"github.com/riskibarqy/livescore-sync/internal/infrastructure/logocache"
	"github.com/riskibarqy/livescore-sync/internal/platform/id"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
	"github.com/riskibarqy/livescore-sync/internal/usecase"
)

// Scraper is the assembled pipeline plus the collaborators that need
// shutting down.
type Scraper struct {
	Service *usecase.ScrapeService
	Runner  *usecase.Runner

	source *browser.PageSource
	logos  *logocache.Cache
}

// NewScrapeService builds the core pipeline. logos may be nil.
func NewScrapeService(cfg config.Config, stores *Stores, logos usecase.LogoFetcher, logger *logging.Logger) (*usecase.ScrapeService, error) {
	extractor, err := extraction.New(cfg.ScraperBaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("build extractor: %w", err)
	}

	return usecase.NewScrapeService(
		extractor,
		usecase.NewNormalizer(cfg.ScraperLocation),
		stores.Leagues,
		stores.Teams,
		stores.Matches,
		stores.Guard,
		id.NewRandomGenerator(),
		logos,
		logger,
	), nil
}

// NewScraper wires the browser, logo cache and runner around the pipeline.
func NewScraper(cfg config.Config, stores *Stores, logger *logging.Logger) (*Scraper, error) {
	out := &Scraper{}

	var logos usecase.LogoFetcher
	if cfg.LogoEnabled {
		cache, err := logocache.New(logocache.Config{
			Dir:     cfg.LogoDir,
			Workers: cfg.LogoWorkers,
			Timeout: cfg.LogoTimeout,
			Circuit: cfg.LogoCircuit,
		}, &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}, stores.Leagues, stores.Teams, logger)
		if err != nil {
			return nil, err
		}
		out.logos = cache
		logos = cache
	}

	service, err := NewScrapeService(cfg, stores, logos, logger)
	if err != nil {
		out.Close()
		return nil, err
	}

	source, err := browser.NewPageSource(browser.Config{
		URL:         cfg.ScraperURL,
		RemoteURL:   cfg.BrowserRemoteURL,
		Bin:         cfg.BrowserBin,
		Headless:    cfg.BrowserHeadless,
		PageTimeout: cfg.BrowserPageTimeout,
		SnapshotDir: cfg.BrowserScreenshotDir,
	}, logger)
	if err != nil {
		out.Close()
		return nil, err
	}
	out.source = source

	interval := cfg.ScraperInterval
	if !cfg.ScraperRepeatEnabled {
		interval = 0
	}
	out.Service = service
	out.Runner = usecase.NewRunner(source, service, interval, logger)
	return out, nil
}

// Close stops the browser and waits for pending logo downloads.
func (s *Scraper) Close() {
	if s.source != nil {
		_ = s.source.Close()
	}
	if s.logos != nil {
		s.logos.Close()
	}
}
