// Package browser renders the live results page with a headless Chrome
// driven through go-rod.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
	"github.com/riskibarqy/livescore-sync/internal/usecase"
)

const (
	viewportWidth   = 1920
	viewportHeight  = 1080
	selectorTimeout = 3 * time.Second
	settleTimeout   = 5 * time.Second
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// target is a CSS selector, optionally narrowed to elements whose text
// matches Text (a JS regular expression).
type target struct {
	CSS  string
	Text string
}

var cookieTargets = []target{
	{CSS: "#onetrust-accept-btn-handler"},
	{CSS: "button", Text: "^\\s*Aceito\\s*$"},
	{CSS: "button", Text: "^\\s*Accept"},
	{CSS: "[data-testid*='accept']"},
	{CSS: ".cookie-consent button"},
	{CSS: "button[id*='accept']"},
}

var liveTabTargets = []target{
	{CSS: `div.filters__tab[data-analytics-alias="live"]`},
	{CSS: ".filters__tab", Text: "Ao Vivo"},
	{CSS: "a", Text: "Ao Vivo"},
	{CSS: "button", Text: "Ao Vivo"},
	{CSS: "[href*='ao-vivo']"},
}

type Config struct {
	URL         string
	RemoteURL   string
	Bin         string
	Headless    bool
	PageTimeout time.Duration
	// SnapshotDir, when set, receives an HTML snapshot and a full-page
	// screenshot per fetch.
	SnapshotDir string
}

// PageSource implements usecase.PageSource. The browser is started on the
// first Fetch and reused until Close.
type PageSource struct {
	cfg    Config
	logger *logging.Logger
	now    func() time.Time

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

func NewPageSource(cfg Config, logger *logging.Logger) (*PageSource, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("browser: page url is required")
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 45 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PageSource{
		cfg:    cfg,
		logger: logger.Named("browser"),
		now:    time.Now,
	}, nil
}

// Fetch opens a fresh stealth tab, accepts the cookie banner, switches to
// the live tab and returns the rendered document.
func (s *PageSource) Fetch(ctx context.Context) (usecase.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.connect(ctx)
	if err != nil {
		return usecase.Page{}, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return usecase.Page{}, fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	pageCtx, cancel := context.WithTimeout(ctx, s.cfg.PageTimeout)
	defer cancel()
	page = page.Context(pageCtx)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  viewportWidth,
		Height: viewportHeight,
	}); err != nil {
		s.logger.WarnContext(ctx, "browser: set viewport failed", "error", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		s.logger.WarnContext(ctx, "browser: set user agent failed", "error", err)
	}

	if err := page.Navigate(s.cfg.URL); err != nil {
		return usecase.Page{}, fmt.Errorf("browser: navigate %s: %w", s.cfg.URL, err)
	}
	if err := page.WaitLoad(); err != nil {
		s.logger.WarnContext(ctx, "browser: wait load timeout", "url", s.cfg.URL, "error", err)
	}

	if s.clickFirst(page, cookieTargets) {
		s.logger.DebugContext(ctx, "browser: cookies accepted")
	} else {
		s.logger.DebugContext(ctx, "browser: cookie banner not found")
	}
	if s.clickFirst(page, liveTabTargets) {
		s.settle(page)
		s.logger.DebugContext(ctx, "browser: live tab opened")
	} else {
		s.logger.WarnContext(ctx, "browser: live tab not found, using default listing")
	}

	html, err := page.HTML()
	if err != nil {
		return usecase.Page{}, fmt.Errorf("browser: read document: %w", err)
	}
	fetchedAt := s.now()

	if s.cfg.SnapshotDir != "" {
		if err := s.snapshot(page, []byte(html), fetchedAt); err != nil {
			s.logger.WarnContext(ctx, "browser: snapshot failed", "error", err)
		}
	}

	return usecase.Page{
		HTML:      []byte(html),
		URL:       s.cfg.URL,
		FetchedAt: fetchedAt,
	}, nil
}

// Close shuts the browser down.
func (s *PageSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return err
}

func (s *PageSource) connect(ctx context.Context) (*rod.Browser, error) {
	if s.browser != nil {
		return s.browser, nil
	}

	controlURL := s.cfg.RemoteURL
	if controlURL == "" {
		l := launcher.New().
			Headless(s.cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")
		if s.cfg.Bin != "" {
			l = l.Bin(s.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		controlURL = u
		s.lnch = l
		s.logger.InfoContext(ctx, "browser: launched local chrome", "headless", s.cfg.Headless)
	} else {
		s.logger.InfoContext(ctx, "browser: connecting to remote", "url", controlURL)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if s.lnch != nil {
			s.lnch.Cleanup()
			s.lnch = nil
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b
	return b, nil
}

// clickFirst clicks the first target present on the page. Each target is
// given a short wait so missing banners do not stall the fetch.
func (s *PageSource) clickFirst(page *rod.Page, targets []target) bool {
	for _, t := range targets {
		scoped := page.Timeout(selectorTimeout)
		var (
			el  *rod.Element
			err error
		)
		if t.Text == "" {
			el, err = scoped.Element(t.CSS)
		} else {
			el, err = scoped.ElementR(t.CSS, t.Text)
		}
		if err != nil {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			s.logger.Debug("browser: click failed", "selector", t.CSS, "error", err)
			continue
		}
		return true
	}
	return false
}

func (s *PageSource) settle(page *rod.Page) {
	if err := page.Timeout(settleTimeout).WaitIdle(settleTimeout); err != nil {
		s.logger.Debug("browser: page did not go idle", "error", err)
	}
}

func (s *PageSource) snapshot(page *rod.Page, html []byte, at time.Time) error {
	htmlPath, pngPath := SnapshotPaths(s.cfg.SnapshotDir, at)
	if err := os.MkdirAll(s.cfg.SnapshotDir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return fmt.Errorf("write html snapshot: %w", err)
	}

	shot, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.WriteFile(pngPath, shot, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

// SnapshotPaths names the HTML and PNG files written for one fetch.
func SnapshotPaths(dir string, at time.Time) (string, string) {
	stamp := at.UTC().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, "page_"+stamp+".html"), filepath.Join(dir, "page_"+stamp+".png")
}
