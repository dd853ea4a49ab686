// Package logocache downloads league and team crests to local disk and
// records the served path on the owning entity.
package logocache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
	"github.com/riskibarqy/livescore-sync/internal/platform/resilience"
	"github.com/riskibarqy/livescore-sync/internal/usecase"
)

const (
	defaultExt     = ".png"
	publicPrefix   = "/images"
	maxLogoBytes   = 2 << 20
	defaultWorkers = 4
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// LogoUpdater stores the served logo path on a league or team.
type LogoUpdater interface {
	UpdateLogo(ctx context.Context, id, logoURL string) error
}

type Config struct {
	Dir     string
	Workers int
	Timeout time.Duration
	Circuit resilience.CircuitBreakerConfig
}

// Cache implements usecase.LogoFetcher. Downloads run on an ants pool in
// the background; Close waits for everything already enqueued.
type Cache struct {
	dir     string
	timeout time.Duration
	client  *http.Client
	pool    *ants.Pool
	breaker *resilience.HostBreaker
	leagues LogoUpdater
	teams   LogoUpdater
	logger  *logging.Logger

	batches conc.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
}

func New(cfg Config, client *http.Client, leagues, teams LogoUpdater, logger *logging.Logger) (*Cache, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("logo dir is required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create logo worker pool: %w", err)
	}

	c := &Cache{
		dir:      cfg.Dir,
		timeout:  cfg.Timeout,
		client:   client,
		pool:     pool,
		breaker:  resilience.NewHostBreaker("logo-download", cfg.Circuit),
		leagues:  leagues,
		teams:    teams,
		logger:   logger.Named("logocache"),
		inflight: make(map[string]struct{}),
	}
	c.breaker.OnStateChange(func(host string, from, to resilience.State) {
		c.logger.Warn("logo circuit changed", "host", host, "from", from.String(), "to", to.String())
	})
	return c, nil
}

// Enqueue schedules downloads and returns immediately. Requests already in
// flight for the same entity are dropped.
func (c *Cache) Enqueue(ctx context.Context, requests []usecase.LogoRequest) {
	pending := c.claim(requests)
	if len(pending) == 0 {
		return
	}
	c.batches.Go(func() {
		c.runBatch(ctx, pending)
	})
}

// Close waits for enqueued downloads and releases the pool.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.batches.Wait()
	c.pool.Release()
}

func (c *Cache) claim(requests []usecase.LogoRequest) []usecase.LogoRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	out := make([]usecase.LogoRequest, 0, len(requests))
	for _, r := range requests {
		key := string(r.Kind) + "/" + r.EntityID
		if _, busy := c.inflight[key]; busy {
			continue
		}
		c.inflight[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (c *Cache) release(r usecase.LogoRequest) {
	c.mu.Lock()
	delete(c.inflight, string(r.Kind)+"/"+r.EntityID)
	c.mu.Unlock()
}

func (c *Cache) runBatch(ctx context.Context, requests []usecase.LogoRequest) {
	var workers sync.WaitGroup
	for _, r := range requests {
		r := r
		workers.Add(1)
		if err := c.pool.Submit(func() {
			defer workers.Done()
			defer c.release(r)
			if err := c.store(ctx, r); err != nil {
				c.logger.WarnContext(ctx, "logo fetch failed",
					"kind", string(r.Kind),
					"entity_id", r.EntityID,
					"source_url", r.SourceURL,
					"error", err,
				)
			}
		}); err != nil {
			workers.Done()
			c.release(r)
			c.logger.WarnContext(ctx, "submit logo task failed", "entity_id", r.EntityID, "error", err)
		}
	}
	workers.Wait()
}

func (c *Cache) store(ctx context.Context, r usecase.LogoRequest) error {
	updater := c.updaterFor(r.Kind)
	if updater == nil {
		return fmt.Errorf("unknown logo kind %q", r.Kind)
	}

	file, err := FileName(r.Name, r.SourceURL)
	if err != nil {
		return err
	}
	folder := string(r.Kind)
	target := filepath.Join(c.dir, folder, file)

	if _, err := os.Stat(target); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("stat %s: %w", target, err)
		}
		err := c.breaker.Execute(ctx, hostOf(r.SourceURL), func(ctx context.Context) error {
			return c.download(ctx, r.SourceURL, target)
		})
		if err != nil {
			return err
		}
		c.logger.DebugContext(ctx, "logo downloaded", "source_url", r.SourceURL, "path", target)
	}

	if err := updater.UpdateLogo(ctx, r.EntityID, PublicPath(folder, file)); err != nil {
		return fmt.Errorf("update %s logo: %w", folder, err)
	}
	return nil
}

func (c *Cache) updaterFor(kind usecase.LogoKind) LogoUpdater {
	switch kind {
	case usecase.LogoKindLeague:
		return c.leagues
	case usecase.LogoKindTeam:
		return c.teams
	default:
		return nil
	}
}

func (c *Cache) download(ctx context.Context, sourceURL, target string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("build logo request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: unexpected status %d", sourceURL, resp.StatusCode)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	n, err := buf.ReadFrom(io.LimitReader(resp.Body, maxLogoBytes+1))
	if err != nil {
		return fmt.Errorf("read %s: %w", sourceURL, err)
	}
	if n == 0 {
		return fmt.Errorf("get %s: empty body", sourceURL)
	}
	if n > maxLogoBytes {
		return fmt.Errorf("get %s: logo larger than %d bytes", sourceURL, maxLogoBytes)
	}

	return writeFileAtomic(target, buf.B)
}

func writeFileAtomic(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create logo dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".logo-*")
	if err != nil {
		return fmt.Errorf("create temp logo: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write logo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close logo: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("move logo into place: %w", err)
	}
	return nil
}

// FileName builds "<safe-name>-<crest hash><ext>" for a logo. The hash is
// taken over the source URL so two entities sharing a display name, such as
// leagues called "Premier League" in different countries, never share a
// file. The extension comes from the source URL path and defaults to .png.
func FileName(name, sourceURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil {
		return "", fmt.Errorf("parse logo url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("logo url %q is not absolute http(s)", sourceURL)
	}

	ext := strings.ToLower(path.Ext(parsed.Path))
	if ext == "" || len(ext) > 5 {
		ext = defaultExt
	}

	safe := safeName(name)
	if safe == "" {
		return "", fmt.Errorf("logo name %q has no usable characters", name)
	}
	return fmt.Sprintf("%s-%08x%s", safe, uint32(xxhash.Sum64String(parsed.String())), ext), nil
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// PublicPath is the path the API serves a stored logo under.
func PublicPath(folder, file string) string {
	return publicPrefix + "/" + folder + "/" + file
}

func safeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
