package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/livescore-sync/internal/config"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
)

func TestMemoryStoresRunCycle(t *testing.T) {
	stores := NewMemoryStores()
	defer stores.Close()

	cfg := config.Config{ScraperBaseURL: "https://www.flashscore.pt", ScraperLocation: time.UTC}
	svc, err := NewScrapeService(cfg, stores, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("build scrape service: %v", err)
	}

	doc, err := os.ReadFile(filepath.Join("..", "extraction", "testdata", "live.html"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	ref := time.Date(2026, 10, 19, 15, 40, 0, 0, time.UTC)
	if _, err := svc.RunCycle(context.Background(), doc, ref); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	stored, ok, err := stores.Matches.GetBySourceID(context.Background(), "KMICP6x0")
	if err != nil || !ok {
		t.Fatalf("expected stored match, ok=%v err=%v", ok, err)
	}
	if !stored.IsLive || stored.HomeTeamName != "Kairat Almaty" {
		t.Fatalf("unexpected stored match %+v", stored)
	}
}

func TestOpenStores_UnknownDriver(t *testing.T) {
	if _, err := OpenStores(context.Background(), config.Config{StoreDriver: "sqlite"}, nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestNewHTTPServer(t *testing.T) {
	cfg := config.Config{HTTPAddr: ":0", CacheTTL: time.Second, LogoEnabled: true, LogoDir: t.TempDir()}
	srv, err := NewHTTPServer(cfg, NewMemoryStores(), logging.NewNop())
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}
	if srv.Handler == nil {
		t.Fatalf("expected router to be set")
	}

	cfg.HTTPAddr = ""
	if _, err := NewHTTPServer(cfg, NewMemoryStores(), logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
