package browser

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewPageSource_RequiresURL(t *testing.T) {
	if _, err := NewPageSource(Config{URL: "  "}, nil); err == nil {
		t.Fatalf("expected error for empty url")
	}

	src, err := NewPageSource(Config{URL: "https://www.flashscore.pt/"}, nil)
	if err != nil {
		t.Fatalf("new page source: %v", err)
	}
	if src.cfg.PageTimeout != 45*time.Second {
		t.Fatalf("expected default page timeout, got %s", src.cfg.PageTimeout)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("close unused source: %v", err)
	}
}

func TestSnapshotPaths(t *testing.T) {
	at := time.Date(2026, 10, 19, 15, 40, 5, 0, time.FixedZone("WEST", 3600))

	htmlPath, pngPath := SnapshotPaths("outputs/snapshots", at)

	if htmlPath != filepath.Join("outputs/snapshots", "page_2026-10-19_14-40-05.html") {
		t.Fatalf("unexpected html path %q", htmlPath)
	}
	if pngPath != filepath.Join("outputs/snapshots", "page_2026-10-19_14-40-05.png") {
		t.Fatalf("unexpected png path %q", pngPath)
	}
}

func TestTargetsCoverConsentAndLiveTab(t *testing.T) {
	if cookieTargets[0].CSS != "#onetrust-accept-btn-handler" {
		t.Fatalf("expected OneTrust handler to be tried first")
	}
	if liveTabTargets[0].CSS != `div.filters__tab[data-analytics-alias="live"]` {
		t.Fatalf("expected live filter tab to be tried first")
	}
}
