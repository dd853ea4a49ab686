package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/riskibarqy/livescore-sync/internal/config"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
)

func TestStartProfiling_Disabled(t *testing.T) {
	p, err := StartProfiling(config.Config{}, logging.NewNop())
	if err != nil {
		t.Fatalf("start profiling: %v", err)
	}
	if p.pprof != nil || p.profiler != nil {
		t.Fatalf("expected nothing started")
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	var nilProfiling *Profiling
	if err := nilProfiling.Stop(context.Background()); err != nil {
		t.Fatalf("stop nil: %v", err)
	}
}

func TestStartProfiling_PprofListens(t *testing.T) {
	p, err := StartProfiling(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}, logging.NewNop())
	if err != nil {
		t.Fatalf("start profiling: %v", err)
	}
	defer func() { _ = p.Stop(context.Background()) }()

	if p.pprof == nil {
		t.Fatalf("expected pprof server")
	}
}

func TestPprofMux_ServesIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	pprofMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "goroutine") {
		t.Fatalf("expected profile index")
	}
}

func TestProfileTags(t *testing.T) {
	tags := profileTags(config.Config{AppEnv: "prod", ServiceName: "livescore-sync", ServiceVersion: "1.2.0", StoreDriver: "postgres"})
	if tags["store"] != "postgres" || tags["version"] != "1.2.0" {
		t.Fatalf("unexpected tags %v", tags)
	}
}
