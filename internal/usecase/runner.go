package usecase

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
)

// ErrCycleInProgress is returned when a cycle is requested while another
// one is still running in this process.
var ErrCycleInProgress = crerr.New("scrape cycle already in progress")

// Page is one rendered document handed over by the browser.
type Page struct {
	HTML      []byte
	URL       string
	FetchedAt time.Time
}

// PageSource renders the live results page.
type PageSource interface {
	Fetch(ctx context.Context) (Page, error)
}

// Runner drives scrape cycles, once or on an interval.
type Runner struct {
	source   PageSource
	service  *ScrapeService
	interval time.Duration
	logger   *logging.Logger

	mu sync.Mutex
}

func NewRunner(source PageSource, service *ScrapeService, interval time.Duration, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		source:   source,
		service:  service,
		interval: interval,
		logger:   logger.Named("runner"),
	}
}

// RunOnce fetches one page and runs one cycle. Overlapping calls fail fast
// with ErrCycleInProgress rather than queueing.
func (r *Runner) RunOnce(ctx context.Context) (CycleReport, error) {
	if !r.mu.TryLock() {
		return CycleReport{}, ErrCycleInProgress
	}
	defer r.mu.Unlock()

	ctx, span := tracer.Start(ctx, "usecase.Runner.RunOnce")
	defer span.End()

	page, err := r.source.Fetch(ctx)
	if err != nil {
		return CycleReport{}, crerr.Mark(crerr.Wrap(err, "fetch page"), ErrDependencyUnavailable)
	}
	ref := page.FetchedAt
	if ref.IsZero() {
		ref = r.service.now()
	}
	return r.service.RunCycle(ctx, page.HTML, ref)
}

// Run executes a cycle immediately, then every interval until ctx ends.
// Cycle failures are logged and the loop waits for the next tick. With a
// non-positive interval Run performs a single cycle and returns its error.
func (r *Runner) Run(ctx context.Context) error {
	if r.interval <= 0 {
		_, err := r.RunOnce(ctx)
		return err
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	report, err := r.RunOnce(ctx)
	switch {
	case err == nil:
		return
	case ctx.Err() != nil:
		return
	case crerr.Is(err, ErrCycleInProgress):
		r.logger.WarnContext(ctx, "previous cycle still running, skipping tick")
	default:
		r.logger.ErrorContext(ctx, "scrape cycle failed",
			"error", err,
			"extraction", crerr.Is(err, ErrExtraction),
			"persistence", crerr.Is(err, ErrPersistence),
			"fragments", report.Fragments,
		)
	}
}
