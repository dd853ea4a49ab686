package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/livescore-sync/internal/domain/league"
	"github.com/riskibarqy/livescore-sync/internal/domain/match"
	"github.com/riskibarqy/livescore-sync/internal/domain/team"
	"github.com/riskibarqy/livescore-sync/internal/platform/id"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
)

// FragmentExtractor parses one rendered page.
type FragmentExtractor interface {
	ExtractHTML(ctx context.Context, doc []byte) ([]match.Fragment, error)
}

// SchemaGuard brings the store schema up to date before first use.
type SchemaGuard interface {
	Ensure(ctx context.Context) error
}

// LogoFetcher receives logo work after a commit. Enqueue must not block on
// downloads.
type LogoFetcher interface {
	Enqueue(ctx context.Context, requests []LogoRequest)
}

type CycleReport struct {
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	Fragments    int               `json:"fragments"`
	Normalized   int               `json:"normalized"`
	Rejections   []Rejection       `json:"rejections,omitempty"`
	Result       match.BatchResult `json:"result"`
	LogoRequests int               `json:"logo_requests"`
	Conflicts    int               `json:"conflicts"`
}

type ScrapeService struct {
	extractor  FragmentExtractor
	normalizer *Normalizer
	leagueRepo league.Repository
	teamRepo   team.Repository
	matchRepo  match.Repository
	guard      SchemaGuard
	ids        id.Generator
	logos      LogoFetcher
	logger     *logging.Logger
	now        func() time.Time

	guardMu    sync.Mutex
	guardReady bool
}

func NewScrapeService(
	extractor FragmentExtractor,
	normalizer *Normalizer,
	leagueRepo league.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	guard SchemaGuard,
	ids id.Generator,
	logos LogoFetcher,
	logger *logging.Logger,
) *ScrapeService {
	if normalizer == nil {
		normalizer = NewNormalizer(time.UTC)
	}
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &ScrapeService{
		extractor:  extractor,
		normalizer: normalizer,
		leagueRepo: leagueRepo,
		teamRepo:   teamRepo,
		matchRepo:  matchRepo,
		guard:      guard,
		ids:        ids,
		logos:      logos,
		logger:     logger.Named("scrape"),
		now:        time.Now,
	}
}

// RunCycle takes one rendered page through extraction, normalization,
// resolution and a single atomic commit. ref is the scrape's reference time
// for fixtures that show only a time of day.
func (s *ScrapeService) RunCycle(ctx context.Context, doc []byte, ref time.Time) (CycleReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScrapeService.RunCycle")
	defer span.End()

	report := CycleReport{StartedAt: s.now()}
	if ref.IsZero() {
		ref = report.StartedAt
	}

	if err := s.ensureSchema(ctx); err != nil {
		return report, err
	}

	fragments, err := s.extractor.ExtractHTML(ctx, doc)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		return report, extractionError(err)
	}
	report.Fragments = len(fragments)

	normalized, rejections := s.normalizer.NormalizeBatch(fragments, ref)
	report.Normalized = len(normalized)
	report.Rejections = rejections
	for _, r := range rejections {
		s.logger.WarnContext(ctx, "fragment rejected",
			"source_id", r.SourceID,
			"field", r.Field,
			"reason", r.Reason,
		)
	}

	index, err := s.loadIndex(ctx)
	if err != nil {
		return report, err
	}

	resolution, err := NewResolver(index, s.ids, s.logger).Resolve(normalized)
	if err != nil {
		return report, fmt.Errorf("resolve entities: %w", err)
	}
	report.Conflicts = resolution.Conflicts

	if err := ctx.Err(); err != nil {
		return report, err
	}

	result, err := s.matchRepo.ApplyBatch(ctx, match.Batch{
		Leagues: resolution.NewLeagues,
		Teams:   resolution.NewTeams,
		Matches: resolution.Matches,
		Now:     s.now(),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		return report, persistenceError("apply batch", err)
	}
	report.Result = result

	report.LogoRequests = s.enqueueLogos(ctx, resolution.LogoRequests, result)
	report.FinishedAt = s.now()

	span.SetAttributes(
		attribute.Int("scrape.fragments", report.Fragments),
		attribute.Int("scrape.rejected", len(report.Rejections)),
		attribute.Int("scrape.inserted", result.Inserted),
		attribute.Int("scrape.updated", result.Updated),
	)
	s.logger.InfoContext(ctx, "scrape cycle committed",
		"fragments", report.Fragments,
		"rejected", len(report.Rejections),
		"inserted", result.Inserted,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"leagues_created", result.LeaguesCreated,
		"teams_created", result.TeamsCreated,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	return report, nil
}

// ensureSchema runs the guard once per process; a failed attempt is retried
// on the next cycle.
func (s *ScrapeService) ensureSchema(ctx context.Context) error {
	if s.guard == nil {
		return nil
	}
	s.guardMu.Lock()
	defer s.guardMu.Unlock()
	if s.guardReady {
		return nil
	}
	if err := s.guard.Ensure(ctx); err != nil {
		return persistenceError("ensure schema", err)
	}
	s.guardReady = true
	return nil
}

func (s *ScrapeService) loadIndex(ctx context.Context) (IdentityIndex, error) {
	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return IdentityIndex{}, persistenceError("list leagues", err)
	}
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return IdentityIndex{}, persistenceError("list teams", err)
	}
	return IdentityIndex{Leagues: leagues, Teams: teams}, nil
}

func (s *ScrapeService) enqueueLogos(ctx context.Context, requests []LogoRequest, result match.BatchResult) int {
	if s.logos == nil || len(requests) == 0 {
		return 0
	}
	out := make([]LogoRequest, 0, len(requests))
	for _, r := range requests {
		r.EntityID = result.Canonical(r.EntityID)
		out = append(out, r)
	}
	s.logos.Enqueue(context.WithoutCancel(ctx), out)
	return len(out)
}
