package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/livescore-sync/internal/domain/match"
	"github.com/riskibarqy/livescore-sync/internal/platform/cache"
)

const maxMatchListLimit = 1000

// MatchOverview is every stored match with per-status groups and counts.
type MatchOverview struct {
	Total   int                            `json:"total_matches"`
	Counts  map[match.Status]int           `json:"matches_by_status"`
	Groups  map[match.Status][]MatchRecord `json:"data"`
	Matches []MatchRecord                  `json:"matches"`
}

type MatchStats struct {
	Total    int                  `json:"total"`
	ByStatus map[match.Status]int `json:"by_status"`
}

// MatchQueryService serves read-only views of the store. Results are held
// for a short TTL so a burst of identical requests costs one query.
type MatchQueryService struct {
	matchRepo match.Repository
	lists     *cache.Store[[]match.Match]
	stats     *cache.Store[MatchStats]
}

// NewMatchQueryService caches results for ttl. A non-positive ttl disables
// caching.
func NewMatchQueryService(matchRepo match.Repository, ttl time.Duration) *MatchQueryService {
	s := &MatchQueryService{matchRepo: matchRepo}
	if ttl > 0 {
		s.lists = cache.NewStore[[]match.Match](ttl)
		s.stats = cache.NewStore[MatchStats](ttl)
	}
	return s
}

// Overview lists matches narrowed by filter and groups them by status.
// Every known status has a group, possibly empty.
func (s *MatchQueryService) Overview(ctx context.Context, filter match.Filter) (MatchOverview, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchQueryService.Overview")
	defer span.End()

	items, err := s.list(ctx, filter)
	if err != nil {
		return MatchOverview{}, err
	}

	out := MatchOverview{
		Total:   len(items),
		Counts:  make(map[match.Status]int, len(match.Statuses())),
		Groups:  make(map[match.Status][]MatchRecord, len(match.Statuses())),
		Matches: NewMatchRecords(items),
	}
	for _, status := range match.Statuses() {
		out.Counts[status] = 0
		out.Groups[status] = []MatchRecord{}
	}
	for i, m := range items {
		status := m.Status
		if !status.Valid() {
			status = match.StatusUnknown
		}
		out.Counts[status]++
		out.Groups[status] = append(out.Groups[status], out.Matches[i])
	}
	return out, nil
}

// ListByStatus returns matches in one status. rawStatus is validated.
func (s *MatchQueryService) ListByStatus(ctx context.Context, rawStatus string, filter match.Filter) ([]MatchRecord, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchQueryService.ListByStatus")
	defer span.End()

	status, ok := match.ParseStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
	if !ok {
		return nil, fmt.Errorf("%w: unknown match status %q", ErrInvalidInput, rawStatus)
	}
	filter.Status = status

	items, err := s.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	return NewMatchRecords(items), nil
}

func (s *MatchQueryService) Stats(ctx context.Context) (MatchStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchQueryService.Stats")
	defer span.End()

	load := func(ctx context.Context) (MatchStats, error) {
		counts, err := s.matchRepo.CountByStatus(ctx)
		if err != nil {
			return MatchStats{}, persistenceError("count matches", err)
		}
		out := MatchStats{ByStatus: make(map[match.Status]int, len(match.Statuses()))}
		for _, status := range match.Statuses() {
			out.ByStatus[status] = 0
		}
		for status, n := range counts {
			if !status.Valid() {
				status = match.StatusUnknown
			}
			out.ByStatus[status] += n
			out.Total += n
		}
		return out, nil
	}
	if s.stats == nil {
		return load(ctx)
	}
	return s.stats.GetOrLoad(ctx, "stats", load)
}

func (s *MatchQueryService) list(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	filter.League = strings.TrimSpace(filter.League)
	filter.Team = strings.TrimSpace(filter.Team)
	if filter.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}
	if filter.Limit > maxMatchListLimit {
		filter.Limit = maxMatchListLimit
	}

	key := fmt.Sprintf("list:%s:%s:%s:%d",
		filter.Status, strings.ToLower(filter.League), strings.ToLower(filter.Team), filter.Limit)
	load := func(ctx context.Context) ([]match.Match, error) {
		items, err := s.matchRepo.List(ctx, filter)
		if err != nil {
			return nil, persistenceError("list matches", err)
		}
		return items, nil
	}
	if s.lists == nil {
		return load(ctx)
	}
	return s.lists.GetOrLoad(ctx, key, load)
}
