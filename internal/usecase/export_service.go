package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/livescore-sync/internal/domain/match"
)

// MatchExport is the full JSON dump of stored matches.
type MatchExport struct {
	ExportDate   time.Time     `json:"export_date"`
	TotalMatches int           `json:"total_matches"`
	StatusFilter string        `json:"status_filter"`
	Matches      []MatchRecord `json:"matches"`
}

// SummaryExport groups a compact line per match under its status.
type SummaryExport struct {
	ExportDate   time.Time                      `json:"export_date"`
	TotalMatches int                            `json:"total_matches"`
	Summary      map[match.Status]StatusSummary `json:"summary"`
}

type StatusSummary struct {
	Count   int           `json:"count"`
	Matches []SummaryLine `json:"matches"`
}

type SummaryLine struct {
	MatchID   string `json:"match_id"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	Score     string `json:"score"`
	MatchTime string `json:"match_time"`
	League    string `json:"league"`
}

type ExportService struct {
	matchRepo match.Repository
	now       func() time.Time
}

func NewExportService(matchRepo match.Repository) *ExportService {
	return &ExportService{matchRepo: matchRepo, now: time.Now}
}

// Export dumps every match, or only those in status when it is non-empty.
func (s *ExportService) Export(ctx context.Context, status string) (MatchExport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ExportService.Export")
	defer span.End()

	filter := match.Filter{}
	label := "all"
	if status = strings.ToLower(strings.TrimSpace(status)); status != "" {
		parsed, ok := match.ParseStatus(status)
		if !ok {
			return MatchExport{}, fmt.Errorf("%w: unknown match status %q", ErrInvalidInput, status)
		}
		filter.Status = parsed
		label = status
	}

	items, err := s.matchRepo.List(ctx, filter)
	if err != nil {
		return MatchExport{}, persistenceError("list matches", err)
	}

	return MatchExport{
		ExportDate:   s.now(),
		TotalMatches: len(items),
		StatusFilter: label,
		Matches:      NewMatchRecords(items),
	}, nil
}

// Summary groups every match by status. Statuses with no matches are left out.
func (s *ExportService) Summary(ctx context.Context) (SummaryExport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ExportService.Summary")
	defer span.End()

	items, err := s.matchRepo.List(ctx, match.Filter{})
	if err != nil {
		return SummaryExport{}, persistenceError("list matches", err)
	}

	out := SummaryExport{
		ExportDate:   s.now(),
		TotalMatches: len(items),
		Summary:      make(map[match.Status]StatusSummary),
	}
	for _, m := range items {
		group := out.Summary[m.Status]
		group.Count++
		group.Matches = append(group.Matches, SummaryLine{
			MatchID:   m.SourceID,
			HomeTeam:  m.HomeTeamName,
			AwayTeam:  m.AwayTeamName,
			Score:     formatScore(m.HomeScore) + " - " + formatScore(m.AwayScore),
			MatchTime: m.MatchTime,
			League:    m.LeagueName,
		})
		out.Summary[m.Status] = group
	}
	return out, nil
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ExportPath names an export file under dir, e.g.
// outputs/matches_live_2026-10-19_15-40-00.json.
func ExportPath(dir, kind string, at time.Time) string {
	name := "matches"
	if kind != "" {
		name += "_" + kind
	}
	return filepath.Join(dir, name+"_"+at.Format("2006-01-02_15-04-05")+".json")
}

func formatScore(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
