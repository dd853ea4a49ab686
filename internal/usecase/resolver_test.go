package usecase

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/riskibarqy/livescore-sync/internal/domain/league"
	"github.com/riskibarqy/livescore-sync/internal/domain/match"
	"github.com/riskibarqy/livescore-sync/internal/domain/team"
	"github.com/riskibarqy/livescore-sync/internal/platform/id"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
)

func normalizedMatch(sourceID, home, away string) match.Normalized {
	return match.Normalized{
		SourceID:      sourceID,
		HomeTeamName:  home,
		AwayTeamName:  away,
		Status:        match.StatusScheduled,
		MatchDate:     time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		LeagueName:    "Liga dos Campeões",
		LeagueCountry: "EUROPA",
	}
}

func TestResolver_CaseAccentWhitespaceVariantsWithinBatch(t *testing.T) {
	r := NewResolver(IdentityIndex{}, id.NewSequenceGenerator(), logging.NewNop())

	res, err := r.Resolve([]match.Normalized{
		normalizedMatch("A", "Kairat Almaty", "Olympiakos"),
		normalizedMatch("B", "KAIRAT ALMATY", "Benfica"),
		normalizedMatch("C", "Olympiakos", "Kairat  Almaty"),
		normalizedMatch("D", "Káirat Almaty", "Benfica"),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	kairat := res.Matches[0].HomeTeamID
	for _, m := range []match.Resolved{res.Matches[1], res.Matches[3]} {
		if m.HomeTeamID != kairat {
			t.Fatalf("expected %s for %s, got %s", kairat, m.HomeTeamName, m.HomeTeamID)
		}
	}
	if res.Matches[2].AwayTeamID != kairat {
		t.Fatalf("expected away side to reuse %s, got %s", kairat, res.Matches[2].AwayTeamID)
	}
	if len(res.NewTeams) != 3 {
		t.Fatalf("expected 3 new teams, got %d: %+v", len(res.NewTeams), res.NewTeams)
	}
	if len(res.NewLeagues) != 1 {
		t.Fatalf("expected 1 new league, got %d", len(res.NewLeagues))
	}
	for _, m := range res.Matches {
		if m.LeagueID != res.NewLeagues[0].ID {
			t.Fatalf("expected every match in league %s, got %s", res.NewLeagues[0].ID, m.LeagueID)
		}
	}
}

func TestResolver_ExistingEntityWinsAcrossBatches(t *testing.T) {
	index := IdentityIndex{
		Leagues: []league.League{league.New("lg_stored", "Liga dos Campeões", "Europa")},
		Teams:   []team.Team{team.New("tm_stored", "Kairat Almaty")},
	}
	r := NewResolver(index, id.NewSequenceGenerator(), logging.NewNop())

	res, err := r.Resolve([]match.Normalized{normalizedMatch("A", "kairat almaty", "Olympiakos")})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := res.Matches[0].HomeTeamID; got != "tm_stored" {
		t.Fatalf("expected stored team, got %s", got)
	}
	if got := res.Matches[0].LeagueID; got != "lg_stored" {
		t.Fatalf("expected stored league, got %s", got)
	}
	if len(res.NewTeams) != 1 || res.NewTeams[0].Name != "Olympiakos" {
		t.Fatalf("expected only Olympiakos to be new, got %+v", res.NewTeams)
	}
	if len(res.NewLeagues) != 0 {
		t.Fatalf("expected no new leagues, got %+v", res.NewLeagues)
	}

	second, err := r.Resolve([]match.Normalized{normalizedMatch("B", "OLYMPIAKOS", "KAIRAT ALMATY")})
	if err != nil {
		t.Fatalf("resolve second batch: %v", err)
	}
	if second.Matches[0].HomeTeamID != res.NewTeams[0].ID || second.Matches[0].AwayTeamID != "tm_stored" {
		t.Fatalf("expected second batch to reuse ids, got %+v", second.Matches[0])
	}
	if len(second.NewTeams) != 0 {
		t.Fatalf("expected no new teams in second batch, got %+v", second.NewTeams)
	}
}

func TestResolver_NoLeagueHeader(t *testing.T) {
	r := NewResolver(IdentityIndex{}, id.NewSequenceGenerator(), logging.NewNop())
	nm := normalizedMatch("A", "Porto", "Braga")
	nm.LeagueName, nm.LeagueCountry = "", ""

	res, err := r.Resolve([]match.Normalized{nm})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Matches[0].LeagueID != "" || len(res.NewLeagues) != 0 {
		t.Fatalf("expected no league, got %+v", res.Matches[0])
	}
}

func TestResolver_IndexConflictLoggedFirstWins(t *testing.T) {
	core, logs := observer.New(logging.LevelError)
	logger := logging.FromZap(zap.New(core))
	index := IdentityIndex{
		Teams: []team.Team{
			team.New("tm_b", "Kairat Almaty"),
			team.New("tm_a", "KAIRAT ALMATY"),
		},
	}

	r := NewResolver(index, id.NewSequenceGenerator(), logger)
	res, err := r.Resolve([]match.Normalized{normalizedMatch("A", "Kairat Almaty", "Olympiakos")})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := res.Matches[0].HomeTeamID; got != "tm_a" {
		t.Fatalf("expected lowest id to win, got %s", got)
	}
	if res.Conflicts != 1 {
		t.Fatalf("expected 1 conflict, got %d", res.Conflicts)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected conflict to be logged once, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["kept_id"] != "tm_a" || fields["ignored_id"] != "tm_b" {
		t.Fatalf("unexpected conflict fields %+v", fields)
	}
}

func TestResolver_LogoRequests(t *testing.T) {
	withLogo := team.New("tm_stored", "Olympiakos")
	withLogo.LogoURL = "/images/teams/olympiakos.png"
	r := NewResolver(IdentityIndex{Teams: []team.Team{withLogo}}, id.NewSequenceGenerator(), logging.NewNop())

	a := normalizedMatch("A", "Kairat Almaty", "Olympiakos")
	a.HomeLogoSrc = "https://static.flashscore.com/kairat.png"
	a.AwayLogoSrc = "https://static.flashscore.com/olympiakos.png"
	a.LeagueLogoSrc = "https://static.flashscore.com/ucl.png"
	b := normalizedMatch("B", "KAIRAT ALMATY", "Benfica")
	b.HomeLogoSrc = a.HomeLogoSrc

	res, err := r.Resolve([]match.Normalized{a, b})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if len(res.LogoRequests) != 2 {
		t.Fatalf("expected league + kairat logo requests, got %+v", res.LogoRequests)
	}
	if res.LogoRequests[0].Kind != LogoKindLeague || res.LogoRequests[1].Name != "Kairat Almaty" {
		t.Fatalf("unexpected logo requests %+v", res.LogoRequests)
	}
}
