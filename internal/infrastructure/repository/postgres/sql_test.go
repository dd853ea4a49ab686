package postgres

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/livescore-sync/internal/domain/identity"
	"github.com/riskibarqy/livescore-sync/internal/domain/match"
	qb "github.com/riskibarqy/livescore-sync/internal/platform/querybuilder"
)

func TestMissingColumns(t *testing.T) {
	existing := map[string]map[string]bool{
		"matches": {"id": true, "match_id": true, "home_score": true, "away_score": true},
		"teams":   {"id": true, "name": true, "name_key": true, "logo_url": true, "created_at": true, "updated_at": true},
	}
	specs := []columnSpec{
		{Table: "matches", Column: "home_score", Definition: "INTEGER"},
		{Table: "matches", Column: "match_url", Definition: "TEXT NOT NULL DEFAULT ''"},
		{Table: "teams", Column: "logo_url", Definition: "TEXT NOT NULL DEFAULT ''"},
		{Table: "leagues", Column: "logo_url", Definition: "TEXT NOT NULL DEFAULT ''"},
	}

	got := missingColumns(existing, specs)
	if len(got) != 1 || got[0].Table != "matches" || got[0].Column != "match_url" {
		t.Fatalf("unexpected missing columns %+v", got)
	}
}

func TestIsUniqueKeyIndex(t *testing.T) {
	cases := map[string]bool{
		"CREATE UNIQUE INDEX leagues_name_key_unique ON public.leagues USING btree (name_key)": true,
		"CREATE INDEX idx_teams_name_key ON public.teams USING btree (name_key)":               false,
		"CREATE UNIQUE INDEX teams_pkey ON public.teams USING btree (id)":                      false,
		"CREATE UNIQUE INDEX teams_pair ON public.teams USING btree (name, name_key)":          false,
	}
	for def, want := range cases {
		if got := isUniqueKeyIndex(def); got != want {
			t.Fatalf("isUniqueKeyIndex(%q) = %v, want %v", def, got, want)
		}
	}
}

func TestAssignIdentityKeys(t *testing.T) {
	rows := []keyRow{
		{ID: "lg_1", Name: "Premier League", Country: "Inglaterra"},
		{ID: "lg_2", Name: "Premier League", Country: "Cazaquistão"},
		{ID: "lg_3", Name: " PREMIER  league ", Country: "inglaterra"},
		{ID: "lg_4", Name: "Liga Portugal", Country: "Portugal", NameKey: "liga portugal|portugal"},
	}
	key := func(name, country string) string { return identity.LeagueKey(name, country) }

	updates, collisions := assignIdentityKeys(rows, key)

	want := map[string]string{
		"lg_1": "premier league|inglaterra",
		"lg_2": "premier league|cazaquistao",
		"lg_3": "premier league|inglaterra#lg_3",
	}
	if len(updates) != len(want) {
		t.Fatalf("unexpected updates %v", updates)
	}
	for id, k := range want {
		if updates[id] != k {
			t.Fatalf("key for %s = %q, want %q", id, updates[id], k)
		}
	}
	if len(collisions) != 1 || collisions[0].KeptID != "lg_1" || collisions[0].RenamedID != "lg_3" {
		t.Fatalf("unexpected collisions %+v", collisions)
	}
}

func TestExpectedColumnsCoverMatchModel(t *testing.T) {
	known := make(map[string]bool)
	for _, spec := range expectedColumns {
		if spec.Table == "matches" {
			known[spec.Column] = true
		}
	}
	for _, col := range qb.ColumnsOf(matchInsertModel{}, "") {
		switch col {
		case "match_id", "league_id", "home_team_id", "away_team_id":
			continue
		}
		if !known[col] {
			t.Fatalf("column %s is written but not guarded", col)
		}
	}
}

func TestMatchUpsertQueryKeepsScrapedAt(t *testing.T) {
	minute := 23
	home, away := 1, 0
	now := time.Date(2026, 10, 19, 15, 40, 0, 0, time.UTC)
	m := match.Resolved{
		Normalized: match.Normalized{
			SourceID:      "KMICP6x0",
			HomeTeamName:  "Kairat Almaty",
			AwayTeamName:  "Olympiakos",
			HomeScore:     &home,
			AwayScore:     &away,
			Status:        match.StatusLive,
			IsLive:        true,
			CurrentMinute: &minute,
			MatchDate:     time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		},
		HomeTeamID: "tm_1",
		AwayTeamID: "tm_2",
	}

	query, args, err := qb.InsertModel("matches", matchInsertModelFrom(m, now), matchUpsertSuffix)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.HasPrefix(query, "INSERT INTO matches (match_id, league_id, home_team_id") {
		t.Fatalf("unexpected query prefix: %s", query)
	}
	if strings.Contains(query, "scraped_at = EXCLUDED") {
		t.Fatalf("upsert must not overwrite scraped_at: %s", query)
	}
	if len(args) != 18 {
		t.Fatalf("expected 18 args, got %d", len(args))
	}
	if leagueID, ok := args[1].(*string); !ok || leagueID != nil {
		t.Fatalf("expected NULL league id, got %#v", args[1])
	}
}

func TestMatchFromView(t *testing.T) {
	row := matchViewModel{
		matchTableModel: matchTableModel{
			ID:            7,
			MatchID:       "FIN00001",
			HomeTeamID:    "tm_1",
			AwayTeamID:    "tm_2",
			HomeScore:     sql.NullInt64{Int64: 2, Valid: true},
			AwayScore:     sql.NullInt64{Int64: 1, Valid: true},
			MatchStatus:   "finished",
			CurrentMinute: sql.NullInt64{},
		},
		LeagueName:   sql.NullString{String: "Primeira Liga", Valid: true},
		HomeTeamName: "Benfica",
		AwayTeamName: "Porto",
	}

	got := matchFromView(row)
	if got.SourceID != "FIN00001" || got.LeagueID != "" || got.LeagueName != "Primeira Liga" {
		t.Fatalf("unexpected match %+v", got)
	}
	if got.HomeScore == nil || *got.HomeScore != 2 || got.CurrentMinute != nil {
		t.Fatalf("unexpected nullable fields %+v", got)
	}
	if got.Status != match.StatusFinished {
		t.Fatalf("unexpected status %s", got.Status)
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows to be not found")
	}
	if isNotFound(fakeErr("pq: relation matches does not exist")) {
		t.Fatalf("expected unrelated error to be reported")
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
