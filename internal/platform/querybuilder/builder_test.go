package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder_JoinsFiltersAndLimit(t *testing.T) {
	query, args, err := Select("m.match_id", "h.name").
		From("matches m").
		Join("JOIN teams h ON h.id = m.home_team_id").
		Join("LEFT JOIN leagues l ON l.id = m.league_id").
		Where(
			Eq("m.match_status", "live"),
			Any(ILike("h.name", "kairat"), ILike("l.name", "kairat")),
			Expr("m.home_score IS NOT NULL"),
		).
		OrderBy("m.match_date", "m.match_time").
		Limit(50).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT m.match_id, h.name FROM matches m JOIN teams h ON h.id = m.home_team_id LEFT JOIN leagues l ON l.id = m.league_id " +
		"WHERE m.match_status = $1 AND (h.name ILIKE $2 OR l.name ILIKE $3) AND m.home_score IS NOT NULL " +
		"ORDER BY m.match_date, m.match_time LIMIT 50"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "live" || args[1] != "%kairat%" || args[2] != "%kairat%" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_GroupBy(t *testing.T) {
	query, args, err := Select("match_status", "COUNT(*)").
		From("matches").
		GroupBy("match_status").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT match_status, COUNT(*) FROM matches GROUP BY match_status" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestILike_EscapesWildcards(t *testing.T) {
	_, args, err := Select("id").From("teams").Where(ILike("name", "100%_fc")).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if args[0] != `%100\%\_fc%` {
		t.Fatalf("unexpected escaped term %q", args[0])
	}
}

func TestIn_EmptyIsFalse(t *testing.T) {
	query, _, err := Select("id").From("teams").Where(In[string]("name_key", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT id FROM teams WHERE 1=0" {
		t.Fatalf("unexpected query: %s", query)
	}
}

func TestInsertBuilder_ConflictSuffix(t *testing.T) {
	query, args, err := InsertInto("teams").
		Columns("id", "name", "name_key").
		Values("team_1", "Olympiakos", "olympiakos").
		Values("team_2", "Kairat Almaty", "kairat almaty").
		Suffix("ON CONFLICT (name_key) DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO teams (id, name, name_key) VALUES ($1, $2, $3), ($4, $5, $6) ON CONFLICT (name_key) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 6 || args[3] != "team_2" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("teams").Columns("id", "name").Values("team_1").ToSQL()
	if err == nil {
		t.Fatalf("expected error for short row")
	}
}

func TestUpdateBuilder(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)
	query, args, err := Update("matches").
		Set("home_score", 1).
		SetExpr("updated_at", "GREATEST(updated_at, ?)", now).
		Where(Eq("match_id", "KMICP6x0")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE matches SET home_score = $1, updated_at = GREATEST(updated_at, $2) WHERE match_id = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != 1 || args[1] != now || args[2] != "KMICP6x0" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

type teamRow struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	NameKey string `db:"name_key"`
	LogoURL string `db:"-"`
	scratch string
}

func TestInsertModel_UsesDBTags(t *testing.T) {
	row := teamRow{ID: "team_1", Name: "Olympiakos", NameKey: "olympiakos", scratch: "x"}
	query, args, err := InsertModel("teams", row, "ON CONFLICT (name_key) DO NOTHING")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}

	wantQuery := "INSERT INTO teams (id, name, name_key) VALUES ($1, $2, $3) ON CONFLICT (name_key) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}
	_ = row.scratch
}

func TestColumnsOf_Alias(t *testing.T) {
	cols := ColumnsOf(teamRow{}, "t")
	if len(cols) != 3 || cols[0] != "t.id" || cols[2] != "t.name_key" {
		t.Fatalf("unexpected columns: %+v", cols)
	}
}
