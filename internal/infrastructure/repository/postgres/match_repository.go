package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/livescore-sync/internal/domain/match"
	qb "github.com/riskibarqy/livescore-sync/internal/platform/querybuilder"
)

// applyBatchLockKey serializes ApplyBatch across processes sharing one database.
const applyBatchLockKey int64 = 0x6c6976657363

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// ApplyBatch commits new entities and every match of one cycle in a single
// transaction. A row failing validation or a constraint rolls back the whole
// batch.
func (r *MatchRepository) ApplyBatch(ctx context.Context, batch match.Batch) (match.BatchResult, error) {
	now := batch.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return match.BatchResult{}, fmt.Errorf("begin tx apply batch: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", applyBatchLockKey); err != nil {
		return match.BatchResult{}, fmt.Errorf("acquire apply batch lock: %w", err)
	}

	result := match.BatchResult{IDRemap: make(map[string]string)}

	for _, l := range batch.Leagues {
		if err := l.Validate(); err != nil {
			return match.BatchResult{}, err
		}
		storedID, created, err := insertEntity(ctx, tx, "leagues", leagueInsertModel{
			ID:        l.ID,
			Name:      l.Name,
			Country:   l.Country,
			NameKey:   l.Key,
			LogoURL:   l.LogoURL,
			CreatedAt: now,
			UpdatedAt: now,
		}, l.Key)
		if err != nil {
			return match.BatchResult{}, err
		}
		if created {
			result.LeaguesCreated++
		} else if storedID != l.ID {
			result.IDRemap[l.ID] = storedID
		}
	}

	for _, t := range batch.Teams {
		if err := t.Validate(); err != nil {
			return match.BatchResult{}, err
		}
		storedID, created, err := insertEntity(ctx, tx, "teams", teamInsertModel{
			ID:        t.ID,
			Name:      t.Name,
			NameKey:   t.Key,
			LogoURL:   t.LogoURL,
			CreatedAt: now,
			UpdatedAt: now,
		}, t.Key)
		if err != nil {
			return match.BatchResult{}, err
		}
		if created {
			result.TeamsCreated++
		} else if storedID != t.ID {
			result.IDRemap[t.ID] = storedID
		}
	}

	existing, err := r.lockExisting(ctx, tx, batch.Matches)
	if err != nil {
		return match.BatchResult{}, err
	}

	for _, m := range batch.Matches {
		m.LeagueID = result.Canonical(m.LeagueID)
		m.HomeTeamID = result.Canonical(m.HomeTeamID)
		m.AwayTeamID = result.Canonical(m.AwayTeamID)
		if err := validateResolved(m); err != nil {
			return match.BatchResult{}, err
		}

		query, args, err := qb.InsertModel("matches", matchInsertModelFrom(m, now), matchUpsertSuffix)
		if err != nil {
			return match.BatchResult{}, fmt.Errorf("build upsert match query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return match.BatchResult{}, fmt.Errorf("upsert match match_id=%s: %w", m.SourceID, err)
		}

		prev, ok := existing[m.SourceID]
		switch {
		case !ok:
			result.Inserted++
		case prev.SameState(m):
			result.Unchanged++
		default:
			result.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return match.BatchResult{}, fmt.Errorf("commit apply batch tx: %w", err)
	}
	return result, nil
}

// insertEntity inserts a league or team unless its identity key is already
// stored, and returns the id that owns the key.
func insertEntity(ctx context.Context, tx *sqlx.Tx, table string, model any, key string) (string, bool, error) {
	query, args, err := qb.InsertModel(table, model, "ON CONFLICT (name_key) DO NOTHING RETURNING id")
	if err != nil {
		return "", false, fmt.Errorf("build insert %s query: %w", table, err)
	}

	var id string
	err = tx.GetContext(ctx, &id, query, args...)
	if err == nil {
		return id, true, nil
	}
	if !isNotFound(err) {
		return "", false, fmt.Errorf("insert %s name_key=%s: %w", table, key, err)
	}

	query, args, err = qb.Select("id").From(table).Where(qb.Eq("name_key", key)).ToSQL()
	if err != nil {
		return "", false, fmt.Errorf("build select %s by key query: %w", table, err)
	}
	if err := tx.GetContext(ctx, &id, query, args...); err != nil {
		return "", false, fmt.Errorf("select %s name_key=%s: %w", table, key, err)
	}
	return id, false, nil
}

// lockExisting reads the stored rows the batch will touch, keyed by match_id.
func (r *MatchRepository) lockExisting(ctx context.Context, tx *sqlx.Tx, items []match.Resolved) (map[string]match.Match, error) {
	out := make(map[string]match.Match, len(items))
	if len(items) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(items))
	for _, m := range items {
		ids = append(ids, m.SourceID)
	}

	query, args, err := qb.Select(qb.ColumnsOf(matchTableModel{}, "")...).From("matches").
		Where(qb.In("match_id", ids)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select existing matches query: %w", err)
	}

	var rows []matchTableModel
	if err := tx.SelectContext(ctx, &rows, query+" FOR UPDATE", args...); err != nil {
		return nil, fmt.Errorf("select existing matches: %w", err)
	}
	for _, row := range rows {
		out[row.MatchID] = matchFromRow(row)
	}
	return out, nil
}

func validateResolved(m match.Resolved) error {
	if err := m.Normalized.Validate(); err != nil {
		return fmt.Errorf("match %s: %w", m.SourceID, err)
	}
	if m.HomeTeamID == "" || m.AwayTeamID == "" {
		return fmt.Errorf("match %s: team ids are required", m.SourceID)
	}
	if m.HomeTeamID == m.AwayTeamID {
		return fmt.Errorf("match %s: home and away team are the same", m.SourceID)
	}
	return nil
}

func (r *MatchRepository) List(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	conditions := make([]qb.Condition, 0, 3)
	if filter.Status != "" {
		conditions = append(conditions, qb.Eq("m.match_status", string(filter.Status)))
	}
	if term := strings.TrimSpace(filter.League); term != "" {
		conditions = append(conditions, qb.ILike("l.name", term))
	}
	if term := strings.TrimSpace(filter.Team); term != "" {
		conditions = append(conditions, qb.Any(qb.ILike("ht.name", term), qb.ILike("awt.name", term)))
	}

	builder := matchViewSelectBuilder().
		Where(conditions...).
		OrderBy("m.match_date", "m.match_time", "m.id")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchViewModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromView(row))
	}
	return out, nil
}

func (r *MatchRepository) GetBySourceID(ctx context.Context, sourceID string) (match.Match, bool, error) {
	query, args, err := matchViewSelectBuilder().
		Where(qb.Eq("m.match_id", sourceID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchViewModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match match_id=%s: %w", sourceID, err)
	}
	return matchFromView(row), true, nil
}

func (r *MatchRepository) CountByStatus(ctx context.Context) (map[match.Status]int, error) {
	query, args, err := qb.Select("match_status", "COUNT(*) AS total").From("matches").
		GroupBy("match_status").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build count matches query: %w", err)
	}

	var rows []struct {
		Status string `db:"match_status"`
		Total  int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count matches by status: %w", err)
	}

	out := make(map[match.Status]int, len(rows))
	for _, row := range rows {
		out[match.Status(row.Status)] = row.Total
	}
	return out, nil
}

func matchViewSelectBuilder() *qb.SelectBuilder {
	columns := qb.ColumnsOf(matchTableModel{}, "m")
	columns = append(columns,
		"l.name AS league_name",
		"l.country AS league_country",
		"l.logo_url AS league_logo_url",
		"ht.name AS home_team_name",
		"ht.logo_url AS home_team_logo",
		"awt.name AS away_team_name",
		"awt.logo_url AS away_team_logo",
	)
	return qb.Select(columns...).From("matches m").
		Join("LEFT JOIN leagues l ON l.id = m.league_id").
		Join("JOIN teams ht ON ht.id = m.home_team_id").
		Join("JOIN teams awt ON awt.id = m.away_team_id")
}
