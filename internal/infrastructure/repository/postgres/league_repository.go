package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/livescore-sync/internal/domain/league"
	qb "github.com/riskibarqy/livescore-sync/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	query, args, err := qb.Select(qb.ColumnsOf(leagueTableModel{}, "")...).From("leagues").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues query: %w", err)
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, leagueFromRow(row))
	}

	return out, nil
}

func (r *LeagueRepository) UpdateLogo(ctx context.Context, leagueID, logoURL string) error {
	return updateLogo(ctx, r.db, "leagues", leagueID, logoURL)
}

// updateLogo sets logo_url on one league or team row.
func updateLogo(ctx context.Context, db *sqlx.DB, table, id, logoURL string) error {
	query, args, err := qb.Update(table).
		Set("logo_url", logoURL).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update %s logo query: %w", table, err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s logo id=%s: %w", table, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s logo rows affected: %w", table, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s row %s not found", table, id)
	}
	return nil
}
