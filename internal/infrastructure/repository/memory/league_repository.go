package memory

import (
	"context"
	"fmt"

	"github.com/riskibarqy/livescore-sync/internal/domain/league"
)

type LeagueRepository struct {
	store *Store
}

func (r *LeagueRepository) List(_ context.Context) ([]league.League, error) {
	snap := r.store.load()

	out := make([]league.League, 0, len(snap.leagueOrder))
	for _, id := range snap.leagueOrder {
		out = append(out, snap.leagues[id])
	}

	return out, nil
}

func (r *LeagueRepository) UpdateLogo(ctx context.Context, leagueID, logoURL string) error {
	return r.store.update(ctx, func(next *snapshot) error {
		l, ok := next.leagues[leagueID]
		if !ok {
			return fmt.Errorf("league %s not found", leagueID)
		}
		l.LogoURL = logoURL
		l.UpdatedAt = r.store.now()
		next.leagues[leagueID] = l
		return nil
	})
}
