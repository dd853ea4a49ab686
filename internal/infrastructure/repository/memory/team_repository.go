package memory

import (
	"context"
	"fmt"

	"github.com/riskibarqy/livescore-sync/internal/domain/team"
)

type TeamRepository struct {
	store *Store
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	snap := r.store.load()

	out := make([]team.Team, 0, len(snap.teamOrder))
	for _, id := range snap.teamOrder {
		out = append(out, snap.teams[id])
	}

	return out, nil
}

func (r *TeamRepository) UpdateLogo(ctx context.Context, teamID, logoURL string) error {
	return r.store.update(ctx, func(next *snapshot) error {
		t, ok := next.teams[teamID]
		if !ok {
			return fmt.Errorf("team %s not found", teamID)
		}
		t.LogoURL = logoURL
		t.UpdatedAt = r.store.now()
		next.teams[teamID] = t
		return nil
	})
}
