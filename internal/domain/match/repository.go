package match

import (
	"context"
	"time"

	"github.com/riskibarqy/livescore-sync/internal/domain/league"
	"github.com/riskibarqy/livescore-sync/internal/domain/team"
)

// Batch is everything one scrape cycle commits. Leagues and Teams are the
// entities first seen in this cycle; Matches may reference their ids.
type Batch struct {
	Leagues []league.League
	Teams   []team.Team
	Matches []Resolved
	Now     time.Time
}

// BatchResult counts what a commit changed. Unchanged rows were re-observed
// with identical state and only had updated_at refreshed.
//
// IDRemap maps an id proposed in the batch to the id already stored under
// the same identity key, when a concurrent writer created it first.
type BatchResult struct {
	Inserted       int               `json:"inserted"`
	Updated        int               `json:"updated"`
	Unchanged      int               `json:"unchanged"`
	LeaguesCreated int               `json:"leagues_created"`
	TeamsCreated   int               `json:"teams_created"`
	IDRemap        map[string]string `json:"-"`
}

// Canonical returns the stored id for a proposed one.
func (r BatchResult) Canonical(id string) string {
	if stored, ok := r.IDRemap[id]; ok {
		return stored
	}
	return id
}

// Repository is the match store. ApplyBatch is atomic: readers observe the
// store either before or after the whole batch.
type Repository interface {
	ApplyBatch(ctx context.Context, batch Batch) (BatchResult, error)
	List(ctx context.Context, filter Filter) ([]Match, error)
	GetBySourceID(ctx context.Context, sourceID string) (Match, bool, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
