package league

import "context"

// Repository describes league persistence needs from use cases.
// Leagues are created only through match.Repository.ApplyBatch.
type Repository interface {
	List(ctx context.Context) ([]League, error)
	UpdateLogo(ctx context.Context, leagueID, logoURL string) error
}
