package team

import "context"

// Repository exposes team reads and the logo write-back.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	UpdateLogo(ctx context.Context, teamID, logoURL string) error
}
