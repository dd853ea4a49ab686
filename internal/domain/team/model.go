package team

import (
	"fmt"
	"time"

	"github.com/riskibarqy/livescore-sync/internal/domain/identity"
)

// Team is a club as named on the results page.
type Team struct {
	ID        string
	Name      string
	Key       string
	LogoURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, name string) Team {
	name = identity.CleanName(name)
	return Team{
		ID:   id,
		Name: name,
		Key:  identity.TeamKey(name),
	}
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.Key != identity.TeamKey(t.Name) {
		return fmt.Errorf("team %s key %q does not match name", t.ID, t.Key)
	}

	return nil
}
