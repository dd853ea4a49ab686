package league

import (
	"fmt"
	"time"

	"github.com/riskibarqy/livescore-sync/internal/domain/identity"
)

// League is a competition header as the results page shows it, e.g.
// "Liga dos Campeões" under "EUROPA".
type League struct {
	ID        string
	Name      string
	Country   string
	Key       string
	LogoURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds an unsaved league with its identity key filled in.
func New(id, name, country string) League {
	name = identity.CleanName(name)
	country = identity.CleanName(country)
	return League{
		ID:      id,
		Name:    name,
		Country: country,
		Key:     identity.LeagueKey(name, country),
	}
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.Key != identity.LeagueKey(l.Name, l.Country) {
		return fmt.Errorf("league %s key %q does not match name and country", l.ID, l.Key)
	}

	return nil
}
