package usecase

import (
	"context"
	"strings"

	"github.com/riskibarqy/livescore-sync/internal/domain/identity"
	"github.com/riskibarqy/livescore-sync/internal/domain/league"
	"github.com/riskibarqy/livescore-sync/internal/domain/team"
)

// CatalogService lists the leagues and teams the resolver has created.
type CatalogService struct {
	leagueRepo league.Repository
	teamRepo   team.Repository
}

func NewCatalogService(leagueRepo league.Repository, teamRepo team.Repository) *CatalogService {
	return &CatalogService{
		leagueRepo: leagueRepo,
		teamRepo:   teamRepo,
	}
}

// ListLeagues returns every league, or those whose folded country equals
// the folded country argument.
func (s *CatalogService) ListLeagues(ctx context.Context, country string) ([]league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.ListLeagues")
	defer span.End()

	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, persistenceError("list leagues", err)
	}

	country = identity.Fold(country)
	if country == "" {
		return leagues, nil
	}
	out := make([]league.League, 0, len(leagues))
	for _, item := range leagues {
		if identity.Fold(item.Country) == country {
			out = append(out, item)
		}
	}

	return out, nil
}

// ListTeams returns every team, or those whose name contains name. The
// match uses the same folding as team identity keys, so "benfica" finds
// "SL Benfica".
func (s *CatalogService) ListTeams(ctx context.Context, name string) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.ListTeams")
	defer span.End()

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, persistenceError("list teams", err)
	}

	needle := identity.TeamKey(name)
	if needle == "" {
		return teams, nil
	}
	out := make([]team.Team, 0, len(teams))
	for _, item := range teams {
		if strings.Contains(item.Key, needle) {
			out = append(out, item)
		}
	}

	return out, nil
}
