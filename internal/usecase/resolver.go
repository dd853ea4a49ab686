package usecase

import (
	"fmt"
	"sort"

	"github.com/riskibarqy/livescore-sync/internal/domain/identity"
	"github.com/riskibarqy/livescore-sync/internal/domain/league"
	"github.com/riskibarqy/livescore-sync/internal/domain/match"
	"github.com/riskibarqy/livescore-sync/internal/domain/team"
	"github.com/riskibarqy/livescore-sync/internal/platform/id"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
)

const (
	leagueIDPrefix = "lg"
	teamIDPrefix   = "tm"
)

// IdentityIndex is the stored league and team snapshot one cycle resolves
// against. It is loaded at the start of every cycle and never shared.
type IdentityIndex struct {
	Leagues []league.League
	Teams   []team.Team
}

type LogoKind string

const (
	LogoKindLeague LogoKind = "leagues"
	LogoKindTeam   LogoKind = "teams"
)

// LogoRequest asks the logo collaborator to fetch SourceURL for an entity
// that has no local logo yet.
type LogoRequest struct {
	Kind      LogoKind
	EntityID  string
	Name      string
	SourceURL string
}

type Resolution struct {
	Matches      []match.Resolved
	NewLeagues   []league.League
	NewTeams     []team.Team
	LogoRequests []LogoRequest
	Conflicts    int
}

// Resolver maps league and team mentions to entity ids by identity key.
// Existing entities always win; unseen keys get a fresh id at once so later
// rows in the same run reference the same entity.
type Resolver struct {
	leagues   map[string]league.League
	teams     map[string]team.Team
	ids       id.Generator
	logger    *logging.Logger
	conflicts int
}

func NewResolver(index IdentityIndex, ids id.Generator, logger *logging.Logger) *Resolver {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	r := &Resolver{
		leagues: make(map[string]league.League, len(index.Leagues)),
		teams:   make(map[string]team.Team, len(index.Teams)),
		ids:     ids,
		logger:  logger.Named("resolver"),
	}

	leagues := append([]league.League(nil), index.Leagues...)
	sort.Slice(leagues, func(i, j int) bool { return leagues[i].ID < leagues[j].ID })
	for _, l := range leagues {
		key := identity.LeagueKey(l.Name, l.Country)
		if kept, dup := r.leagues[key]; dup {
			r.reportConflict("league", key, kept.ID, l.ID)
			continue
		}
		r.leagues[key] = l
	}

	teams := append([]team.Team(nil), index.Teams...)
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	for _, t := range teams {
		key := identity.TeamKey(t.Name)
		if kept, dup := r.teams[key]; dup {
			r.reportConflict("team", key, kept.ID, t.ID)
			continue
		}
		r.teams[key] = t
	}

	return r
}

func (r *Resolver) reportConflict(entity, key, keptID, droppedID string) {
	r.conflicts++
	r.logger.Error("duplicate identity key in store",
		"error", ErrResolutionConflict,
		"entity", entity,
		"key", key,
		"kept_id", keptID,
		"ignored_id", droppedID,
	)
}

// Resolve attaches league and team ids to every match of the batch.
func (r *Resolver) Resolve(batch []match.Normalized) (Resolution, error) {
	res := Resolution{
		Matches:   make([]match.Resolved, 0, len(batch)),
		Conflicts: r.conflicts,
	}
	requested := make(map[string]struct{})
	requestLogo := func(kind LogoKind, entityID, name, logoURL, src string) {
		if logoURL != "" || src == "" {
			return
		}
		key := string(kind) + "/" + entityID
		if _, ok := requested[key]; ok {
			return
		}
		requested[key] = struct{}{}
		res.LogoRequests = append(res.LogoRequests, LogoRequest{Kind: kind, EntityID: entityID, Name: name, SourceURL: src})
	}

	for _, nm := range batch {
		resolved := match.Resolved{Normalized: nm}

		if nm.LeagueName != "" {
			l, created, err := r.league(nm.LeagueName, nm.LeagueCountry)
			if err != nil {
				return Resolution{}, err
			}
			if created {
				res.NewLeagues = append(res.NewLeagues, l)
			}
			resolved.LeagueID = l.ID
			requestLogo(LogoKindLeague, l.ID, l.Name, l.LogoURL, nm.LeagueLogoSrc)
		}

		home, created, err := r.team(nm.HomeTeamName)
		if err != nil {
			return Resolution{}, err
		}
		if created {
			res.NewTeams = append(res.NewTeams, home)
		}
		away, created, err := r.team(nm.AwayTeamName)
		if err != nil {
			return Resolution{}, err
		}
		if created {
			res.NewTeams = append(res.NewTeams, away)
		}
		resolved.HomeTeamID = home.ID
		resolved.AwayTeamID = away.ID
		requestLogo(LogoKindTeam, home.ID, home.Name, home.LogoURL, nm.HomeLogoSrc)
		requestLogo(LogoKindTeam, away.ID, away.Name, away.LogoURL, nm.AwayLogoSrc)

		res.Matches = append(res.Matches, resolved)
	}

	return res, nil
}

func (r *Resolver) league(name, country string) (league.League, bool, error) {
	key := identity.LeagueKey(name, country)
	if l, ok := r.leagues[key]; ok {
		return l, false, nil
	}
	newID, err := r.ids.NewID(leagueIDPrefix)
	if err != nil {
		return league.League{}, false, fmt.Errorf("generate league id: %w", err)
	}
	l := league.New(newID, name, country)
	r.leagues[key] = l
	return l, true, nil
}

func (r *Resolver) team(name string) (team.Team, bool, error) {
	key := identity.TeamKey(name)
	if t, ok := r.teams[key]; ok {
		return t, false, nil
	}
	newID, err := r.ids.NewID(teamIDPrefix)
	if err != nil {
		return team.Team{}, false, fmt.Errorf("generate team id: %w", err)
	}
	t := team.New(newID, name)
	r.teams[key] = t
	return t, true, nil
}
