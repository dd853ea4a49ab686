package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/livescore-sync/internal/domain/league"
	"github.com/riskibarqy/livescore-sync/internal/domain/match"
	"github.com/riskibarqy/livescore-sync/internal/domain/team"
)

// snapshot is immutable once published; writers build a copy and swap it in.
type snapshot struct {
	leagues     map[string]league.League
	leagueOrder []string
	leagueByKey map[string]string
	teams       map[string]team.Team
	teamOrder   []string
	teamByKey   map[string]string
	matches     map[string]match.Match
	matchOrder  []string
	nextMatchID int64
}

func emptySnapshot() *snapshot {
	return &snapshot{
		leagues:     make(map[string]league.League),
		teams:       make(map[string]team.Team),
		matches:     make(map[string]match.Match),
		leagueByKey: make(map[string]string),
		teamByKey:   make(map[string]string),
		nextMatchID: 1,
	}
}

func (s *snapshot) clone() *snapshot {
	return &snapshot{
		leagues:     maps.Clone(s.leagues),
		leagueOrder: append([]string(nil), s.leagueOrder...),
		teams:       maps.Clone(s.teams),
		teamOrder:   append([]string(nil), s.teamOrder...),
		matches:     maps.Clone(s.matches),
		matchOrder:  append([]string(nil), s.matchOrder...),
		nextMatchID: s.nextMatchID,
		leagueByKey: maps.Clone(s.leagueByKey),
		teamByKey:   maps.Clone(s.teamByKey),
	}
}

// Store keeps leagues, teams and matches in process. Readers load the
// current snapshot without locking; writers serialize on mu.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[snapshot]
	now     func() time.Time
}

func NewStore() *Store {
	s := &Store{now: time.Now}
	s.current.Store(emptySnapshot())
	return s
}

func (s *Store) load() *snapshot {
	return s.current.Load()
}

// update runs fn on a private copy and publishes it only when fn succeeds
// and ctx is still live.
func (s *Store) update(ctx context.Context, fn func(next *snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.load().clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit aborted: %w", err)
	}
	s.current.Store(next)
	return nil
}

// Ensure satisfies the schema guard contract; the memory store has no schema.
func (s *Store) Ensure(context.Context) error {
	return nil
}

func (s *Store) Leagues() *LeagueRepository {
	return &LeagueRepository{store: s}
}

func (s *Store) Teams() *TeamRepository {
	return &TeamRepository{store: s}
}

func (s *Store) Matches() *MatchRepository {
	return &MatchRepository{store: s}
}
