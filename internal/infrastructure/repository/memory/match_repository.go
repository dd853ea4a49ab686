package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/riskibarqy/livescore-sync/internal/domain/match"
)

type MatchRepository struct {
	store *Store
}

// ApplyBatch publishes the whole batch as one snapshot or nothing.
func (r *MatchRepository) ApplyBatch(ctx context.Context, batch match.Batch) (match.BatchResult, error) {
	now := batch.Now
	if now.IsZero() {
		now = r.store.now()
	}

	var result match.BatchResult
	err := r.store.update(ctx, func(next *snapshot) error {
		result = match.BatchResult{IDRemap: make(map[string]string)}

		for _, l := range batch.Leagues {
			if err := l.Validate(); err != nil {
				return err
			}
			if storedID, ok := next.leagueByKey[l.Key]; ok {
				if storedID != l.ID {
					result.IDRemap[l.ID] = storedID
				}
				continue
			}
			if _, ok := next.leagues[l.ID]; ok {
				return fmt.Errorf("league id %s already used by another key", l.ID)
			}
			l.CreatedAt, l.UpdatedAt = now, now
			next.leagues[l.ID] = l
			next.leagueByKey[l.Key] = l.ID
			next.leagueOrder = append(next.leagueOrder, l.ID)
			result.LeaguesCreated++
		}

		for _, t := range batch.Teams {
			if err := t.Validate(); err != nil {
				return err
			}
			if storedID, ok := next.teamByKey[t.Key]; ok {
				if storedID != t.ID {
					result.IDRemap[t.ID] = storedID
				}
				continue
			}
			if _, ok := next.teams[t.ID]; ok {
				return fmt.Errorf("team id %s already used by another key", t.ID)
			}
			t.CreatedAt, t.UpdatedAt = now, now
			next.teams[t.ID] = t
			next.teamByKey[t.Key] = t.ID
			next.teamOrder = append(next.teamOrder, t.ID)
			result.TeamsCreated++
		}

		for _, m := range batch.Matches {
			m.LeagueID = result.Canonical(m.LeagueID)
			m.HomeTeamID = result.Canonical(m.HomeTeamID)
			m.AwayTeamID = result.Canonical(m.AwayTeamID)
			if err := checkReferences(next, m); err != nil {
				return err
			}

			row := toMatch(m)
			if existing, ok := next.matches[m.SourceID]; ok {
				if existing.SameState(m) {
					result.Unchanged++
				} else {
					result.Updated++
				}
				row.ID = existing.ID
				row.ScrapedAt = existing.ScrapedAt
				row.UpdatedAt = now
				next.matches[m.SourceID] = row
				continue
			}

			row.ID = next.nextMatchID
			next.nextMatchID++
			row.ScrapedAt, row.UpdatedAt = now, now
			next.matches[m.SourceID] = row
			next.matchOrder = append(next.matchOrder, m.SourceID)
			result.Inserted++
		}
		return nil
	})
	if err != nil {
		return match.BatchResult{}, fmt.Errorf("apply batch: %w", err)
	}

	return result, nil
}

func checkReferences(snap *snapshot, m match.Resolved) error {
	if err := m.Normalized.Validate(); err != nil {
		return fmt.Errorf("match %s: %w", m.SourceID, err)
	}
	if m.HomeTeamID == "" || m.AwayTeamID == "" {
		return fmt.Errorf("match %s: team ids are required", m.SourceID)
	}
	if m.HomeTeamID == m.AwayTeamID {
		return fmt.Errorf("match %s: home and away team are the same", m.SourceID)
	}
	if _, ok := snap.teams[m.HomeTeamID]; !ok {
		return fmt.Errorf("match %s: unknown home team %s", m.SourceID, m.HomeTeamID)
	}
	if _, ok := snap.teams[m.AwayTeamID]; !ok {
		return fmt.Errorf("match %s: unknown away team %s", m.SourceID, m.AwayTeamID)
	}
	if m.LeagueID != "" {
		if _, ok := snap.leagues[m.LeagueID]; !ok {
			return fmt.Errorf("match %s: unknown league %s", m.SourceID, m.LeagueID)
		}
	}
	return nil
}

func toMatch(m match.Resolved) match.Match {
	return match.Match{
		SourceID:      m.SourceID,
		LeagueID:      m.LeagueID,
		HomeTeamID:    m.HomeTeamID,
		AwayTeamID:    m.AwayTeamID,
		HomeScore:     m.HomeScore,
		AwayScore:     m.AwayScore,
		Status:        m.Status,
		MatchTime:     m.MatchTime,
		MatchDate:     m.MatchDate,
		IsLive:        m.IsLive,
		HasTV:         m.HasTV,
		HasAudio:      m.HasAudio,
		HasInfo:       m.HasInfo,
		CurrentMinute: m.CurrentMinute,
		URL:           m.URL,
		Stage:         m.Stage,
	}
}

// hydrate joins the names and logos current in snap.
func hydrate(snap *snapshot, m match.Match) match.Match {
	if l, ok := snap.leagues[m.LeagueID]; ok {
		m.LeagueName, m.LeagueCountry, m.LeagueLogoURL = l.Name, l.Country, l.LogoURL
	}
	if t, ok := snap.teams[m.HomeTeamID]; ok {
		m.HomeTeamName, m.HomeTeamLogo = t.Name, t.LogoURL
	}
	if t, ok := snap.teams[m.AwayTeamID]; ok {
		m.AwayTeamName, m.AwayTeamLogo = t.Name, t.LogoURL
	}
	return m
}

func (r *MatchRepository) List(_ context.Context, filter match.Filter) ([]match.Match, error) {
	snap := r.store.load()
	league := strings.ToLower(strings.TrimSpace(filter.League))
	team := strings.ToLower(strings.TrimSpace(filter.Team))

	out := make([]match.Match, 0, len(snap.matchOrder))
	for _, sourceID := range snap.matchOrder {
		m := hydrate(snap, snap.matches[sourceID])
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if league != "" && !strings.Contains(strings.ToLower(m.LeagueName), league) {
			continue
		}
		if team != "" &&
			!strings.Contains(strings.ToLower(m.HomeTeamName), team) &&
			!strings.Contains(strings.ToLower(m.AwayTeamName), team) {
			continue
		}
		out = append(out, m)
	}

	slices.SortStableFunc(out, func(a, b match.Match) int {
		return cmp.Or(
			a.MatchDate.Compare(b.MatchDate),
			cmp.Compare(a.MatchTime, b.MatchTime),
			cmp.Compare(a.ID, b.ID),
		)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func (r *MatchRepository) GetBySourceID(_ context.Context, sourceID string) (match.Match, bool, error) {
	snap := r.store.load()

	m, ok := snap.matches[sourceID]
	if !ok {
		return match.Match{}, false, nil
	}
	return hydrate(snap, m), true, nil
}

func (r *MatchRepository) CountByStatus(_ context.Context) (map[match.Status]int, error) {
	snap := r.store.load()

	out := make(map[match.Status]int)
	for _, m := range snap.matches {
		out[m.Status]++
	}
	return out, nil
}
