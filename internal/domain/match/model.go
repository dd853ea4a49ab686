package match

import "time"

// Match is a persisted fixture together with the names it references, as
// read back for the API and export.
type Match struct {
	ID            int64
	SourceID      string
	LeagueID      string
	LeagueName    string
	LeagueCountry string
	LeagueLogoURL string
	HomeTeamID    string
	HomeTeamName  string
	HomeTeamLogo  string
	AwayTeamID    string
	AwayTeamName  string
	AwayTeamLogo  string
	HomeScore     *int
	AwayScore     *int
	Status        Status
	MatchTime     string
	MatchDate     time.Time
	IsLive        bool
	HasTV         bool
	HasAudio      bool
	HasInfo       bool
	CurrentMinute *int
	URL           string
	Stage         string
	ScrapedAt     time.Time
	UpdatedAt     time.Time
}

// Resolved is a Normalized match with its league and team ids attached.
// LeagueID is empty when the row appeared before any league header.
type Resolved struct {
	Normalized
	LeagueID   string
	HomeTeamID string
	AwayTeamID string
}

// Filter narrows List. Text filters are case-insensitive substrings.
type Filter struct {
	Status Status
	League string
	Team   string
	Limit  int
}

// SameState reports whether a stored row already holds what r would write.
func (m Match) SameState(r Resolved) bool {
	return m.LeagueID == r.LeagueID &&
		m.HomeTeamID == r.HomeTeamID &&
		m.AwayTeamID == r.AwayTeamID &&
		equalInt(m.HomeScore, r.HomeScore) &&
		equalInt(m.AwayScore, r.AwayScore) &&
		m.Status == r.Status &&
		m.IsLive == r.IsLive &&
		equalInt(m.CurrentMinute, r.CurrentMinute) &&
		m.MatchTime == r.MatchTime &&
		m.MatchDate.Equal(r.MatchDate) &&
		m.HasTV == r.HasTV &&
		m.HasAudio == r.HasAudio &&
		m.HasInfo == r.HasInfo &&
		m.URL == r.URL &&
		m.Stage == r.Stage
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
