package usecase

import (
	"time"

	"github.com/riskibarqy/livescore-sync/internal/domain/match"
)

// MatchRecord is the flat read shape shared by the API and the JSON export.
// Field names follow the matches table plus the joined names.
type MatchRecord struct {
	ID            int64        `json:"id"`
	MatchID       string       `json:"match_id"`
	LeagueID      string       `json:"league_id,omitempty"`
	LeagueName    string       `json:"league_name,omitempty"`
	LeagueCountry string       `json:"league_country,omitempty"`
	LeagueLogoURL string       `json:"league_logo_url,omitempty"`
	HomeTeamID    string       `json:"home_team_id"`
	HomeTeamName  string       `json:"home_team_name"`
	HomeTeamLogo  string       `json:"home_team_logo,omitempty"`
	AwayTeamID    string       `json:"away_team_id"`
	AwayTeamName  string       `json:"away_team_name"`
	AwayTeamLogo  string       `json:"away_team_logo,omitempty"`
	HomeScore     *int         `json:"home_score"`
	AwayScore     *int         `json:"away_score"`
	MatchStatus   match.Status `json:"match_status"`
	MatchTime     string       `json:"match_time,omitempty"`
	MatchDate     string       `json:"match_date"`
	IsLive        bool         `json:"is_live"`
	HasTVIcon     bool         `json:"has_tv_icon"`
	HasAudioIcon  bool         `json:"has_audio_icon"`
	HasInfoIcon   bool         `json:"has_info_icon"`
	CurrentMinute *int         `json:"current_minute"`
	MatchURL      string       `json:"match_url,omitempty"`
	MatchStage    string       `json:"match_stage,omitempty"`
	ScrapedAt     time.Time    `json:"scraped_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func NewMatchRecord(m match.Match) MatchRecord {
	return MatchRecord{
		ID:            m.ID,
		MatchID:       m.SourceID,
		LeagueID:      m.LeagueID,
		LeagueName:    m.LeagueName,
		LeagueCountry: m.LeagueCountry,
		LeagueLogoURL: m.LeagueLogoURL,
		HomeTeamID:    m.HomeTeamID,
		HomeTeamName:  m.HomeTeamName,
		HomeTeamLogo:  m.HomeTeamLogo,
		AwayTeamID:    m.AwayTeamID,
		AwayTeamName:  m.AwayTeamName,
		AwayTeamLogo:  m.AwayTeamLogo,
		HomeScore:     m.HomeScore,
		AwayScore:     m.AwayScore,
		MatchStatus:   m.Status,
		MatchTime:     m.MatchTime,
		MatchDate:     m.MatchDate.Format(time.DateOnly),
		IsLive:        m.IsLive,
		HasTVIcon:     m.HasTV,
		HasAudioIcon:  m.HasAudio,
		HasInfoIcon:   m.HasInfo,
		CurrentMinute: m.CurrentMinute,
		MatchURL:      m.URL,
		MatchStage:    m.Stage,
		ScrapedAt:     m.ScrapedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func NewMatchRecords(items []match.Match) []MatchRecord {
	out := make([]MatchRecord, 0, len(items))
	for _, m := range items {
		out = append(out, NewMatchRecord(m))
	}
	return out
}
