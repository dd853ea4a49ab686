package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/livescore-sync/internal/domain/match"
)

type matchTableModel struct {
	ID            int64          `db:"id"`
	MatchID       string         `db:"match_id"`
	LeagueID      sql.NullString `db:"league_id"`
	HomeTeamID    string         `db:"home_team_id"`
	AwayTeamID    string         `db:"away_team_id"`
	HomeScore     sql.NullInt64  `db:"home_score"`
	AwayScore     sql.NullInt64  `db:"away_score"`
	MatchStatus   string         `db:"match_status"`
	MatchTime     string         `db:"match_time"`
	MatchDate     time.Time      `db:"match_date"`
	IsLive        bool           `db:"is_live"`
	HasTVIcon     bool           `db:"has_tv_icon"`
	HasAudioIcon  bool           `db:"has_audio_icon"`
	HasInfoIcon   bool           `db:"has_info_icon"`
	CurrentMinute sql.NullInt64  `db:"current_minute"`
	MatchURL      string         `db:"match_url"`
	MatchStage    string         `db:"match_stage"`
	ScrapedAt     time.Time      `db:"scraped_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// matchViewModel is a match row with the league and team columns joined in.
type matchViewModel struct {
	matchTableModel
	LeagueName    sql.NullString `db:"league_name"`
	LeagueCountry sql.NullString `db:"league_country"`
	LeagueLogoURL sql.NullString `db:"league_logo_url"`
	HomeTeamName  string         `db:"home_team_name"`
	HomeTeamLogo  string         `db:"home_team_logo"`
	AwayTeamName  string         `db:"away_team_name"`
	AwayTeamLogo  string         `db:"away_team_logo"`
}

type matchInsertModel struct {
	MatchID       string    `db:"match_id"`
	LeagueID      *string   `db:"league_id"`
	HomeTeamID    string    `db:"home_team_id"`
	AwayTeamID    string    `db:"away_team_id"`
	HomeScore     *int      `db:"home_score"`
	AwayScore     *int      `db:"away_score"`
	MatchStatus   string    `db:"match_status"`
	MatchTime     string    `db:"match_time"`
	MatchDate     time.Time `db:"match_date"`
	IsLive        bool      `db:"is_live"`
	HasTVIcon     bool      `db:"has_tv_icon"`
	HasAudioIcon  bool      `db:"has_audio_icon"`
	HasInfoIcon   bool      `db:"has_info_icon"`
	CurrentMinute *int      `db:"current_minute"`
	MatchURL      string    `db:"match_url"`
	MatchStage    string    `db:"match_stage"`
	ScrapedAt     time.Time `db:"scraped_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// matchUpsertSuffix updates every mutable column. scraped_at keeps its
// first-seen value.
const matchUpsertSuffix = `ON CONFLICT (match_id)
DO UPDATE SET
    league_id = EXCLUDED.league_id,
    home_team_id = EXCLUDED.home_team_id,
    away_team_id = EXCLUDED.away_team_id,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    match_status = EXCLUDED.match_status,
    match_time = EXCLUDED.match_time,
    match_date = EXCLUDED.match_date,
    is_live = EXCLUDED.is_live,
    has_tv_icon = EXCLUDED.has_tv_icon,
    has_audio_icon = EXCLUDED.has_audio_icon,
    has_info_icon = EXCLUDED.has_info_icon,
    current_minute = EXCLUDED.current_minute,
    match_url = EXCLUDED.match_url,
    match_stage = EXCLUDED.match_stage,
    updated_at = EXCLUDED.updated_at`

func matchInsertModelFrom(m match.Resolved, now time.Time) matchInsertModel {
	return matchInsertModel{
		MatchID:       m.SourceID,
		LeagueID:      optionalString(m.LeagueID),
		HomeTeamID:    m.HomeTeamID,
		AwayTeamID:    m.AwayTeamID,
		HomeScore:     m.HomeScore,
		AwayScore:     m.AwayScore,
		MatchStatus:   string(m.Status),
		MatchTime:     m.MatchTime,
		MatchDate:     m.MatchDate,
		IsLive:        m.IsLive,
		HasTVIcon:     m.HasTV,
		HasAudioIcon:  m.HasAudio,
		HasInfoIcon:   m.HasInfo,
		CurrentMinute: m.CurrentMinute,
		MatchURL:      m.URL,
		MatchStage:    m.Stage,
		ScrapedAt:     now,
		UpdatedAt:     now,
	}
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:            row.ID,
		SourceID:      row.MatchID,
		LeagueID:      row.LeagueID.String,
		HomeTeamID:    row.HomeTeamID,
		AwayTeamID:    row.AwayTeamID,
		HomeScore:     nullInt64ToIntPtr(row.HomeScore),
		AwayScore:     nullInt64ToIntPtr(row.AwayScore),
		Status:        match.Status(row.MatchStatus),
		MatchTime:     row.MatchTime,
		MatchDate:     row.MatchDate,
		IsLive:        row.IsLive,
		HasTV:         row.HasTVIcon,
		HasAudio:      row.HasAudioIcon,
		HasInfo:       row.HasInfoIcon,
		CurrentMinute: nullInt64ToIntPtr(row.CurrentMinute),
		URL:           row.MatchURL,
		Stage:         row.MatchStage,
		ScrapedAt:     row.ScrapedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func matchFromView(row matchViewModel) match.Match {
	m := matchFromRow(row.matchTableModel)
	m.LeagueName = row.LeagueName.String
	m.LeagueCountry = row.LeagueCountry.String
	m.LeagueLogoURL = row.LeagueLogoURL.String
	m.HomeTeamName = row.HomeTeamName
	m.HomeTeamLogo = row.HomeTeamLogo
	m.AwayTeamName = row.AwayTeamName
	m.AwayTeamLogo = row.AwayTeamLogo
	return m
}
