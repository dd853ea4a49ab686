package usecase

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/livescore-sync/internal/domain/identity"
	"github.com/riskibarqy/livescore-sync/internal/domain/match"
)

// Stage texts as the Portuguese and English site variants print them,
// compared after identity.Fold.
var exactStatuses = map[string]match.Status{
	"terminado":     match.StatusFinished,
	"apos pen.":     match.StatusFinished,
	"apos pen":      match.StatusFinished,
	"apos prol.":    match.StatusFinished,
	"apos prol":     match.StatusFinished,
	"fim":           match.StatusFinished,
	"ft":            match.StatusFinished,
	"aet":           match.StatusFinished,
	"pen":           match.StatusFinished,
	"finished":      match.StatusFinished,
	"intervalo":     match.StatusLive,
	"1ª parte":      match.StatusLive,
	"2ª parte":      match.StatusLive,
	"1a parte":      match.StatusLive,
	"2a parte":      match.StatusLive,
	"prolongamento": match.StatusLive,
	"penaltis":      match.StatusLive,
	"ao vivo":       match.StatusLive,
	"ht":            match.StatusLive,
	"live":          match.StatusLive,
	"adiado":        match.StatusPostponed,
	"postponed":     match.StatusPostponed,
	"cancelado":     match.StatusCancelled,
	"abandonado":    match.StatusCancelled,
	"interrompido":  match.StatusCancelled,
	"canceled":      match.StatusCancelled,
	"cancelled":     match.StatusCancelled,
	"agendado":      match.StatusScheduled,
	"scheduled":     match.StatusScheduled,
}

// Keywords searched inside longer stage texts such as "Terminado após pen.".
// Order matters: cancellation wins over anything else in the same text.
var statusKeywords = []struct {
	word   string
	status match.Status
}{
	{"cancel", match.StatusCancelled},
	{"abandon", match.StatusCancelled},
	{"interromp", match.StatusCancelled},
	{"adiado", match.StatusPostponed},
	{"postpon", match.StatusPostponed},
	{"terminado", match.StatusFinished},
	{"apos pen", match.StatusFinished},
	{"apos prol", match.StatusFinished},
	{"intervalo", match.StatusLive},
	{"parte", match.StatusLive},
	{"prolongamento", match.StatusLive},
	{"penaltis", match.StatusLive},
	{"ao vivo", match.StatusLive},
}

var (
	minutePattern   = regexp.MustCompile(`^(\d{1,3})(?:\+(\d{1,2}))?['’]?$`)
	numericPattern  = regexp.MustCompile(`^[+-]?\d+(?:[.,]\d+)?$`)
	clockPattern    = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	datedPattern    = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.?\s*(\d{1,2}):(\d{2})$`)
	scoreDashValues = map[string]struct{}{"-": {}, "–": {}, "—": {}}
)

// Normalizer converts raw fragments into typed matches. It holds no state
// besides the timezone used to turn the reference time into a calendar date.
type Normalizer struct {
	loc *time.Location
}

func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Rejection records a fragment dropped from the batch.
type Rejection struct {
	SourceID string `json:"source_id"`
	Field    string `json:"field"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

// NormalizeBatch never fails as a whole: invalid fragments come back as
// rejections. A source id seen twice keeps the later fragment at the
// earlier position.
func (n *Normalizer) NormalizeBatch(fragments []match.Fragment, ref time.Time) ([]match.Normalized, []Rejection) {
	out := make([]match.Normalized, 0, len(fragments))
	positions := make(map[string]int, len(fragments))
	var rejections []Rejection

	for _, f := range fragments {
		nm, err := n.Normalize(f, ref)
		if err != nil {
			rejection := Rejection{SourceID: f.SourceID, Reason: err.Error(), Err: err}
			var verr *ValidationError
			if crerr.As(err, &verr) {
				rejection.Field = verr.Field
				rejection.Reason = verr.Reason
			}
			rejections = append(rejections, rejection)
			continue
		}
		if pos, ok := positions[nm.SourceID]; ok {
			out[pos] = nm
			continue
		}
		positions[nm.SourceID] = len(out)
		out = append(out, nm)
	}

	return out, rejections
}

// Normalize is deterministic for a given fragment and reference time.
func (n *Normalizer) Normalize(f match.Fragment, ref time.Time) (match.Normalized, error) {
	sourceID := strings.TrimSpace(f.SourceID)
	invalid := func(field, reason string) (match.Normalized, error) {
		return match.Normalized{}, &ValidationError{SourceID: sourceID, Field: field, Reason: reason}
	}

	if sourceID == "" {
		return invalid("source_id", "required")
	}

	home := identity.CleanName(f.HomeName)
	away := identity.CleanName(f.AwayName)
	if home == "" {
		return invalid("home_team_name", "required")
	}
	if away == "" {
		return invalid("away_team_name", "required")
	}
	if identity.TeamKey(home) == identity.TeamKey(away) {
		return invalid("away_team_name", fmt.Sprintf("same team as home side %q", home))
	}

	homeScore, err := parseScore(f.HomeScore)
	if err != nil {
		return invalid("home_score", err.Error())
	}
	awayScore, err := parseScore(f.AwayScore)
	if err != nil {
		return invalid("away_score", err.Error())
	}
	if (homeScore == nil) != (awayScore == nil) {
		return invalid("score", "home and away scores must both be present or both absent")
	}

	status := resolveStatus(f.StatusText, f.StateHint)
	var minute *int
	if status == match.StatusLive {
		minute = parseMinute(f.MinuteText)
		if minute == nil {
			minute = parseMinute(f.StatusText)
		}
	}

	matchTime, matchDate := n.parseSchedule(f.TimeText, ref)
	stage := identity.CleanName(f.StatusText)

	nm := match.Normalized{
		SourceID:      sourceID,
		HomeTeamName:  home,
		AwayTeamName:  away,
		HomeScore:     homeScore,
		AwayScore:     awayScore,
		Status:        status,
		IsLive:        status == match.StatusLive,
		CurrentMinute: minute,
		MatchTime:     matchTime,
		MatchDate:     matchDate,
		Stage:         stage,
		LeagueName:    identity.CleanName(f.League.Name),
		LeagueCountry: identity.CleanName(f.League.Country),
		LeagueLogoSrc: absoluteURL(f.League.LogoSrc),
		HomeLogoSrc:   absoluteURL(f.HomeLogoSrc),
		AwayLogoSrc:   absoluteURL(f.AwayLogoSrc),
		URL:           absoluteURL(f.URL),
		HasTV:         f.HasTV,
		HasAudio:      f.HasAudio,
		HasInfo:       f.HasInfo,
	}
	if err := nm.Validate(); err != nil {
		var fe *match.FieldError
		if crerr.As(err, &fe) {
			return invalid(fe.Field, fe.Reason)
		}
		return invalid("match", err.Error())
	}

	return nm, nil
}

func resolveStatus(stageText string, hint match.Status) match.Status {
	folded := identity.Fold(stageText)
	if folded == "" {
		if hint.Valid() {
			return hint
		}
		return match.StatusUnknown
	}
	if status, ok := exactStatuses[folded]; ok {
		return status
	}
	if minutePattern.MatchString(strings.ReplaceAll(folded, " ", "")) {
		return match.StatusLive
	}
	for _, kw := range statusKeywords {
		if strings.Contains(folded, kw.word) {
			return kw.status
		}
	}
	return match.StatusUnknown
}

// parseScore returns nil for blanks, dashes and text; an error for numbers
// that cannot be a score.
func parseScore(raw string) (*int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if _, dash := scoreDashValues[s]; dash {
		return nil, nil
	}
	if !numericPattern.MatchString(s) {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("score %q is not an integer", s)
	}
	if v < 0 {
		return nil, fmt.Errorf("score %q is negative", s)
	}
	return &v, nil
}

// parseMinute reads "23'", "45+2'" (stoppage time is added: 47) or "90".
func parseMinute(raw string) *int {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	m := minutePattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	minute, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	if m[2] != "" {
		extra, err := strconv.Atoi(m[2])
		if err != nil {
			return nil
		}
		minute += extra
	}
	return &minute
}

// parseSchedule returns the kickoff time of day and the calendar date.
// Only "HH:MM" and "dd.mm. HH:MM" carry a time; the date defaults to the
// reference date in the normalizer's timezone. A "dd.mm." date takes the
// year nearest the reference date.
func (n *Normalizer) parseSchedule(raw string, ref time.Time) (string, time.Time) {
	local := ref.In(n.loc)
	refDate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	s := strings.TrimSpace(raw)
	if m := clockPattern.FindStringSubmatch(s); m != nil {
		if clock, ok := formatClock(m[1], m[2]); ok {
			return clock, refDate
		}
		return "", refDate
	}
	if m := datedPattern.FindStringSubmatch(s); m != nil {
		clock, ok := formatClock(m[3], m[4])
		if !ok {
			return "", refDate
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if date, ok := nearestDate(day, month, refDate); ok {
			return clock, date
		}
		return clock, refDate
	}
	return "", refDate
}

// nearestDate places a year-less day and month in the year that brings it
// closest to ref, so "31.12." read on 1 January lands in the previous year.
func nearestDate(day, month int, ref time.Time) (time.Time, bool) {
	var best time.Time
	found := false
	for year := ref.Year() - 1; year <= ref.Year()+1; year++ {
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if date.Day() != day || int(date.Month()) != month {
			continue
		}
		if !found || absDuration(date.Sub(ref)) < absDuration(best.Sub(ref)) {
			best, found = date, true
		}
	}
	return best, found
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func formatClock(hour, minute string) (string, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil || h > 23 {
		return "", false
	}
	m, err := strconv.Atoi(minute)
	if err != nil || m > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}

func absoluteURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ""
	}
	return u.String()
}
