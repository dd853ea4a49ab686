package match

// LeagueContext is the header in effect for a run of rows.
type LeagueContext struct {
	Name    string
	Country string
	LogoSrc string
}

// Fragment is one match row exactly as found in the page markup.
// Every field is raw text; nothing is validated.
type Fragment struct {
	SourceID    string
	HomeName    string
	AwayName    string
	HomeScore   string
	AwayScore   string
	StatusText  string
	StateHint   Status
	MinuteText  string
	TimeText    string
	League      LeagueContext
	HasTV       bool
	HasAudio    bool
	HasInfo     bool
	URL         string
	HomeLogoSrc string
	AwayLogoSrc string
}
