package match

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Normalized is the typed form of a Fragment. Field names in validation
// errors use the json tag so they match the store columns.
type Normalized struct {
	SourceID      string    `json:"source_id" validate:"required"`
	HomeTeamName  string    `json:"home_team_name" validate:"required"`
	AwayTeamName  string    `json:"away_team_name" validate:"required"`
	HomeScore     *int      `json:"home_score" validate:"omitempty,min=0"`
	AwayScore     *int      `json:"away_score" validate:"omitempty,min=0"`
	Status        Status    `json:"status" validate:"required,match_status"`
	IsLive        bool      `json:"is_live"`
	CurrentMinute *int      `json:"current_minute" validate:"omitempty,min=0"`
	MatchTime     string    `json:"match_time" validate:"omitempty,len=5"`
	MatchDate     time.Time `json:"match_date" validate:"required"`
	Stage         string    `json:"stage"`
	LeagueName    string    `json:"league_name"`
	LeagueCountry string    `json:"league_country"`
	LeagueLogoSrc string    `json:"league_logo_src"`
	HomeLogoSrc   string    `json:"home_logo_src"`
	AwayLogoSrc   string    `json:"away_logo_src"`
	URL           string    `json:"url"`
	HasTV         bool      `json:"has_tv"`
	HasAudio      bool      `json:"has_audio"`
	HasInfo       bool      `json:"has_info"`
}

// FieldError names the first field of a Normalized that breaks an invariant.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("match_status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks the struct tags, then the cross-field invariants: scores
// come in pairs, the minute only exists while live, and is_live mirrors status.
func (n Normalized) Validate() error {
	if err := validate.Struct(n); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &FieldError{Field: fe.Field(), Reason: describeTag(fe)}
		}
		return &FieldError{Field: "match", Reason: err.Error()}
	}

	if (n.HomeScore == nil) != (n.AwayScore == nil) {
		return &FieldError{Field: "score", Reason: "home and away scores must both be present or both absent"}
	}
	if n.IsLive != (n.Status == StatusLive) {
		return &FieldError{Field: "is_live", Reason: fmt.Sprintf("is_live=%t contradicts status %s", n.IsLive, n.Status)}
	}
	if n.CurrentMinute != nil && !n.IsLive {
		return &FieldError{Field: "current_minute", Reason: "minute is only kept for live matches"}
	}

	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return "must be >= " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "match_status":
		return fmt.Sprintf("unknown status %v", fe.Value())
	default:
		return "failed " + fe.Tag()
	}
}
