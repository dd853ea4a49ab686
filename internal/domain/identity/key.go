// Package identity builds the comparison keys used to deduplicate league and
// team mentions. Two names with the same key are the same entity.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letterFolds spells out letters that carry no combining mark under NFD.
var letterFolds = strings.NewReplacer(
	"ø", "o", "Ø", "o",
	"ł", "l", "Ł", "l",
	"đ", "d", "Đ", "d",
	"ð", "d", "Ð", "d",
	"ß", "ss", "ẞ", "ss",
	"æ", "ae", "Æ", "ae",
	"œ", "oe", "Œ", "oe",
	"þ", "th", "Þ", "th",
	"ı", "i",
)

// Fold lowercases, strips combining marks and collapses whitespace.
// "  KAIRAT   Álmaty " and "kairat almaty" fold to the same key, as do
// "Bodø/Glimt" and "Bodo/Glimt".
func Fold(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, letterFolds.Replace(name))
	if err != nil {
		stripped = name
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// CleanName trims and collapses inner whitespace but keeps casing and accents,
// producing the display form of a scraped name.
func CleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// TeamKey is the identity key of a team.
func TeamKey(name string) string {
	return Fold(name)
}

// LeagueKey is the identity key of a league: folded name and country.
func LeagueKey(name, country string) string {
	return Fold(name) + "|" + Fold(country)
}
