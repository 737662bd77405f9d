// Package mapper reconciles identifiers between the fantasy provider and the
// NHL API: team abbreviation variants and accent-folded player names.
package mapper

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// teamAbbrs maps the fantasy provider's short forms to NHL API abbreviations.
var teamAbbrs = map[string]string{
	"TB": "TBL",
	"NJ": "NJD",
	"SJ": "SJS",
	"LA": "LAK",
}

// NormalizeTeam converts a provider team abbreviation to the NHL API form.
// Unknown abbreviations pass through unchanged.
func NormalizeTeam(abbr string) string {
	abbr = strings.ToUpper(strings.TrimSpace(abbr))
	if mapped, ok := teamAbbrs[abbr]; ok {
		return mapped
	}
	return abbr
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases a player name and strips diacritics so that
// provider spellings ("Stutzle") match NHL spellings ("Stützle").
func NormalizeName(name string) string {
	folded, _, err := transform.String(accentFolder, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// SameName reports whether two player names refer to the same player after
// normalization.
func SameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}
