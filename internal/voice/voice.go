// Package voice picks a synthesis voice for a requested locale.
package voice

import (
	"strings"

	"github.com/nadzzz/translynk/internal/language"
)

// Voice is one voice installed on a synthesis engine.
type Voice struct {
	Locale string `json:"locale"`
	Name   string `json:"name"`
}

// Candidate is the outcome of a successful resolution.
type Candidate struct {
	Locale       string
	Name         string
	IsExactMatch bool
}

// Resolve returns the best voice for requestedLocale.
//
// An exact locale match wins; otherwise the first voice sharing the primary
// subtag is returned. Locale comparison ignores case and treats "-" and "_"
// as the same separator. When nothing matches, ok is false and the caller
// speaks with the engine's default voice for the locale.
//
// Resolve must only be called once the voice inventory is fully enumerated.
func Resolve(requestedLocale string, voices []Voice) (c Candidate, ok bool) {
	want := normalize(requestedLocale)
	if want == "" {
		return Candidate{}, false
	}

	for _, v := range voices {
		if normalize(v.Locale) == want {
			return Candidate{Locale: v.Locale, Name: v.Name, IsExactMatch: true}, true
		}
	}

	prefix := language.Base(want)
	for _, v := range voices {
		if language.Base(normalize(v.Locale)) == prefix {
			return Candidate{Locale: v.Locale, Name: v.Name}, true
		}
	}

	return Candidate{}, false
}

func normalize(locale string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}
