// Package locale implements the LocMap value object: a mapping from
// locale code to translated string with a mandatory "en" entry, plus
// fallback resolution using golang.org/x/text/language so a request for
// an unsupported or malformed tag degrades gracefully to English.
package locale

import (
	"golang.org/x/text/language"
)

// Map is a locale -> translated string mapping. "en" must always be
// present for any Map constructed via New; callers that build one by
// hand (e.g. round-tripping from storage) are responsible for that
// invariant, and Get enforces it at read time regardless.
type Map map[string]string

// New creates a Map with the mandatory English entry.
func New(en string) Map {
	return Map{"en": en}
}

// With returns a copy of m with locale set to value.
func (m Map) With(locale, value string) Map {
	out := make(Map, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[locale] = value
	return out
}

// matcher caches the language.Matcher for the supported tag set so Get
// doesn't rebuild it on every lookup.
var supportedTags = []language.Tag{language.English, language.Korean}
var matcher = language.NewMatcher(supportedTags)

// Get resolves locale to a string, falling back to "en" when the exact
// locale is absent, and to the empty string if "en" itself is missing
// (which should not happen for a valid Map).
func (m Map) Get(locale string) string {
	if v, ok := m[locale]; ok {
		return v
	}

	if tag, err := language.Parse(locale); err == nil {
		_, index, _ := matcher.Match(tag)
		base, _ := supportedTags[index].Base()
		if v, ok := m[base.String()]; ok {
			return v
		}
	}

	return m["en"]
}

// Valid reports whether m carries the mandatory "en" entry.
func (m Map) Valid() bool {
	_, ok := m["en"]
	return ok
}
