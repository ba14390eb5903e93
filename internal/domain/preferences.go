// Package domain contains the core types for debate matchmaking:
// participant sessions, preference vectors, invitations, and match scoring.
package domain

// Wildcard sentinel values. A participant who selects one of these is
// compatible with any value on the other side. They are first-class members
// of the preference vocabulary, not ad hoc string comparisons: the clients
// send them verbatim.
const (
	AnyAge      = "Any age"
	AnyLanguage = "Any language"
	AnyCountry  = "Any country"

	// NoUniversityPreference is the university field's "unset" marker.
	// Unlike the other wildcards it never earns match credit: university
	// only scores when both sides name the same institution.
	NoUniversityPreference = "No preference"
)

// Preferences is the immutable-per-request vector describing what a
// participant is looking for in a debate partner.
type Preferences struct {
	Category   string `json:"category"`
	Topic      string `json:"topic"`
	AgeRange   string `json:"ageRange"`
	Language   string `json:"language"`
	Country    string `json:"country"`
	University string `json:"university,omitempty"`
}

// AgeFilter returns the age range and whether it narrows the candidate set.
func (p Preferences) AgeFilter() (string, bool) {
	return p.AgeRange, p.AgeRange != "" && p.AgeRange != AnyAge
}

// LanguageFilter returns the language and whether it narrows the candidate set.
func (p Preferences) LanguageFilter() (string, bool) {
	return p.Language, p.Language != "" && p.Language != AnyLanguage
}

// CountryFilter returns the country and whether it narrows the candidate set.
func (p Preferences) CountryFilter() (string, bool) {
	return p.Country, p.Country != "" && p.Country != AnyCountry
}

// UniversityFilter returns the university and whether it narrows the candidate set.
func (p Preferences) UniversityFilter() (string, bool) {
	return p.University, p.University != "" && p.University != NoUniversityPreference
}
