package domain

import "math"

// Match score weights. They sum to 100 today, but Score keeps the explicit
// satisfied/total ratio so the weights can change without touching callers.
const (
	weightCategory   = 40
	weightTopic      = 30
	weightAgeRange   = 10
	weightLanguage   = 10
	weightCountry    = 5
	weightUniversity = 5
)

// Score computes the compatibility score between two preference vectors,
// in [0, 100]. Category and topic require exact equality; age range,
// language and country also accept a wildcard on either side; university
// earns credit only when both sides name the same non-empty institution.
//
// Pure and symmetric: Score(a, b) == Score(b, a).
func Score(a, b Preferences) int {
	score := 0
	total := 0

	if a.Category == b.Category {
		score += weightCategory
	}
	total += weightCategory

	if a.Topic == b.Topic {
		score += weightTopic
	}
	total += weightTopic

	if a.AgeRange == b.AgeRange || a.AgeRange == AnyAge || b.AgeRange == AnyAge {
		score += weightAgeRange
	}
	total += weightAgeRange

	if a.Language == b.Language || a.Language == AnyLanguage || b.Language == AnyLanguage {
		score += weightLanguage
	}
	total += weightLanguage

	if a.Country == b.Country || a.Country == AnyCountry || b.Country == AnyCountry {
		score += weightCountry
	}
	total += weightCountry

	if a.University != "" && b.University != "" && a.University == b.University {
		score += weightUniversity
	}
	total += weightUniversity

	return int(math.Round(float64(score) / float64(total) * 100))
}
