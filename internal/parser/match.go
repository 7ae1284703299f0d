package parser

import (
	"strings"

	"github.com/thorfit/thor/internal/model"
)

// Match is the result of resolving a free-text exercise mention against the
// day's catalog. A zero Match (nil Entry, empty CanonicalName) means the
// mention is unknown for this day; callers must skip it, never guess.
type Match struct {
	Entry         *model.Exercise
	CanonicalName string
}

// MatchExercise resolves a raw exercise mention against catalog candidates.
// The cascade is case-insensitive and first-hit-wins:
//
//  1. exact equality with a candidate's canonical name
//  2. exact equality with any of a candidate's aliases
//  3. candidate's canonical name contains the free text as a substring
//
// An exact-name match is always preferred over an alias match, and an alias
// match over a substring match, even when several candidates qualify.
func MatchExercise(freeText string, candidates []model.Exercise) Match {
	needle := strings.ToLower(strings.TrimSpace(freeText))
	if needle == "" {
		return Match{}
	}

	for i := range candidates {
		if strings.ToLower(candidates[i].Name) == needle {
			return Match{Entry: &candidates[i], CanonicalName: candidates[i].Name}
		}
	}

	for i := range candidates {
		for _, alias := range candidates[i].Aliases {
			if strings.ToLower(alias) == needle {
				return Match{Entry: &candidates[i], CanonicalName: candidates[i].Name}
			}
		}
	}

	for i := range candidates {
		if strings.Contains(strings.ToLower(candidates[i].Name), needle) {
			return Match{Entry: &candidates[i], CanonicalName: candidates[i].Name}
		}
	}

	return Match{}
}
