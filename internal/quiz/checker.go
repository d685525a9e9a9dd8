// Package quiz decides whether a free-text answer matches a stored one.
package quiz

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
)

const (
	// DefaultSimilarity is the edit-distance acceptance threshold on a
	// 0-100 scale.
	DefaultSimilarity = 75.0
	// DefaultOverlap is the keyword-overlap acceptance threshold.
	DefaultOverlap = 0.6
)

// Checker applies a two-tier equivalence test: approximate string
// similarity first, keyword overlap as the fallback. It holds no state
// beyond its thresholds and is safe for concurrent use.
type Checker struct {
	similarity float64
	overlap    float64
}

// NewChecker validates the thresholds up front: similarity must lie in
// [0, 100] and overlap in [0, 1].
func NewChecker(similarity, overlap float64) (*Checker, error) {
	if similarity < 0 || similarity > 100 {
		return nil, fmt.Errorf("similarity threshold %v outside [0, 100]", similarity)
	}
	if overlap < 0 || overlap > 1 {
		return nil, fmt.Errorf("overlap threshold %v outside [0, 1]", overlap)
	}
	return &Checker{similarity: similarity, overlap: overlap}, nil
}

// Check reports whether the user's answer is equivalent to the stored
// answer. Both strings are lowercased and trimmed; the edit-distance
// ratio is tried first, then keyword overlap. Deterministic and free of
// session state.
func (c *Checker) Check(userAnswer, storedAnswer string) bool {
	user := strings.ToLower(strings.TrimSpace(userAnswer))
	stored := strings.ToLower(strings.TrimSpace(storedAnswer))
	if user == "" || stored == "" {
		return user == stored
	}

	ratio := levenshtein.Similarity(user, stored, nil) * 100
	if ratio >= c.similarity {
		return true
	}

	return keywordOverlap(user, stored) >= c.overlap
}

// keywordOverlap measures how much of one answer's vocabulary appears in
// the other's. It takes the larger of the two directed fractions so that
// a short paraphrase whose words are all grounded in the stored answer
// still passes.
func keywordOverlap(user, stored string) float64 {
	userSet := tokenSet(user)
	storedSet := tokenSet(stored)
	if len(userSet) == 0 || len(storedSet) == 0 {
		return 0
	}

	shared := 0
	for tok := range storedSet {
		if _, ok := userSet[tok]; ok {
			shared++
		}
	}

	storedFrac := float64(shared) / float64(len(storedSet))
	userFrac := float64(shared) / float64(len(userSet))
	if userFrac > storedFrac {
		return userFrac
	}
	return storedFrac
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		tok = strings.Trim(tok, ".,;:!?\"'()")
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}
