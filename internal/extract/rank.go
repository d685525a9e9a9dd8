package extract

import (
	"math/rand"
	"sort"
	"strings"
)

// Dedupe collapses cards whose case-folded, trimmed question text is
// identical, keeping the highest-scoring representative of each group.
// First-occurrence positions are preserved for the survivors.
func Dedupe(cards []ScoredCard) []ScoredCard {
	seen := make(map[string]int, len(cards))
	out := make([]ScoredCard, 0, len(cards))
	for _, c := range cards {
		key := strings.ToLower(strings.TrimSpace(c.Question))
		if i, ok := seen[key]; ok {
			if c.Score > out[i].Score {
				out[i] = c
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, c)
	}
	return out
}

// Rank orders cards by descending score. A non-nil rand shuffles first,
// which only reorders equal-score cards: the stable sort afterwards is
// always the dominant ordering key.
func Rank(cards []ScoredCard, r *rand.Rand) []ScoredCard {
	out := append([]ScoredCard(nil), cards...)
	if r != nil {
		r.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
