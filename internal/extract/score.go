package extract

import (
	"math"
	"strings"
)

// Score assigns a confidence to a candidate. It is a pure function of
// the candidate and the configuration: identical inputs always produce
// identical scores.
func Score(cfg *Config, c Candidate) float64 {
	score := cfg.baseWeight(c.Strategy)

	text := strings.ToLower(c.Question + " " + c.Answer)
	if containsAnyTerm(text, cfg.DomainTerms) {
		score += cfg.DomainBonus
	}
	if containsCue(c.Answer, cfg.HedgeCues) {
		score -= cfg.HedgePenalty
	}

	switch wc := wordCount(c.Answer); {
	case wc < cfg.MinAnswerWords || wc > cfg.MaxAnswerWords:
		score -= cfg.LengthPenalty
	case wc >= cfg.RichAnswerMin && wc <= cfg.RichAnswerMax:
		score += cfg.RichBonus
	}

	score = math.Min(math.Max(score, cfg.MinScore), cfg.MaxScore)
	return math.Round(score*100) / 100
}

func containsAnyTerm(lower string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
