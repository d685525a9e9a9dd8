package extract_test

import (
	"math"
	"testing"

	"flashmind/internal/extract"
)

func TestScoreScenarios(t *testing.T) {
	cfg := extract.DefaultConfig()

	t.Run("ColonWithRichAnswer", func(t *testing.T) {
		c := extract.Candidate{
			Question: "What is Binary Search?",
			Answer:   "an efficient algorithm for finding an item in a sorted list.",
			Strategy: extract.StrategyColon,
		}
		got := extract.Score(&cfg, c)
		if got < 0.8 {
			t.Errorf("score = %v, want >= 0.8", got)
		}
		if got != 0.90 {
			t.Errorf("score = %v, want 0.90 (base 0.85 + rich answer bonus)", got)
		}
	})

	t.Run("Formula", func(t *testing.T) {
		c := extract.Candidate{
			Question: "What is the formula for Velocity?",
			Answer:   "Velocity = distance / time",
			Strategy: extract.StrategyFormula,
		}
		got := extract.Score(&cfg, c)
		if got != 0.85 {
			t.Errorf("score = %v, want 0.85", got)
		}
	})
}

func TestScoreAdjustments(t *testing.T) {
	cfg := extract.DefaultConfig()

	t.Run("HedgePenalty", func(t *testing.T) {
		with := extract.Score(&cfg, extract.Candidate{
			Question: "What is caching?",
			Answer:   "it might speed up repeated reads of hot data",
			Strategy: extract.StrategyDefinition,
		})
		without := extract.Score(&cfg, extract.Candidate{
			Question: "What is caching?",
			Answer:   "it does speed up repeated reads of hot data",
			Strategy: extract.StrategyDefinition,
		})
		if with >= without {
			t.Errorf("hedged answer scored %v, unhedged %v, want lower", with, without)
		}
	})

	t.Run("ShortAnswerPenalty", func(t *testing.T) {
		got := extract.Score(&cfg, extract.Candidate{
			Question: "What is X?",
			Answer:   "a thing",
			Strategy: extract.StrategyGeneral,
		})
		if got != 0.25 {
			t.Errorf("score = %v, want 0.25 (base 0.40 - length penalty)", got)
		}
	})

	t.Run("DomainBonus", func(t *testing.T) {
		plain := extract.Score(&cfg, extract.Candidate{
			Question: "What is recursion?",
			Answer:   "a function that calls itself until a base case",
			Strategy: extract.StrategyDefinition,
		})

		boosted := cfg
		boosted.DomainTerms = []string{"recursion"}
		withBonus := extract.Score(&boosted, extract.Candidate{
			Question: "What is recursion?",
			Answer:   "a function that calls itself until a base case",
			Strategy: extract.StrategyDefinition,
		})
		if withBonus <= plain {
			t.Errorf("domain-term candidate scored %v, plain %v, want higher", withBonus, plain)
		}
	})

	t.Run("ClampedToFloor", func(t *testing.T) {
		low := cfg
		low.BaseWeights = map[extract.Strategy]float64{extract.StrategyGeneral: 0.15}
		got := extract.Score(&low, extract.Candidate{
			Question: "What is X?",
			Answer:   "maybe",
			Strategy: extract.StrategyGeneral,
		})
		if got != low.MinScore {
			t.Errorf("score = %v, want the floor %v", got, low.MinScore)
		}
	})
}

func TestScoreBoundsAndRounding(t *testing.T) {
	cfg := extract.DefaultConfig()
	content := extract.Content{
		Text: "Binary Search: an efficient algorithm for finding an item in a sorted list.\n" +
			"Recursion is a technique where a function calls itself.\n" +
			"Velocity = distance / time\n" +
			"## Sorting Algorithms\n" +
			"Explain the difference between stack and heap\n" +
			"The operating system manages hardware resources for running programs.",
	}

	for _, cand := range extract.Generate(&cfg, content) {
		score := extract.Score(&cfg, cand)
		if score < cfg.MinScore || score > cfg.MaxScore {
			t.Errorf("score %v for %q outside [%v, %v]", score, cand.Question, cfg.MinScore, cfg.MaxScore)
		}
		if math.Abs(score*100-math.Round(score*100)) > 1e-9 {
			t.Errorf("score %v for %q not rounded to two decimals", score, cand.Question)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	cfg := extract.DefaultConfig()
	c := extract.Candidate{
		Question: "What is Binary Search?",
		Answer:   "an efficient algorithm for finding an item in a sorted list.",
		Strategy: extract.StrategyColon,
	}
	first := extract.Score(&cfg, c)
	for i := 0; i < 10; i++ {
		if got := extract.Score(&cfg, c); got != first {
			t.Fatalf("score changed between calls: %v then %v", first, got)
		}
	}
}
