package extract

// Config carries every tunable of the extraction pipeline. A Config is
// built once at process start and shared read-only across calls; nothing
// in this package mutates it after construction.
type Config struct {
	// Candidate generation.
	MinLineLen       int     // lines shorter than this are skipped
	MaxTermWords     int     // longest colon-delimited term, in words
	MaxSubjectWords  int     // longest copula-definition subject, in words
	MinSentenceWords int     // generic fallback needs more words than this
	HeadingFontSize  float64 // PDF lines at or above this size are headings

	StopTerms   map[string]struct{} // terms never used as a question subject
	KeywordCues []string
	HedgeCues   []string
	DomainTerms []string // deployment-specific vocabulary that boosts scores

	// Scoring. Adjustments are additive, then clamped to [MinScore, MaxScore]
	// and rounded to two decimals.
	BaseWeights    map[Strategy]float64
	DomainBonus    float64
	HedgePenalty   float64
	LengthPenalty  float64
	RichBonus      float64
	MinAnswerWords int
	MaxAnswerWords int
	RichAnswerMin  int
	RichAnswerMax  int
	MinScore       float64
	MaxScore       float64

	// Jitter shuffles candidates before the final score sort so that
	// equal-score cards vary between extractions. Scores still dominate
	// the ordering; disable for deterministic output.
	Jitter bool
}

// DefaultConfig returns the stock pipeline configuration.
func DefaultConfig() Config {
	return Config{
		MinLineLen:       5,
		MaxTermWords:     6,
		MaxSubjectWords:  6,
		MinSentenceWords: 6,
		HeadingFontSize:  14,

		StopTerms: stopTermSet(
			"this", "that", "it", "they", "there", "what", "which", "who",
			"example", "examples", "e.g", "i.e", "etc", "note",
		),
		KeywordCues: []string{"define", "explain", "describe", "why", "how", "advantage", "disadvantage"},
		HedgeCues:   []string{"maybe", "might", "example", "etc"},

		BaseWeights: map[Strategy]float64{
			StrategyHeading:    0.90,
			StrategyColon:      0.85,
			StrategyFormula:    0.85,
			StrategyDefinition: 0.75,
			StrategyKeyword:    0.65,
			StrategyGeneral:    0.40,
		},
		DomainBonus:    0.05,
		HedgePenalty:   0.10,
		LengthPenalty:  0.15,
		RichBonus:      0.05,
		MinAnswerWords: 3,
		MaxAnswerWords: 40,
		RichAnswerMin:  8,
		RichAnswerMax:  30,
		MinScore:       0.10,
		MaxScore:       1.00,
	}
}

func stopTermSet(terms ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

func (c *Config) isStopTerm(term string) bool {
	_, ok := c.StopTerms[normalizeTerm(term)]
	return ok
}

func (c *Config) baseWeight(s Strategy) float64 {
	if w, ok := c.BaseWeights[s]; ok {
		return w
	}
	return c.BaseWeights[StrategyGeneral]
}
