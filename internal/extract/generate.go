package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// A strategyFunc inspects a single line and either produces a candidate
// or declines. Strategies are pure; all state lives in Config.
type strategyFunc func(cfg *Config, line string) (Candidate, bool)

// Line strategies in priority order. The first match wins for a line.
// matchHeadingMarker only joins the list for flat text, since structured
// input carries real heading segments instead of markers.
var lineStrategies = []strategyFunc{
	matchColon,
	matchDefinition,
	matchFormula,
	matchKeyword,
	matchGeneral,
}

var plainStrategies = []strategyFunc{
	matchColon,
	matchDefinition,
	matchFormula,
	matchHeadingMarker,
	matchKeyword,
	matchGeneral,
}

// Generate scans normalized content and emits raw candidates in document
// order. Malformed lines are skipped, never reported: the pipeline
// degrades toward fewer flashcards rather than failing.
func Generate(cfg *Config, content Content) []Candidate {
	var out []Candidate

	if content.Segments != nil {
		pendingTopic := ""
		for _, seg := range content.Segments {
			if seg.Kind == SegmentHeading {
				if topic := cleanText(seg.Text); topic != "" {
					pendingTopic = topic
				}
				continue
			}
			body := strings.TrimSpace(seg.Text)
			if body == "" {
				continue
			}
			if pendingTopic != "" {
				out = appendCandidate(out, Candidate{
					Question: "What is " + pendingTopic + "?",
					Answer:   cleanText(body),
					Strategy: StrategyHeading,
					Source:   pendingTopic,
				})
				pendingTopic = ""
			}
			out = append(out, generateLines(cfg, body, lineStrategies)...)
		}
	} else {
		out = append(out, generateLines(cfg, content.Text, plainStrategies)...)
	}

	// Whole-text formula pass catches inline formulas buried in longer
	// sentences that the line strategies never saw in isolation.
	out = append(out, formulaPass(cfg, content.Text)...)

	return out
}

func generateLines(cfg *Config, text string, strategies []strategyFunc) []Candidate {
	var out []Candidate
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if len(line) < cfg.MinLineLen {
			continue
		}
		for _, strategy := range strategies {
			cand, ok := strategy(cfg, line)
			if !ok {
				continue
			}
			out = appendCandidate(out, cand)
			break
		}
	}
	return out
}

// appendCandidate enforces the non-empty invariant before a candidate
// reaches the scorer.
func appendCandidate(out []Candidate, c Candidate) []Candidate {
	if strings.TrimSpace(c.Question) == "" || strings.TrimSpace(c.Answer) == "" {
		return out
	}
	return append(out, c)
}

// matchColon handles "Term: description" lines where the term is short
// and not a generic pronoun or parser fragment.
func matchColon(cfg *Config, line string) (Candidate, bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return Candidate{}, false
	}
	term := strings.TrimSpace(line[:idx])
	rest := strings.TrimSpace(line[idx+1:])
	if term == "" || rest == "" {
		return Candidate{}, false
	}
	if n := wordCount(term); n == 0 || n > cfg.MaxTermWords {
		return Candidate{}, false
	}
	if cfg.isStopTerm(term) {
		return Candidate{}, false
	}
	if !hasNounLikeToken(term) {
		return Candidate{}, false
	}
	answer := cleanText(rest)
	if answer == "" {
		return Candidate{}, false
	}
	return Candidate{
		Question: "What is " + term + "?",
		Answer:   answer,
		Strategy: StrategyColon,
		Source:   line,
	}, true
}

// Longer verb phrases first so "is defined as" wins over plain "is".
var definitionRe = regexp.MustCompile(`(?i)^(.+?)\s+(is defined as|refers to|means|is|are)\s+(.+)$`)

func matchDefinition(cfg *Config, line string) (Candidate, bool) {
	m := definitionRe.FindStringSubmatch(line)
	if m == nil {
		return Candidate{}, false
	}
	subject := strings.TrimSpace(m[1])
	predicate := strings.TrimSpace(m[3])
	if subject == "" || predicate == "" {
		return Candidate{}, false
	}
	if strings.ContainsAny(subject, ",:;") {
		return Candidate{}, false
	}
	if wordCount(subject) > cfg.MaxSubjectWords {
		return Candidate{}, false
	}
	if cfg.isStopTerm(subject) || cfg.isStopTerm(strings.Fields(subject)[0]) {
		return Candidate{}, false
	}
	if !hasNounLikeToken(subject) {
		return Candidate{}, false
	}
	answer := cleanText(predicate)
	if answer == "" {
		return Candidate{}, false
	}
	return Candidate{
		Question: "What is " + subject + "?",
		Answer:   answer,
		Strategy: StrategyDefinition,
		Source:   line,
	}, true
}

// hasNounLikeToken is the tagger-free stand-in for a part-of-speech
// check: a question subject needs at least one substantial alphabetic
// token, which filters out timestamps and numeric fragments.
func hasNounLikeToken(subject string) bool {
	for _, tok := range strings.Fields(subject) {
		tok = strings.Trim(tok, ".,;:!?\"'")
		letters := 0
		for _, r := range tok {
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
				letters++
			}
		}
		if letters >= 3 {
			return true
		}
	}
	return false
}

const formulaPrompt = "What does this formula represent?"

func matchFormula(cfg *Config, line string) (Candidate, bool) {
	eq := strings.Index(line, "=")
	if eq < 0 || !strings.ContainsAny(line, "+-*/^") {
		return Candidate{}, false
	}
	question := formulaPrompt
	if lhs := cleanText(line[:eq]); lhs != "" && wordCount(lhs) <= cfg.MaxTermWords {
		question = "What is the formula for " + lhs + "?"
	}
	return Candidate{
		Question: question,
		Answer:   line,
		Strategy: StrategyFormula,
		Source:   line,
	}, true
}

var headingMarkerRe = regexp.MustCompile(`^(#{1,6}\s+|\d+[.)]\s+|[-*\x{2022}]\s+)(.+)$`)

// matchHeadingMarker is the plain-text fallback for heading detection:
// markdown hashes, numbered-list markers, and bullet dashes.
func matchHeadingMarker(cfg *Config, line string) (Candidate, bool) {
	m := headingMarkerRe.FindStringSubmatch(line)
	if m == nil {
		return Candidate{}, false
	}
	heading := cleanText(m[2])
	if heading == "" {
		return Candidate{}, false
	}
	return Candidate{
		Question: "Explain " + heading,
		Answer:   "Key topic from the notes: " + heading + ".",
		Strategy: StrategyHeading,
		Source:   line,
	}, true
}

func matchKeyword(cfg *Config, line string) (Candidate, bool) {
	if !containsCue(line, cfg.KeywordCues) {
		return Candidate{}, false
	}
	question := strings.TrimRight(strings.TrimSpace(line), ".!:;?")
	if question == "" {
		return Candidate{}, false
	}
	return Candidate{
		Question: question + "?",
		Answer:   "Review your notes on: " + cleanText(line),
		Strategy: StrategyKeyword,
		Source:   line,
	}, true
}

func matchGeneral(cfg *Config, line string) (Candidate, bool) {
	if wordCount(line) <= cfg.MinSentenceWords {
		return Candidate{}, false
	}
	last := line[len(line)-1]
	if last != '.' && last != '!' && last != '?' {
		return Candidate{}, false
	}
	lead := leadingWords(line, 4)
	return Candidate{
		Question: fmt.Sprintf("What does this statement explain: %q?", lead+" ..."),
		Answer:   line,
		Strategy: StrategyGeneral,
		Source:   line,
	}, true
}

// containsCue matches cue words on token boundaries, tolerating a plural
// suffix so "advantages" still triggers "advantage".
func containsCue(line string, cues []string) bool {
	for _, tok := range strings.Fields(strings.ToLower(line)) {
		tok = strings.Trim(tok, ".,;:!?\"'()")
		for _, cue := range cues {
			if tok == cue || tok == cue+"s" {
				return true
			}
		}
	}
	return false
}

var inlineFormulaRe = regexp.MustCompile(`[A-Za-z0-9()^*+\-/ ]+=[A-Za-z0-9()^*+\-/ ]+`)

// formulaPass scans the whole text for inline formulas independent of
// line splitting. Duplicate questions collapse later in Dedupe.
func formulaPass(cfg *Config, text string) []Candidate {
	var out []Candidate
	for _, match := range inlineFormulaRe.FindAllString(text, -1) {
		formula := strings.TrimSpace(match)
		if len(formula) < cfg.MinLineLen {
			continue
		}
		if cand, ok := matchFormula(cfg, formula); ok {
			out = appendCandidate(out, cand)
		}
	}
	return out
}
