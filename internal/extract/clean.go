package extract

import (
	"regexp"
	"strings"
)

var (
	urlRe   = regexp.MustCompile(`https?://\S+`)
	parenRe = regexp.MustCompile(`\([^)]*\)`)
)

// cleanText strips embedded URLs, parenthetical asides, and stray
// separator artifacts, then collapses whitespace. A string with nothing
// to strip comes back unchanged apart from trimming.
func cleanText(s string) string {
	s = urlRe.ReplaceAllString(s, "")
	s = parenRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " - ", " ")
	s = strings.ReplaceAll(s, " : ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// normalizeTerm lowercases a term and drops trailing dots so that
// fragments like "e.g." hit the stop-term set.
func normalizeTerm(term string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(term)), ".")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func leadingWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
