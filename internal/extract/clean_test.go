package extract

import "testing"

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"Unchanged", "plain sentence stays", "plain sentence stays"},
		{"StripsURL", "see https://example.com/page for details", "see for details"},
		{"StripsParenthetical", "Big-O (asymptotic) notation", "Big-O notation"},
		{"StripsSeparators", "term - definition : more", "term definition more"},
		{"CollapsesWhitespace", "  a   lot\tof   space  ", "a lot of space"},
		{"Empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanText(tc.in); got != tc.want {
				t.Errorf("cleanText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanTextIdempotent(t *testing.T) {
	inputs := []string{
		"Binary Search: an efficient algorithm (logarithmic) https://x.y",
		"already clean text",
		"a - b : c",
	}
	for _, in := range inputs {
		once := cleanText(in)
		twice := cleanText(once)
		if once != twice {
			t.Errorf("cleanText not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeTerm(t *testing.T) {
	cases := map[string]string{
		"  E.g.  ":  "e.g",
		"Note":      "note",
		"RECURSION": "recursion",
		"etc.":      "etc",
	}
	for in, want := range cases {
		if got := normalizeTerm(in); got != want {
			t.Errorf("normalizeTerm(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLeadingWords(t *testing.T) {
	if got := leadingWords("one two three four five", 4); got != "one two three four" {
		t.Errorf("leadingWords = %q", got)
	}
	if got := leadingWords("short", 4); got != "short" {
		t.Errorf("leadingWords on short input = %q", got)
	}
}
