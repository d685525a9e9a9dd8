package extract

import (
	"path/filepath"
	"strings"
)

// Kind identifies the declared format of an uploaded document.
type Kind string

const (
	KindText    Kind = "txt"
	KindWord    Kind = "docx"
	KindSlides  Kind = "pptx"
	KindPDF     Kind = "pdf"
	KindImage   Kind = "image"
	KindUnknown Kind = ""
)

// KindFromFilename classifies a document by its file extension.
func KindFromFilename(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".text":
		return KindText
	case ".docx":
		return KindWord
	case ".pptx":
		return KindSlides
	case ".pdf":
		return KindPDF
	case ".png", ".jpg", ".jpeg":
		return KindImage
	default:
		return KindUnknown
	}
}

// Strategy names the extraction rule that produced a candidate.
type Strategy string

const (
	StrategyHeading    Strategy = "heading"
	StrategyDefinition Strategy = "definition"
	StrategyFormula    Strategy = "formula"
	StrategyKeyword    Strategy = "keyword"
	StrategyColon      Strategy = "colon"
	StrategyGeneral    Strategy = "general"
)

// Candidate is an unscored question/answer pair extracted from text.
// Question and Answer are non-empty after trimming; candidates that fail
// that invariant are dropped before scoring.
type Candidate struct {
	Question string
	Answer   string
	Strategy Strategy
	Source   string // the line or heading the candidate came from
}

// ScoredCard is a candidate plus its confidence score in [0.1, 1.0].
type ScoredCard struct {
	Candidate
	Score float64
}

// SegmentKind distinguishes heading-like content from body content.
type SegmentKind int

const (
	SegmentBody SegmentKind = iota
	SegmentHeading
)

// Segment is a (kind, text) unit produced when document structure is
// available (paragraph styles, slide placeholders, glyph font sizes).
type Segment struct {
	Kind SegmentKind
	Text string
}

// Content is the output of the text extraction stage. Segments is non-nil
// only when the source format exposed structural metadata; Text always
// carries the flat concatenation for whole-text passes.
type Content struct {
	Text     string
	Segments []Segment
}
