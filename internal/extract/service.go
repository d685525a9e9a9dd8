package extract

import (
	"context"
	"math/rand"
	"time"

	"flashmind/internal/ocr"
)

// Service is the document-to-flashcards pipeline: text extraction,
// candidate generation, confidence scoring, and deduplication/ranking.
// A Service is immutable after construction and safe for concurrent use;
// each extraction call is an independent, synchronous transformation.
type Service struct {
	cfg Config
	ocr ocr.Engine
}

// NewService builds the pipeline around an immutable configuration and
// an OCR engine for raster images. The engine may be nil, in which case
// image documents yield no candidates.
func NewService(cfg Config, engine ocr.Engine) *Service {
	return &Service{cfg: cfg, ocr: engine}
}

// ExtractFlashcards converts raw document bytes into a ranked list of
// scored flashcard candidates. It is total over valid byte input: empty,
// corrupt, or unsupported documents produce an empty list, never an
// error. Candidates are returned for the caller to persist or discard.
func (s *Service) ExtractFlashcards(ctx context.Context, data []byte, kind Kind) []ScoredCard {
	content := s.extractContent(ctx, data, kind)
	candidates := Generate(&s.cfg, content)

	scored := make([]ScoredCard, 0, len(candidates))
	for _, cand := range candidates {
		scored = append(scored, ScoredCard{
			Candidate: cand,
			Score:     Score(&s.cfg, cand),
		})
	}

	scored = Dedupe(scored)

	var r *rand.Rand
	if s.cfg.Jitter {
		// Per-call source: the shared config stays read-only.
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return Rank(scored, r)
}
