package services

import (
	"context"
	"fmt"

	"flashmind/internal/extract"
	"flashmind/internal/models"
)

// ProgressCallback is called during document processing to report progress.
type ProgressCallback func(step, message string, current, total int)

// IngestionService coordinates document storage, candidate extraction,
// and persistence of the cards the user chooses to keep.
type IngestionService struct {
	documents *DocumentService
	extractor *extract.Service
	sets      *SetService
	cards     *FlashcardService
}

func NewIngestionService(
	documents *DocumentService,
	extractor *extract.Service,
	sets *SetService,
	cards *FlashcardService,
) *IngestionService {
	return &IngestionService{
		documents: documents,
		extractor: extractor,
		sets:      sets,
		cards:     cards,
	}
}

// ProcessDocument stores an upload and extracts flashcard candidates
// from it. The candidates are returned for the user to review, not
// persisted as cards.
func (s *IngestionService) ProcessDocument(ctx context.Context, filename string, data []byte) (*models.Document, []extract.ScoredCard, error) {
	return s.ProcessDocumentWithProgress(ctx, filename, data, nil)
}

func (s *IngestionService) ProcessDocumentWithProgress(ctx context.Context, filename string, data []byte, progress ProgressCallback) (*models.Document, []extract.ScoredCard, error) {
	kind := extract.KindFromFilename(filename)

	if progress != nil {
		progress("store", "Saving uploaded document", 0, 100)
	}
	doc, err := s.documents.Store(ctx, filename, kind, data)
	if err != nil {
		return nil, nil, fmt.Errorf("store document: %w", err)
	}

	if progress != nil {
		progress("extract", "Extracting flashcard candidates", 20, 100)
	}
	candidates := s.extractor.ExtractFlashcards(ctx, data, kind)

	if progress != nil {
		progress("complete", fmt.Sprintf("Found %d candidates", len(candidates)), 100, 100)
	}
	return doc, candidates, nil
}

// SaveGenerated persists the candidates the user accepted into a set
// with the given name, creating the set if needed. Question and answer
// text is stored exactly as extracted.
func (s *IngestionService) SaveGenerated(ctx context.Context, userID int64, setName string, docID int64, cards []extract.ScoredCard) (*models.FlashcardSet, int, error) {
	set, err := s.sets.GetOrCreate(ctx, userID, setName)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve set %q: %w", setName, err)
	}

	saved, err := s.cards.AddCards(ctx, set.ID, cards)
	if err != nil {
		return nil, 0, fmt.Errorf("save cards: %w", err)
	}

	if docID > 0 {
		if err := s.documents.AttachSet(ctx, docID, set.ID); err != nil {
			return nil, 0, err
		}
	}
	return set, saved, nil
}
