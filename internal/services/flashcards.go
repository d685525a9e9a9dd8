package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"flashmind/internal/extract"
	"flashmind/internal/models"
)

var (
	// ErrNoDueCards indicates that there are no cards ready to review.
	ErrNoDueCards = errors.New("no due cards")
	// ErrCardNotFound indicates a lookup of a missing card.
	ErrCardNotFound = errors.New("card not found")
)

const cardColumns = `id, set_id, question, answer, score, strategy, due, stability, difficulty,
	elapsed_days, scheduled_days, reps, lapses, state, last_review, created_at, updated_at`

// FlashcardService orchestrates card persistence and FSRS scheduling.
type FlashcardService struct {
	db     *sql.DB
	params fsrs.Parameters
}

func NewFlashcardService(db *sql.DB) *FlashcardService {
	params := fsrs.DefaultParam()
	return &FlashcardService{db: db, params: params}
}

// CreateCard inserts a manually authored card. Manual cards carry no
// extraction strategy and a score of 1.
func (s *FlashcardService) CreateCard(ctx context.Context, setID int64, question, answer string) (*models.Card, error) {
	if question == "" || answer == "" {
		return nil, fmt.Errorf("question and answer are required")
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (set_id, question, answer, score, strategy, due, created_at, updated_at)
		VALUES (?, ?, ?, 1, '', ?, ?, ?);
	`, setID, question, answer, now, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert card: %w", err)
	}
	id, _ := res.LastInsertId()

	return s.GetCard(ctx, id)
}

// AddCards bulk-inserts extracted cards into a set within a single
// transaction. New cards are due immediately.
func (s *FlashcardService) AddCards(ctx context.Context, setID int64, cards []extract.ScoredCard) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards (set_id, question, answer, score, strategy, due, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare card insert: %w", err)
	}
	defer stmt.Close()

	for _, card := range cards {
		if _, err = stmt.ExecContext(ctx,
			setID,
			card.Question,
			card.Answer,
			card.Score,
			string(card.Strategy),
			now,
			now,
			now,
		); err != nil {
			return 0, fmt.Errorf("insert card %q: %w", card.Question, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk insert: %w", err)
	}
	return len(cards), nil
}

func (s *FlashcardService) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	card, err := s.fetchCard(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("load card %d: %w", id, err)
	}
	return card, nil
}

// ListBySet returns a set's cards ordered by extraction score, then age.
func (s *FlashcardService) ListBySet(ctx context.Context, setID int64) ([]models.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE set_id = ?
		ORDER BY score DESC, created_at ASC;
	`, setID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var card models.Card
		if err := scanCard(rows, &card); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

// NextDue returns the next card due for review in a set. Due cards come
// first by due date; if none are due, the oldest unseen card is served.
func (s *FlashcardService) NextDue(ctx context.Context, setID int64) (*models.Card, error) {
	now := time.Now().UTC()

	card, err := s.fetchCard(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE set_id = ? AND due IS NOT NULL AND due <= ?
		ORDER BY due ASC
		LIMIT 1;
	`, setID, now)
	if err == nil {
		return card, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	card, err = s.fetchCard(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE set_id = ? AND state = 0
		ORDER BY created_at ASC
		LIMIT 1;
	`, setID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDueCards
		}
		return nil, err
	}
	return card, nil
}

// Review updates a card's scheduling based on the user's rating and
// records a review log entry.
func (s *FlashcardService) Review(ctx context.Context, cardID int64, rating fsrs.Rating) (*models.Card, *models.ReviewLog, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	card := &models.Card{}
	row := tx.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?;`, cardID)
	if err = scanCard(row, card); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrCardNotFound
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("load card %d: %w", cardID, err)
	}

	now := time.Now().UTC()
	scheduling := s.params.Repeat(card.ToFSRSCard(), now)
	info, ok := scheduling[rating]
	if !ok {
		err = fmt.Errorf("rating %d not supported", rating)
		return nil, nil, err
	}
	card.ApplyFSRSCard(info.Card)
	card.UpdatedAt = now

	if _, err = tx.ExecContext(ctx, `
		UPDATE cards
		SET due = ?, stability = ?, difficulty = ?, elapsed_days = ?, scheduled_days = ?,
		    reps = ?, lapses = ?, state = ?, last_review = ?, updated_at = ?
		WHERE id = ?;
	`,
		nullTimePtr(card.Due),
		card.Stability,
		card.Difficulty,
		card.ElapsedDays,
		card.ScheduledDays,
		card.Reps,
		card.Lapses,
		card.State,
		nullTimePtr(card.LastReview),
		card.UpdatedAt,
		card.ID,
	); err != nil {
		return nil, nil, fmt.Errorf("update card %d: %w", card.ID, err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO review_logs (card_id, rating, scheduled_days, elapsed_days, state, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?);
	`, card.ID, info.ReviewLog.Rating, info.ReviewLog.ScheduledDays, info.ReviewLog.ElapsedDays, info.ReviewLog.State, now); err != nil {
		return nil, nil, fmt.Errorf("insert review log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit review: %w", err)
	}

	log := &models.ReviewLog{
		CardID:        card.ID,
		Rating:        int(info.ReviewLog.Rating),
		ScheduledDays: int(info.ReviewLog.ScheduledDays),
		ElapsedDays:   int(info.ReviewLog.ElapsedDays),
		State:         int(info.ReviewLog.State),
		ReviewedAt:    now,
	}
	return card, log, nil
}

// RecordQuizResult upserts aggregate quiz progress for a user and set.
func (s *FlashcardService) RecordQuizResult(ctx context.Context, userID, setID int64, correct bool) error {
	inc := 0
	if correct {
		inc = 1
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (user_id, set_id, total_attempts, correct, last_reviewed)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(user_id, set_id) DO UPDATE SET
			total_attempts = total_attempts + 1,
			correct = correct + excluded.correct,
			last_reviewed = excluded.last_reviewed;
	`, userID, setID, inc, now)
	if err != nil {
		return fmt.Errorf("record quiz result: %w", err)
	}
	return nil
}

// SaveQuizBatch records a whole quiz session's tally in one statement.
func (s *FlashcardService) SaveQuizBatch(ctx context.Context, userID, setID int64, attempts, correct int) error {
	if attempts <= 0 {
		return fmt.Errorf("attempts must be positive")
	}
	if correct < 0 || correct > attempts {
		return fmt.Errorf("correct count out of range")
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (user_id, set_id, total_attempts, correct, last_reviewed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, set_id) DO UPDATE SET
			total_attempts = total_attempts + excluded.total_attempts,
			correct = correct + excluded.correct,
			last_reviewed = excluded.last_reviewed;
	`, userID, setID, attempts, correct, now)
	if err != nil {
		return fmt.Errorf("save quiz batch: %w", err)
	}
	return nil
}

// ProgressByUser returns the user's per-set quiz progress, most
// recently reviewed first.
func (s *FlashcardService) ProgressByUser(ctx context.Context, userID int64) ([]models.Progress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.user_id, p.set_id, p.total_attempts, p.correct, p.last_reviewed, fs.name
		FROM progress p
		JOIN flashcard_sets fs ON fs.id = p.set_id
		WHERE p.user_id = ?
		ORDER BY p.last_reviewed DESC;
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var entries []models.Progress
	for rows.Next() {
		var p models.Progress
		if err := rows.Scan(&p.UserID, &p.SetID, &p.TotalAttempts, &p.Correct, &p.LastReviewed, &p.SetName); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		entries = append(entries, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *FlashcardService) fetchCard(ctx context.Context, query string, args ...any) (*models.Card, error) {
	card := &models.Card{}
	if err := scanCard(s.db.QueryRowContext(ctx, query, args...), card); err != nil {
		return nil, err
	}
	return card, nil
}

func scanCard(row rowScanner, card *models.Card) error {
	return row.Scan(
		&card.ID,
		&card.SetID,
		&card.Question,
		&card.Answer,
		&card.Score,
		&card.Strategy,
		&card.Due,
		&card.Stability,
		&card.Difficulty,
		&card.ElapsedDays,
		&card.ScheduledDays,
		&card.Reps,
		&card.Lapses,
		&card.State,
		&card.LastReview,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
}

func nullTimePtr(t sql.NullTime) any {
	if t.Valid {
		return t.Time
	}
	return nil
}
