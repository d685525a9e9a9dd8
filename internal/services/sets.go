package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"flashmind/internal/models"
)

// ErrSetNotFound indicates a lookup of a missing flashcard set.
var ErrSetNotFound = errors.New("flashcard set not found")

type SetService struct {
	db *sql.DB
}

func NewSetService(db *sql.DB) *SetService {
	return &SetService{db: db}
}

func (s *SetService) Create(ctx context.Context, userID int64, name string) (*models.FlashcardSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("set name is required")
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO flashcard_sets (user_id, name, created_at)
		VALUES (?, ?, ?);
	`, userID, name, now)
	if err != nil {
		return nil, fmt.Errorf("insert set: %w", err)
	}
	id, _ := res.LastInsertId()

	return &models.FlashcardSet{ID: id, UserID: userID, Name: name, CreatedAt: now}, nil
}

// GetOrCreate returns the user's set with the given name, creating it
// if necessary. Saving generated cards reuses an existing set of the
// same name rather than duplicating it.
func (s *SetService) GetOrCreate(ctx context.Context, userID int64, name string) (*models.FlashcardSet, error) {
	name = strings.TrimSpace(name)
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM flashcard_sets WHERE user_id = ? AND name = ?;
	`, userID, name)

	var set models.FlashcardSet
	err := row.Scan(&set.ID, &set.UserID, &set.Name, &set.CreatedAt)
	if err == nil {
		return &set, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scan set: %w", err)
	}
	return s.Create(ctx, userID, name)
}

func (s *SetService) GetByID(ctx context.Context, id int64) (*models.FlashcardSet, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM flashcard_sets WHERE id = ?;
	`, id)

	var set models.FlashcardSet
	if err := row.Scan(&set.ID, &set.UserID, &set.Name, &set.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSetNotFound
		}
		return nil, fmt.Errorf("scan set: %w", err)
	}
	return &set, nil
}

// ListByUser returns the user's sets, newest first, with card counts.
func (s *SetService) ListByUser(ctx context.Context, userID int64) ([]models.FlashcardSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fs.id, fs.user_id, fs.name, fs.created_at, COUNT(c.id)
		FROM flashcard_sets fs
		LEFT JOIN cards c ON c.set_id = fs.id
		WHERE fs.user_id = ?
		GROUP BY fs.id
		ORDER BY fs.created_at DESC;
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()

	var sets []models.FlashcardSet
	for rows.Next() {
		var set models.FlashcardSet
		if err := rows.Scan(&set.ID, &set.UserID, &set.Name, &set.CreatedAt, &set.CardCount); err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sets: %w", err)
	}
	return sets, nil
}
