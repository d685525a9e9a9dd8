package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"flashmind/internal/extract"
	"flashmind/internal/models"
)

type DocumentService struct {
	db        *sql.DB
	uploadDir string
}

func NewDocumentService(db *sql.DB, uploadDir string) *DocumentService {
	return &DocumentService{db: db, uploadDir: uploadDir}
}

// Store writes the upload to disk under a random name and records it.
// The original filename only determines the extension and the display
// name, never the stored path.
func (s *DocumentService) Store(ctx context.Context, original string, kind extract.Kind, data []byte) (*models.Document, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure upload dir: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(original)
	storedPath := filepath.Join(s.uploadDir, name)
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (original_name, stored_path, kind, uploaded_at)
		VALUES (?, ?, ?, ?);
	`, filepath.Base(original), storedPath, string(kind), now)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	id, _ := res.LastInsertId()

	return &models.Document{
		ID:           id,
		OriginalName: filepath.Base(original),
		StoredPath:   storedPath,
		Kind:         string(kind),
		UploadedAt:   now,
	}, nil
}

// AttachSet links a document to the set its cards were saved into.
func (s *DocumentService) AttachSet(ctx context.Context, docID, setID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE documents SET set_id = ? WHERE id = ?;
	`, setID, docID); err != nil {
		return fmt.Errorf("attach set: %w", err)
	}
	return nil
}

func (s *DocumentService) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, set_id, original_name, stored_path, kind, uploaded_at
		FROM documents WHERE id = ?;
	`, id)
	var doc models.Document
	if err := row.Scan(
		&doc.ID,
		&doc.SetID,
		&doc.OriginalName,
		&doc.StoredPath,
		&doc.Kind,
		&doc.UploadedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %d not found", id)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}
