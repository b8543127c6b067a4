package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agoraai/backend/internal/database"
	"github.com/agoraai/backend/internal/models"
)

// ErrDocumentNotFound is returned when a document is not found
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository handles Drive-export document records
type DocumentRepository struct {
	db *database.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *database.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create stores a document record
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.CreatedAt = time.Now()

	query := `
		INSERT INTO documents (id, user_id, file_name, mime_type, drive_file_id,
		                       web_view_link, web_content_link, file_size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		doc.ID, doc.UserID, doc.FileName, doc.MimeType, doc.DriveFileID,
		doc.WebViewLink, doc.WebContentLink, doc.FileSize, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// ListByUser returns a user's documents, newest first
func (r *DocumentRepository) ListByUser(ctx context.Context, userID string) ([]models.Document, error) {
	query := `
		SELECT id, user_id, file_name, mime_type, drive_file_id,
		       web_view_link, web_content_link, file_size, created_at
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(&doc.ID, &doc.UserID, &doc.FileName, &doc.MimeType,
			&doc.DriveFileID, &doc.WebViewLink, &doc.WebContentLink,
			&doc.FileSize, &doc.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}

	return docs, nil
}

// GetByDriveFileID retrieves a user's document by its Drive file ID
func (r *DocumentRepository) GetByDriveFileID(ctx context.Context, userID, driveFileID string) (*models.Document, error) {
	query := `
		SELECT id, user_id, file_name, mime_type, drive_file_id,
		       web_view_link, web_content_link, file_size, created_at
		FROM documents
		WHERE user_id = $1 AND drive_file_id = $2
	`
	var doc models.Document
	err := r.db.QueryRow(ctx, query, userID, driveFileID).Scan(
		&doc.ID, &doc.UserID, &doc.FileName, &doc.MimeType,
		&doc.DriveFileID, &doc.WebViewLink, &doc.WebContentLink,
		&doc.FileSize, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// Delete removes a user's document record
func (r *DocumentRepository) Delete(ctx context.Context, userID, id string) error {
	rowsAffected, err := r.db.Exec(ctx,
		"DELETE FROM documents WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if rowsAffected == 0 {
		return ErrDocumentNotFound
	}

	return nil
}

// TotalSizeByUser sums the stored byte sizes of a user's documents,
// used for plan storage-limit enforcement.
func (r *DocumentRepository) TotalSizeByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		"SELECT COALESCE(SUM(file_size), 0) FROM documents WHERE user_id = $1", userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum document sizes: %w", err)
	}
	return total, nil
}
