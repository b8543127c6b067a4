package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agoraai/backend/internal/database"
	"github.com/agoraai/backend/internal/models"
)

// BillingRepository handles billing history records
type BillingRepository struct {
	db *database.DB
}

// NewBillingRepository creates a new billing repository
func NewBillingRepository(db *database.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// Create appends a billing history entry
func (r *BillingRepository) Create(ctx context.Context, rec *models.BillingRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now()

	query := `
		INSERT INTO billing_history (id, user_id, plan, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, rec.ID, rec.UserID, rec.Plan, rec.Amount, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create billing record: %w", err)
	}

	return nil
}

// ListByUser returns a user's billing history, newest first
func (r *BillingRepository) ListByUser(ctx context.Context, userID string) ([]models.BillingRecord, error) {
	query := `
		SELECT id, user_id, plan, amount, created_at
		FROM billing_history
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list billing history: %w", err)
	}
	defer rows.Close()

	var records []models.BillingRecord
	for rows.Next() {
		var rec models.BillingRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Plan, &rec.Amount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan billing record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read billing history: %w", err)
	}

	return records, nil
}
