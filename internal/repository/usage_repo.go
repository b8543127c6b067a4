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

// ErrUsageNotFound is returned when no counter exists for the requested
// (user, feature, month, year) tuple. Callers treat absence as zero usage.
var ErrUsageNotFound = errors.New("usage record not found")

// UsageRepository handles the usage ledger: per-user, per-feature counters
// keyed by civil (month, year) period.
type UsageRepository struct {
	db *database.DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *database.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Get retrieves one counter
func (r *UsageRepository) Get(ctx context.Context, userID, feature string, month, year int) (*models.UsageRecord, error) {
	query := `
		SELECT id, user_id, feature, month, year, usage_count, updated_at
		FROM usage_records
		WHERE user_id = $1 AND feature = $2 AND month = $3 AND year = $4
	`
	var rec models.UsageRecord
	err := r.db.QueryRow(ctx, query, userID, feature, month, year).Scan(
		&rec.ID, &rec.UserID, &rec.Feature, &rec.Month, &rec.Year,
		&rec.UsageCount, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUsageNotFound
		}
		return nil, fmt.Errorf("failed to get usage record: %w", err)
	}

	return &rec, nil
}

// ListForPeriod returns every counter a user has in the given period
func (r *UsageRepository) ListForPeriod(ctx context.Context, userID string, month, year int) ([]models.UsageRecord, error) {
	query := `
		SELECT id, user_id, feature, month, year, usage_count, updated_at
		FROM usage_records
		WHERE user_id = $1 AND month = $2 AND year = $3
		ORDER BY feature
	`
	rows, err := r.db.Query(ctx, query, userID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	defer rows.Close()

	var records []models.UsageRecord
	for rows.Next() {
		var rec models.UsageRecord
		err := rows.Scan(&rec.ID, &rec.UserID, &rec.Feature, &rec.Month, &rec.Year,
			&rec.UsageCount, &rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read usage records: %w", err)
	}

	return records, nil
}

// ListForPeriodAll returns every user's counters for the given period,
// for the admin dashboard.
func (r *UsageRepository) ListForPeriodAll(ctx context.Context, month, year int) ([]models.UsageRecord, error) {
	query := `
		SELECT id, user_id, feature, month, year, usage_count, updated_at
		FROM usage_records
		WHERE month = $1 AND year = $2
		ORDER BY user_id, feature
	`
	rows, err := r.db.Query(ctx, query, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	defer rows.Close()

	var records []models.UsageRecord
	for rows.Next() {
		var rec models.UsageRecord
		err := rows.Scan(&rec.ID, &rec.UserID, &rec.Feature, &rec.Month, &rec.Year,
			&rec.UsageCount, &rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read usage records: %w", err)
	}

	return records, nil
}

// Add atomically increases a counter by amount, creating the row with
// usage_count = amount when absent. The unique constraint on
// (user_id, feature, month, year) makes the upsert the only atomic
// primitive the ledger needs.
func (r *UsageRepository) Add(ctx context.Context, userID, feature string, month, year, amount int) (*models.UsageRecord, error) {
	query := `
		INSERT INTO usage_records (id, user_id, feature, month, year, usage_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, feature, month, year) DO UPDATE
		SET usage_count = usage_records.usage_count + EXCLUDED.usage_count,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, feature, month, year, usage_count, updated_at
	`
	var rec models.UsageRecord
	err := r.db.QueryRow(ctx, query,
		uuid.New().String(), userID, feature, month, year, amount, time.Now()).Scan(
		&rec.ID, &rec.UserID, &rec.Feature, &rec.Month, &rec.Year,
		&rec.UsageCount, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add usage: %w", err)
	}

	return &rec, nil
}

// ResetFeature zeroes one feature's counter for a user in the given period
func (r *UsageRepository) ResetFeature(ctx context.Context, userID, feature string, month, year int) error {
	query := `
		UPDATE usage_records
		SET usage_count = 0, updated_at = $5
		WHERE user_id = $1 AND feature = $2 AND month = $3 AND year = $4
	`
	_, err := r.db.Exec(ctx, query, userID, feature, month, year, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reset feature usage: %w", err)
	}

	return nil
}

// ResetAll zeroes every counter a user has in the given period
func (r *UsageRepository) ResetAll(ctx context.Context, userID string, month, year int) error {
	query := `
		UPDATE usage_records
		SET usage_count = 0, updated_at = $4
		WHERE user_id = $1 AND month = $2 AND year = $3
	`
	_, err := r.db.Exec(ctx, query, userID, month, year, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}

	return nil
}

// Count returns the total number of ledger rows across all periods
func (r *UsageRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM usage_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}
	return n, nil
}

// TotalsByFeature sums the given period's usage per feature across all users
func (r *UsageRepository) TotalsByFeature(ctx context.Context, month, year int) ([]models.FeatureTotal, error) {
	query := `
		SELECT feature, COALESCE(SUM(usage_count), 0)
		FROM usage_records
		WHERE month = $1 AND year = $2
		GROUP BY feature
		ORDER BY feature
	`
	rows, err := r.db.Query(ctx, query, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to sum usage: %w", err)
	}
	defer rows.Close()

	var totals []models.FeatureTotal
	for rows.Next() {
		var t models.FeatureTotal
		if err := rows.Scan(&t.Feature, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan usage total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read usage totals: %w", err)
	}

	return totals, nil
}
