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

// ErrSubscriptionNotFound is returned when a user has no subscription row.
// Callers treat absence as an implicit free/active subscription.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionRepository handles subscription database operations
type SubscriptionRepository struct {
	db *database.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *database.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Get retrieves the subscription row for a user
func (r *SubscriptionRepository) Get(ctx context.Context, userID string) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, plan, status, start_date, end_date, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`
	var sub models.Subscription
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.Plan, &sub.Status,
		&sub.StartDate, &sub.EndDate, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// Upsert sets the user's plan and status, creating the row when absent.
// The unique constraint on user_id keeps this at-most-one-row per user.
func (r *SubscriptionRepository) Upsert(ctx context.Context, userID, plan, status string) (*models.Subscription, error) {
	now := time.Now()
	query := `
		INSERT INTO subscriptions (id, user_id, plan, status, start_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET plan = EXCLUDED.plan, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, plan, status, start_date, end_date, updated_at
	`
	var sub models.Subscription
	err := r.db.QueryRow(ctx, query, uuid.New().String(), userID, plan, status, now).Scan(
		&sub.ID, &sub.UserID, &sub.Plan, &sub.Status,
		&sub.StartDate, &sub.EndDate, &sub.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return &sub, nil
}

// EnsureDefault inserts a free/active subscription when none exists.
// Idempotent: an existing row is left untouched.
func (r *SubscriptionRepository) EnsureDefault(ctx context.Context, userID string) error {
	now := time.Now()
	query := `
		INSERT INTO subscriptions (id, user_id, plan, status, start_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, uuid.New().String(), userID, models.PlanFree, models.StatusActive, now)
	if err != nil {
		return fmt.Errorf("failed to ensure default subscription: %w", err)
	}

	return nil
}

// Count returns the total number of materialized subscription rows
func (r *SubscriptionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM subscriptions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return n, nil
}
