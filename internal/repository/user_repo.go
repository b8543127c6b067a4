package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agoraai/backend/internal/database"
	"github.com/agoraai/backend/internal/models"
)

var (
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when trying to create a user that already exists
	ErrUserExists = errors.New("user already exists")
)

// UserRepository handles user database operations
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, google_id, email, name, image, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.GoogleID, user.Email, user.Name, user.Image,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByGoogleID retrieves a user by their Google account ID
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.getOne(ctx, "google_id = $1", googleID)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `
		SELECT id, COALESCE(google_id, ''), email, name, image, created_at, updated_at
		FROM users
		WHERE ` + where
	var user models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.GoogleID, &user.Email, &user.Name, &user.Image,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Update refreshes the mutable profile fields (Google ID link, name, image)
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET google_id = NULLIF($2, ''), name = $3, image = $4, updated_at = $5
		WHERE id = $1
	`
	rowsAffected, err := r.db.Exec(ctx, query,
		user.ID, user.GoogleID, user.Name, user.Image, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Delete removes a user. Subscriptions, usage records, documents, chat
// sessions and billing history cascade at the schema level.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	rowsAffected, err := r.db.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// ListWithDetails returns every user with their subscription (when
// materialized) and collaborator counts, newest first. Usage records are
// attached separately by the caller.
func (r *UserRepository) ListWithDetails(ctx context.Context) ([]models.AdminUserEntry, error) {
	query := `
		SELECT u.id, COALESCE(u.google_id, ''), u.email, u.name, u.image, u.created_at, u.updated_at,
		       s.id, s.plan, s.status, s.start_date, s.end_date, s.updated_at,
		       (SELECT count(*) FROM chat_sessions cs WHERE cs.user_id = u.id),
		       (SELECT count(*) FROM billing_history bh WHERE bh.user_id = u.id)
		FROM users u
		LEFT JOIN subscriptions s ON s.user_id = u.id
		ORDER BY u.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var entries []models.AdminUserEntry
	for rows.Next() {
		var entry models.AdminUserEntry
		var subID, subPlan, subStatus *string
		var subStart, subUpdated *time.Time
		var subEnd *time.Time

		err := rows.Scan(
			&entry.User.ID, &entry.User.GoogleID, &entry.User.Email, &entry.User.Name,
			&entry.User.Image, &entry.User.CreatedAt, &entry.User.UpdatedAt,
			&subID, &subPlan, &subStatus, &subStart, &subEnd, &subUpdated,
			&entry.ChatSessionCount, &entry.BillingCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}

		if subID != nil {
			entry.Subscription = &models.Subscription{
				ID:        *subID,
				UserID:    entry.User.ID,
				Plan:      *subPlan,
				Status:    *subStatus,
				StartDate: *subStart,
				EndDate:   subEnd,
				UpdatedAt: *subUpdated,
			}
		}
		entry.UsageRecords = []models.UsageRecord{}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user rows: %w", err)
	}

	return entries, nil
}

// isUniqueViolation checks if an error is a unique constraint violation
func isUniqueViolation(err error) bool {
	// PostgreSQL unique violation error code is 23505
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "23505")
}
