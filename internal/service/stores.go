package service

import (
	"context"

	"github.com/agoraai/backend/internal/models"
)

// SubscriptionStore is the persistence surface the services need for
// subscription rows. Implemented by repository.SubscriptionRepository;
// tests use the in-memory fake from internal/testutil.
type SubscriptionStore interface {
	Get(ctx context.Context, userID string) (*models.Subscription, error)
	Upsert(ctx context.Context, userID, plan, status string) (*models.Subscription, error)
	EnsureDefault(ctx context.Context, userID string) error
	Count(ctx context.Context) (int64, error)
}

// UsageStore is the persistence surface for the usage ledger.
// Implemented by repository.UsageRepository.
type UsageStore interface {
	Get(ctx context.Context, userID, feature string, month, year int) (*models.UsageRecord, error)
	ListForPeriod(ctx context.Context, userID string, month, year int) ([]models.UsageRecord, error)
	ListForPeriodAll(ctx context.Context, month, year int) ([]models.UsageRecord, error)
	Add(ctx context.Context, userID, feature string, month, year, amount int) (*models.UsageRecord, error)
	ResetFeature(ctx context.Context, userID, feature string, month, year int) error
	ResetAll(ctx context.Context, userID string, month, year int) error
	Count(ctx context.Context) (int64, error)
	TotalsByFeature(ctx context.Context, month, year int) ([]models.FeatureTotal, error)
}

// UserStore is the persistence surface the admin service needs for users.
// Implemented by repository.UserRepository.
type UserStore interface {
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	ListWithDetails(ctx context.Context) ([]models.AdminUserEntry, error)
}

// BillingStore records billing history entries on plan changes.
// Implemented by repository.BillingRepository.
type BillingStore interface {
	Create(ctx context.Context, rec *models.BillingRecord) error
}

// ChatStatsStore exposes the chat-session count for dashboard statistics.
// Implemented by repository.ChatRepository.
type ChatStatsStore interface {
	CountSessions(ctx context.Context) (int64, error)
}
