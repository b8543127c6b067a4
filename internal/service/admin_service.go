package service

import (
	"context"
	"time"

	"github.com/agoraai/backend/internal/models"
)

// AdminService implements the administrative mutations over a target user
// and the dashboard aggregation. Every mutation is idempotent and reports
// a human-readable outcome.
type AdminService struct {
	users UserStore
	subs  SubscriptionStore
	usage UsageStore
	chats ChatStatsStore
	now   func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(users UserStore, subs SubscriptionStore, usage UsageStore, chats ChatStatsStore) *AdminService {
	return &AdminService{
		users: users,
		subs:  subs,
		usage: usage,
		chats: chats,
		now:   time.Now,
	}
}

// WithClock overrides the period clock for tests.
func (s *AdminService) WithClock(now func() time.Time) *AdminService {
	s.now = now
	return s
}

func (s *AdminService) currentPeriod() (month, year int) {
	t := s.now().UTC()
	return int(t.Month()), t.Year()
}

// ResetFeatureUsage zeroes one feature's current-period counter for a user.
func (s *AdminService) ResetFeatureUsage(ctx context.Context, userID, feature string) (*models.AdminActionResult, error) {
	month, year := s.currentPeriod()
	if err := s.usage.ResetFeature(ctx, userID, feature, month, year); err != nil {
		return nil, err
	}
	return &models.AdminActionResult{Success: true, Message: "Usage reset successfully"}, nil
}

// ResetAllUsage zeroes every current-period counter for a user. Other
// users' records and other periods are untouched.
func (s *AdminService) ResetAllUsage(ctx context.Context, userID string) (*models.AdminActionResult, error) {
	month, year := s.currentPeriod()
	if err := s.usage.ResetAll(ctx, userID, month, year); err != nil {
		return nil, err
	}
	return &models.AdminActionResult{Success: true, Message: "All usage reset successfully"}, nil
}

// DeleteUser removes the user row; all owned records cascade. Irreversible.
func (s *AdminService) DeleteUser(ctx context.Context, userID string) (*models.AdminActionResult, error) {
	if err := s.users.Delete(ctx, userID); err != nil {
		return nil, err
	}
	return &models.AdminActionResult{Success: true, Message: "User deleted successfully"}, nil
}

// ResetToFree sets the user's subscription back to free/active and zeroes
// all current-period usage.
func (s *AdminService) ResetToFree(ctx context.Context, userID string) (*models.AdminActionResult, error) {
	if _, err := s.subs.Upsert(ctx, userID, models.PlanFree, models.StatusActive); err != nil {
		return nil, err
	}

	month, year := s.currentPeriod()
	if err := s.usage.ResetAll(ctx, userID, month, year); err != nil {
		return nil, err
	}

	return &models.AdminActionResult{
		Success: true,
		Message: "User reset to free plan and usage cleared successfully",
	}, nil
}

// Dashboard assembles every user with subscription, current-period usage
// and collaborator counts, plus system-wide statistics.
func (s *AdminService) Dashboard(ctx context.Context) (*models.AdminDashboard, error) {
	entries, err := s.users.ListWithDetails(ctx)
	if err != nil {
		return nil, err
	}

	month, year := s.currentPeriod()
	records, err := s.usage.ListForPeriodAll(ctx, month, year)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string][]models.UsageRecord)
	for _, rec := range records {
		byUser[rec.UserID] = append(byUser[rec.UserID], rec)
	}
	for i := range entries {
		if recs, ok := byUser[entries[i].User.ID]; ok {
			entries[i].UsageRecords = recs
		}
	}

	stats, err := s.statistics(ctx, month, year)
	if err != nil {
		return nil, err
	}

	return &models.AdminDashboard{
		Users:      entries,
		Statistics: *stats,
	}, nil
}

func (s *AdminService) statistics(ctx context.Context, month, year int) (*models.AdminStats, error) {
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalSubs, err := s.subs.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalUsage, err := s.usage.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalChats, err := s.chats.CountSessions(ctx)
	if err != nil {
		return nil, err
	}
	monthly, err := s.usage.TotalsByFeature(ctx, month, year)
	if err != nil {
		return nil, err
	}

	return &models.AdminStats{
		TotalUsers:         totalUsers,
		TotalSubscriptions: totalSubs,
		TotalUsageRecords:  totalUsage,
		TotalChatSessions:  totalChats,
		MonthlyUsage:       monthly,
	}, nil
}
