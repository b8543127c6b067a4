package models

// AdminUserEntry is one row of the admin dashboard: a user with their
// subscription (nil when never materialized), current-period usage and
// counts of owned collaborator records.
type AdminUserEntry struct {
	User             User          `json:"user"`
	Subscription     *Subscription `json:"subscription,omitempty"`
	UsageRecords     []UsageRecord `json:"usageRecords"`
	ChatSessionCount int           `json:"chatSessionCount"`
	BillingCount     int           `json:"billingCount"`
}

// FeatureTotal is the summed current-period usage of one feature across
// all users.
type FeatureTotal struct {
	Feature string `json:"feature"`
	Total   int64  `json:"total"`
}

// AdminStats are the system-wide counters shown on the dashboard.
type AdminStats struct {
	TotalUsers         int64          `json:"totalUsers"`
	TotalSubscriptions int64          `json:"totalSubscriptions"`
	TotalUsageRecords  int64          `json:"totalUsageRecords"`
	TotalChatSessions  int64          `json:"totalChatSessions"`
	MonthlyUsage       []FeatureTotal `json:"monthlyUsage"`
}

// AdminDashboard is the full dashboard payload.
type AdminDashboard struct {
	Users      []AdminUserEntry `json:"users"`
	Statistics AdminStats       `json:"statistics"`
}

// AdminActionResult is the outcome of a fire-and-forget admin mutation.
type AdminActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
