package models

import (
	"time"
)

// Feature tags for meterable capabilities
const (
	FeaturePDFChat         = "pdf_chat"
	FeatureImageGeneration = "image_generation"
	FeatureTextHumanizer   = "text_humanizer"
)

// MeteredFeatures lists every feature tracked by the usage ledger,
// in the order they are reported.
var MeteredFeatures = []string{
	FeaturePDFChat,
	FeatureImageGeneration,
	FeatureTextHumanizer,
}

// UsageRecord is a per-user, per-feature counter for one civil (month, year)
// period. At most one row exists per (user, feature, month, year) tuple; the
// counter only grows within a period except for explicit admin resets.
type UsageRecord struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Feature    string    `json:"feature" db:"feature"`
	Month      int       `json:"month" db:"month"`
	Year       int       `json:"year" db:"year"`
	UsageCount int       `json:"usageCount" db:"usage_count"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// UsageSnapshot is the entitlement view of one feature for the current
// period: the counter, the plan limit and the allow/deny decision.
type UsageSnapshot struct {
	Feature      string `json:"feature"`
	CurrentUsage int    `json:"currentUsage"`
	Limit        int    `json:"limit"`
	Remaining    int    `json:"remaining"`
	Allowed      bool   `json:"allowed"`
}
