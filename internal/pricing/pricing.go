// Package pricing is the static plan catalog: the sole source of truth for
// per-feature monthly limits and plan metadata. It is built once at init and
// never mutated, so concurrent reads need no synchronization.
package pricing

import (
	"github.com/agoraai/backend/internal/models"
)

// FeatureLimit is a monthly limit for one metered feature.
type FeatureLimit struct {
	MonthlyLimit int `json:"monthlyLimit"`
}

// StorageLimit is a byte budget for Drive-exported files. It is not a
// monthly counter; it is checked against the sum of stored document sizes.
type StorageLimit struct {
	Limit int64 `json:"limit"`
}

// Features holds every limit a tier defines.
type Features struct {
	PDFChat         FeatureLimit `json:"pdfChat"`
	ImageGeneration FeatureLimit `json:"imageGeneration"`
	TextHumanizer   FeatureLimit `json:"textHumanizer"`
	Storage         StorageLimit `json:"storage"`
}

// Tier is one entitlement bundle from the catalog.
type Tier struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Features Features `json:"features"`
}

const (
	mib = 1024 * 1024
	gib = 1024 * mib
)

var tiers = map[string]Tier{
	models.PlanFree: {
		ID:    models.PlanFree,
		Name:  "Free",
		Price: 0,
		Features: Features{
			PDFChat:         FeatureLimit{MonthlyLimit: 10},
			ImageGeneration: FeatureLimit{MonthlyLimit: 5},
			TextHumanizer:   FeatureLimit{MonthlyLimit: 5000},
			Storage:         StorageLimit{Limit: 100 * mib},
		},
	},
	models.PlanPro: {
		ID:    models.PlanPro,
		Name:  "Pro",
		Price: 9.99,
		Features: Features{
			PDFChat:         FeatureLimit{MonthlyLimit: 200},
			ImageGeneration: FeatureLimit{MonthlyLimit: 100},
			TextHumanizer:   FeatureLimit{MonthlyLimit: 100000},
			Storage:         StorageLimit{Limit: 5 * gib},
		},
	},
}

// tierOrder fixes the order tiers are listed in API responses.
var tierOrder = []string{models.PlanFree, models.PlanPro}

// Get returns the tier for a plan identifier.
func Get(plan string) (Tier, bool) {
	t, ok := tiers[plan]
	return t, ok
}

// IsValidPlan reports whether the plan identifier exists in the catalog.
func IsValidPlan(plan string) bool {
	_, ok := tiers[plan]
	return ok
}

// Tiers returns all tiers in display order.
func Tiers() []Tier {
	out := make([]Tier, 0, len(tierOrder))
	for _, id := range tierOrder {
		out = append(out, tiers[id])
	}
	return out
}

// LimitFor returns the monthly limit for a feature under a plan.
// An unknown plan falls back to free; an unknown feature yields 0 so
// entitlement checks fail closed instead of erroring.
func LimitFor(plan, feature string) int {
	t, ok := tiers[plan]
	if !ok {
		t = tiers[models.PlanFree]
	}
	switch feature {
	case models.FeaturePDFChat:
		return t.Features.PDFChat.MonthlyLimit
	case models.FeatureImageGeneration:
		return t.Features.ImageGeneration.MonthlyLimit
	case models.FeatureTextHumanizer:
		return t.Features.TextHumanizer.MonthlyLimit
	default:
		return 0
	}
}

// StorageLimitFor returns the storage byte budget for a plan,
// falling back to the free tier for unknown plans.
func StorageLimitFor(plan string) int64 {
	t, ok := tiers[plan]
	if !ok {
		t = tiers[models.PlanFree]
	}
	return t.Features.Storage.Limit
}
