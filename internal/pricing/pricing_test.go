package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agoraai/backend/internal/models"
)

func TestIsValidPlan(t *testing.T) {
	assert.True(t, IsValidPlan(models.PlanFree))
	assert.True(t, IsValidPlan(models.PlanPro))
	assert.False(t, IsValidPlan("enterprise"))
	assert.False(t, IsValidPlan(""))
}

func TestLimitFor(t *testing.T) {
	tests := []struct {
		name    string
		plan    string
		feature string
		want    int
	}{
		{"free pdf chat", models.PlanFree, models.FeaturePDFChat, 10},
		{"free humanizer chars", models.PlanFree, models.FeatureTextHumanizer, 5000},
		{"pro image generation", models.PlanPro, models.FeatureImageGeneration, 100},
		{"unknown plan falls back to free", "nonexistent-plan", models.FeaturePDFChat, 10},
		{"unknown feature fails closed", models.PlanPro, "video_generation", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LimitFor(tt.plan, tt.feature))
		})
	}
}

func TestTiersOrderedAndComplete(t *testing.T) {
	all := Tiers()
	assert.Len(t, all, 2)
	assert.Equal(t, models.PlanFree, all[0].ID)
	assert.Equal(t, models.PlanPro, all[1].ID)

	// every metered feature has a positive limit on every known tier
	for _, tier := range all {
		for _, feature := range models.MeteredFeatures {
			assert.Greater(t, LimitFor(tier.ID, feature), 0,
				"tier %s feature %s", tier.ID, feature)
		}
		assert.Greater(t, StorageLimitFor(tier.ID), int64(0))
	}
}

func TestProRaisesEveryLimit(t *testing.T) {
	for _, feature := range models.MeteredFeatures {
		assert.Greater(t, LimitFor(models.PlanPro, feature), LimitFor(models.PlanFree, feature))
	}
	assert.Greater(t, StorageLimitFor(models.PlanPro), StorageLimitFor(models.PlanFree))
}
