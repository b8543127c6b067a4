package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/testutil"
)

func newSubscriptionFixture(t *testing.T) (*SubscriptionService, *testutil.FakeSubscriptionStore, *testutil.FakeBillingStore) {
	t.Helper()
	subs := testutil.NewFakeSubscriptionStore()
	billing := testutil.NewFakeBillingStore()
	return NewSubscriptionService(subs, billing), subs, billing
}

func TestGetCurrent_VirtualFreeDefault(t *testing.T) {
	svc, subs, _ := newSubscriptionFixture(t)
	ctx := context.Background()

	sub, err := svc.GetCurrent(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.PlanFree, sub.Plan)
	assert.Equal(t, models.StatusActive, sub.Status)

	// the virtual default is never materialized
	n, err := subs.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEnsureDefault_Idempotent(t *testing.T) {
	svc, subs, _ := newSubscriptionFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefault(ctx, "user-1"))
	require.NoError(t, svc.EnsureDefault(ctx, "user-1"))

	n, err := subs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sub, err := svc.GetCurrent(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, sub.Plan)
	assert.Equal(t, models.StatusActive, sub.Status)
}

func TestEnsureDefault_DoesNotDowngrade(t *testing.T) {
	svc, subs, _ := newSubscriptionFixture(t)
	ctx := context.Background()

	_, err := subs.Upsert(ctx, "user-1", models.PlanPro, models.StatusActive)
	require.NoError(t, err)

	require.NoError(t, svc.EnsureDefault(ctx, "user-1"))

	sub, err := svc.GetCurrent(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, sub.Plan)
}

func TestSetPlan_UpsertsAndRecordsBilling(t *testing.T) {
	svc, _, billing := newSubscriptionFixture(t)
	ctx := context.Background()

	sub, err := svc.SetPlan(ctx, "user-1", models.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, sub.Plan)
	assert.Equal(t, models.StatusActive, sub.Status)

	require.Len(t, billing.Records, 1)
	assert.Equal(t, models.PlanPro, billing.Records[0].Plan)
	assert.InDelta(t, 9.99, billing.Records[0].Amount, 0.001)
}

func TestSetPlan_RejectsUnknownPlanLeavingRowUnchanged(t *testing.T) {
	svc, subs, billing := newSubscriptionFixture(t)
	ctx := context.Background()

	_, err := subs.Upsert(ctx, "user-1", models.PlanPro, models.StatusActive)
	require.NoError(t, err)

	_, err = svc.SetPlan(ctx, "user-1", "nonexistent-plan")
	assert.ErrorIs(t, err, ErrInvalidPlan)

	sub, err := svc.GetCurrent(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, sub.Plan)
	assert.Empty(t, billing.Records)
}
