package admission

import (
	"testing"

	"github.com/gdg-garage/guest-checkin-api/internal/config"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyQuota(t *testing.T) {
	t.Run("ProIsUnlimited", func(t *testing.T) {
		quota, err := Policy{}.Quota(models.PlanPro)
		require.NoError(t, err)
		assert.Equal(t, Unlimited, quota)
	})

	t.Run("FreeDisabled", func(t *testing.T) {
		_, err := Policy{}.Quota(models.PlanFree)
		assert.ErrorIs(t, err, ErrPlanNotPermitted)
	})

	t.Run("FreeCapped", func(t *testing.T) {
		quota, err := Policy{FreePlanScanning: true, FreeQuota: 3}.Quota(models.PlanFree)
		require.NoError(t, err)
		assert.Equal(t, 3, quota)
	})

	t.Run("FreeCapDefaults", func(t *testing.T) {
		quota, err := Policy{FreePlanScanning: true}.Quota(models.PlanFree)
		require.NoError(t, err)
		assert.Equal(t, DefaultFreeQuota, quota)
	})

	t.Run("UnknownPlan", func(t *testing.T) {
		_, err := Policy{FreePlanScanning: true}.Quota(models.Plan("enterprise"))
		assert.ErrorIs(t, err, ErrPlanNotPermitted)
	})
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(&config.Config{FreePlanPolicy: config.FreePlanDisabled, FreePlanQuota: 2})
	assert.False(t, p.FreePlanScanning)

	p = PolicyFromConfig(&config.Config{FreePlanPolicy: config.FreePlanQuota, FreePlanQuota: 0})
	assert.True(t, p.FreePlanScanning)
	assert.Equal(t, DefaultFreeQuota, p.FreeQuota)
}

func TestOutcomeMessages(t *testing.T) {
	assert.Equal(t, "Jane checked in", successOutcome("Jane", 1, 5).Message)
	assert.Equal(t, "Jane re-entered (3/5)", successOutcome("Jane", 3, 5).Message)
	assert.Equal(t, "Jane re-entered (2/unlimited)", successOutcome("Jane", 2, Unlimited).Message)
	assert.Equal(t, "Jane has already used all 5 entries", failureOutcome(KindAlreadyAtQuota, "Jane", 5).Message)

	assert.False(t, successOutcome("Jane", 1, 5).Reentry())
	assert.True(t, successOutcome("Jane", 2, 5).Reentry())
	assert.False(t, failureOutcome(KindAlreadyAtQuota, "Jane", 5).Reentry())
}
