package admission

import (
	"math"
	"strconv"

	"github.com/gdg-garage/guest-checkin-api/internal/config"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
)

// Unlimited is the quota used for plans without a re-entry cap.
const Unlimited = math.MaxInt32

// DefaultFreeQuota is the re-entry cap applied to free organizations when the quota policy is active.
const DefaultFreeQuota = 5

// Policy decides whether a plan may scan and with which per-guest quota.
type Policy struct {
	// FreePlanScanning allows free organizations to scan, capped at FreeQuota.
	FreePlanScanning bool
	FreeQuota        int
}

func PolicyFromConfig(cfg *config.Config) Policy {
	quota := cfg.FreePlanQuota
	if quota < 1 {
		quota = DefaultFreeQuota
	}
	return Policy{
		FreePlanScanning: cfg.FreePlanPolicy == config.FreePlanQuota,
		FreeQuota:        quota,
	}
}

// Quota returns the per-guest admission quota for plan, or ErrPlanNotPermitted.
func (p Policy) Quota(plan models.Plan) (int, error) {
	switch plan {
	case models.PlanPro:
		return Unlimited, nil
	case models.PlanFree:
		if !p.FreePlanScanning {
			return 0, ErrPlanNotPermitted
		}
		if p.FreeQuota < 1 {
			return DefaultFreeQuota, nil
		}
		return p.FreeQuota, nil
	default:
		return 0, ErrPlanNotPermitted
	}
}

func formatQuota(quota int) string {
	if quota >= Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(quota)
}
