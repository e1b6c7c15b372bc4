package admission

import "fmt"

type Kind string

const (
	KindSuccess           Kind = "success"
	KindAlreadyAtQuota    Kind = "already-at-quota"
	KindGuestNotFound     Kind = "guest-not-found"
	KindInvalidCredential Kind = "invalid-credential"
	KindPlanNotPermitted  Kind = "plan-not-permitted"
	KindOperationFailed   Kind = "operation-failed"
)

// Outcome is the result of one processed credential, handed back to the operator.
type Outcome struct {
	Kind      Kind   `json:"kind" doc:"Result classification"`
	GuestName string `json:"guest_name,omitempty" doc:"Name of the matched guest"`
	Count     int    `json:"count,omitempty" doc:"Guest's admission count after this scan"`
	Quota     int    `json:"quota,omitempty" doc:"Per-guest quota in force"`
	Message   string `json:"message" doc:"Operator-facing message"`
}

// Reentry reports whether a successful admission was not the guest's first.
func (o Outcome) Reentry() bool {
	return o.Kind == KindSuccess && o.Count > 1
}

func successOutcome(name string, count, quota int) Outcome {
	o := Outcome{Kind: KindSuccess, GuestName: name, Count: count, Quota: quota}
	if count <= 1 {
		o.Message = fmt.Sprintf("%s checked in", name)
		return o
	}
	shown := count
	if shown > quota {
		shown = quota
	}
	o.Message = fmt.Sprintf("%s re-entered (%d/%s)", name, shown, formatQuota(quota))
	return o
}

func failureOutcome(kind Kind, name string, quota int) Outcome {
	o := Outcome{Kind: kind, GuestName: name, Quota: quota}
	switch kind {
	case KindAlreadyAtQuota:
		o.Count = quota
		o.Message = fmt.Sprintf("%s has already used all %s entries", name, formatQuota(quota))
	case KindGuestNotFound:
		o.Message = fmt.Sprintf("No guest named %q on the list", name)
	case KindInvalidCredential:
		o.Message = "Credential could not be read"
	case KindPlanNotPermitted:
		o.Message = "Check-in requires the Pro plan. Upgrade to enable scanning."
	default:
		o.Message = "Check-in failed, please try again"
	}
	return o
}
