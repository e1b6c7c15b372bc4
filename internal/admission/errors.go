package admission

import "errors"

var (
	ErrInvalidCredential    = errors.New("invalid credential")
	ErrGuestNotFound        = errors.New("guest not found")
	ErrAlreadyAtQuota       = errors.New("guest has reached the entry quota")
	ErrPlanNotPermitted     = errors.New("plan does not permit scanning")
	ErrOperatorBlocked      = errors.New("operator is blocked")
	ErrOrganizationBlocked  = errors.New("organization is blocked")
	ErrNotMember            = errors.New("operator is not a member of the organization")
	ErrOperatorNotFound     = errors.New("operator not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrInvalidQuota         = errors.New("quota must be at least 1")
	ErrSessionClosed        = errors.New("scan session closed")
)

// Revoked reports whether err withdraws the operator's access to the session altogether.
// Unlike ErrPlanNotPermitted, which an upgrade can lift, these end the session.
func Revoked(err error) bool {
	return errors.Is(err, ErrOperatorBlocked) ||
		errors.Is(err, ErrOrganizationBlocked) ||
		errors.Is(err, ErrNotMember) ||
		errors.Is(err, ErrOperatorNotFound) ||
		errors.Is(err, ErrOrganizationNotFound)
}
