package admission

import (
	"context"
	"sync"
	"time"

	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"github.com/google/uuid"
)

// Session is the operator, organization and event context a scanning device works in.
// Plan and quota are captured when the session starts and change only through Refresh.
type Session struct {
	ID        uuid.UUID
	Event     models.Event
	StartedAt time.Time

	policy Policy

	mu           sync.RWMutex
	operator     models.User
	organization models.Organization
	quota        int
	permitted    error
}

// StartSession loads the session context and applies the entry gates: operator not blocked,
// organization not blocked, operator is a member, plan permits scanning.
func StartSession(ctx context.Context, store Store, policy Policy, operatorID uint, orgSlug, eventSlug string) (*Session, error) {
	operator, err := store.Operator(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	org, err := store.Organization(ctx, orgSlug)
	if err != nil {
		return nil, err
	}

	quota, err := gate(ctx, store, policy, operator, org)
	if err != nil {
		return nil, err
	}

	event, err := store.Event(ctx, org.ID, eventSlug)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:           uuid.New(),
		Event:        event,
		StartedAt:    time.Now().UTC(),
		policy:       policy,
		operator:     operator,
		organization: org,
		quota:        quota,
	}, nil
}

// NewSession builds a session from already-loaded records without consulting the store.
// A plan that does not permit scanning yields a session that refuses every credential.
func NewSession(operator models.User, org models.Organization, event models.Event, policy Policy) *Session {
	quota, err := policy.Quota(org.Plan)
	return &Session{
		ID:           uuid.New(),
		Event:        event,
		StartedAt:    time.Now().UTC(),
		policy:       policy,
		operator:     operator,
		organization: org,
		quota:        quota,
		permitted:    err,
	}
}

func gate(ctx context.Context, store Store, policy Policy, operator models.User, org models.Organization) (int, error) {
	if operator.Blocked {
		return 0, ErrOperatorBlocked
	}
	if org.Blocked {
		return 0, ErrOrganizationBlocked
	}
	if _, err := store.Membership(ctx, org.ID, operator.ID); err != nil {
		return 0, err
	}
	return policy.Quota(org.Plan)
}

// Refresh re-reads the operator and organization and re-applies the entry gates.
// A plan that no longer permits scanning leaves the session refusing credentials until the next
// successful refresh. A blocked operator or organization, or a lost membership, revokes the
// session: every later credential fails with that error and the caller should close it.
func (s *Session) Refresh(ctx context.Context, store Store) error {
	current, currentOrg := s.Operator(), s.Organization()

	operator, err := store.Operator(ctx, current.ID)
	if err != nil {
		return s.revoke(err)
	}
	org, err := store.Organization(ctx, currentOrg.Slug)
	if err != nil {
		return s.revoke(err)
	}

	quota, gateErr := gate(ctx, store, s.policy, operator, org)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.operator = operator
	s.organization = org
	s.permitted = gateErr
	if gateErr == nil {
		s.quota = quota
	}
	return gateErr
}

func (s *Session) revoke(err error) error {
	if Revoked(err) {
		s.mu.Lock()
		s.permitted = err
		s.mu.Unlock()
	}
	return err
}

// Limits returns the quota in force and the reason scanning is refused, if any.
func (s *Session) Limits() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quota, s.permitted
}

func (s *Session) Operator() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.operator
}

// Organization returns the organization as of the last start or refresh.
func (s *Session) Organization() models.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.organization
}
