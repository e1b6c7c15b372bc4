package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdg-garage/guest-checkin-api/internal/metrics"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"github.com/gdg-garage/guest-checkin-api/internal/notifier"
	"go.uber.org/zap"
)

// Credential is a raw payload presented at the point of entry.
type Credential struct {
	Raw        string
	Source     models.Source
	DurationMs *int64
}

// Controller decides whether presented credentials admit a guest of the session's event.
// A controller is driven by one consumer at a time; see Pipeline.
type Controller struct {
	store    Store
	session  *Session
	notifier notifier.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewController(store Store, session *Session, n notifier.Notifier, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:    store,
		session:  session,
		notifier: n,
		logger:   logger.With(zap.String("session", session.ID.String())),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (c *Controller) Session() *Session {
	return c.session
}

// Process handles one credential with the session's quota. A session whose plan does not
// permit scanning refuses the credential before it is parsed.
func (c *Controller) Process(ctx context.Context, cred Credential) (Outcome, error) {
	quota, refused := c.session.Limits()
	if refused != nil {
		return c.refuse(refused)
	}

	name, err := ParseCredential(cred.Raw)
	if err != nil {
		return c.finish(failureOutcome(KindInvalidCredential, "", quota), nil)
	}

	source := cred.Source
	if source == "" {
		source = models.SourceManual
	}
	return c.admit(ctx, name, quota, source, cred.DurationMs)
}

// AdmitGuest admits guestName against an explicit quota. Use Unlimited for uncapped plans.
func (c *Controller) AdmitGuest(ctx context.Context, guestName string, quota int, durationMs *int64) (Outcome, error) {
	if _, refused := c.session.Limits(); refused != nil {
		return c.refuse(refused)
	}
	if guestName == "" {
		return c.finish(failureOutcome(KindInvalidCredential, "", quota), nil)
	}
	return c.admit(ctx, guestName, quota, models.SourceManual, durationMs)
}

// refuse answers a credential on a session that may not scan. A plan that does not permit
// scanning is an outcome the operator can act on; revoked access is returned as the error.
func (c *Controller) refuse(reason error) (Outcome, error) {
	if Revoked(reason) {
		return Outcome{}, reason
	}
	return c.finish(failureOutcome(KindPlanNotPermitted, "", 0), nil)
}

func (c *Controller) admit(ctx context.Context, name string, quota int, source models.Source, durationMs *int64) (Outcome, error) {
	if quota < 1 {
		return c.finish(failureOutcome(KindOperationFailed, name, quota), ErrInvalidQuota)
	}
	if durationMs != nil && *durationMs < 0 {
		durationMs = nil
	}

	guest, err := c.store.Admit(ctx, AdmitRequest{
		EventID:    c.session.Event.ID,
		OperatorID: c.session.Operator().ID,
		GuestName:  name,
		Quota:      quota,
		Source:     source,
		DurationMs: durationMs,
		At:         c.now(),
	})
	switch {
	case errors.Is(err, ErrGuestNotFound):
		return c.finish(failureOutcome(KindGuestNotFound, name, quota), nil)
	case errors.Is(err, ErrAlreadyAtQuota):
		return c.finish(failureOutcome(KindAlreadyAtQuota, name, quota), nil)
	case err != nil:
		c.logger.Error("admission failed", zap.String("guest", name), zap.Error(err))
		return c.finish(failureOutcome(KindOperationFailed, name, quota), fmt.Errorf("admit guest: %w", err))
	}

	if durationMs != nil {
		metrics.RecordScanDuration(*durationMs)
	}

	c.logger.Info("guest admitted",
		zap.String("guest", guest.Name),
		zap.Uint("guest_id", guest.ID),
		zap.Int("count", guest.CheckInCount),
		zap.String("source", string(source)),
	)

	if c.notifier != nil {
		if err := c.notifier.NotifyAdmission(c.session.Organization(), c.session.Event, guest); err != nil {
			c.logger.Warn("failed to send admission notification", zap.Error(err))
		}
	}

	return c.finish(successOutcome(guest.Name, guest.CheckInCount, quota), nil)
}

func (c *Controller) finish(out Outcome, err error) (Outcome, error) {
	metrics.RecordOutcome(string(out.Kind))
	if out.Kind != KindSuccess && out.Kind != KindOperationFailed {
		c.logger.Debug("credential refused", zap.String("outcome", string(out.Kind)), zap.String("guest", out.GuestName))
	}
	return out, err
}
