package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/guest-checkin-api/internal/admission"
	"github.com/gdg-garage/guest-checkin-api/internal/auth"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"github.com/gdg-garage/guest-checkin-api/internal/notifier"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const upgradePrompt = "Check-in is available on the Pro plan. Upgrade your organization to enable scanning."

type ScanHandler struct {
	store       admission.Store
	registry    *admission.Registry
	policy      admission.Policy
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
	logger      *zap.Logger
}

func NewScanHandler(store admission.Store, registry *admission.Registry, policy admission.Policy, n notifier.Notifier, authHandler *auth.AuthHandler, logger *zap.Logger) *ScanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanHandler{
		store:       store,
		registry:    registry,
		policy:      policy,
		notifier:    n,
		authHandler: authHandler,
		logger:      logger,
	}
}

type SessionBody struct {
	ID           string      `json:"id"`
	Organization string      `json:"organization"`
	Event        string      `json:"event"`
	Plan         models.Plan `json:"plan"`
	Quota        string      `json:"quota" doc:"Per-guest entry quota, or unlimited"`
	Permitted    bool        `json:"permitted"`
	StartedAt    time.Time   `json:"started_at"`
}

type SessionResponse struct {
	Body SessionBody
}

func sessionBody(s *admission.Session) SessionBody {
	org := s.Organization()
	quota, refused := s.Limits()
	body := SessionBody{
		ID:           s.ID.String(),
		Organization: org.Slug,
		Event:        s.Event.Slug,
		Plan:         org.Plan,
		Permitted:    refused == nil,
		StartedAt:    s.StartedAt,
	}
	switch {
	case refused != nil:
		body.Quota = "0"
	case quota >= admission.Unlimited:
		body.Quota = "unlimited"
	default:
		body.Quota = strconv.Itoa(quota)
	}
	return body
}

// gateError maps session-start failures onto HTTP errors.
func gateError(err error) error {
	switch {
	case errors.Is(err, admission.ErrPlanNotPermitted):
		return huma.Error403Forbidden(upgradePrompt)
	case errors.Is(err, admission.ErrOperatorBlocked):
		return huma.Error403Forbidden("Access denied: account is blocked")
	case errors.Is(err, admission.ErrOrganizationBlocked):
		return huma.Error403Forbidden("Access denied: organization is blocked")
	case errors.Is(err, admission.ErrNotMember):
		return huma.Error403Forbidden("Access denied: not a member of this organization")
	case errors.Is(err, admission.ErrOperatorNotFound):
		return huma.Error404NotFound("User not found")
	case errors.Is(err, admission.ErrOrganizationNotFound):
		return huma.Error404NotFound("Organization not found")
	case errors.Is(err, admission.ErrEventNotFound):
		return huma.Error404NotFound("Event not found")
	default:
		return huma.Error500InternalServerError("Failed to start scan session: " + err.Error())
	}
}

func (h *ScanHandler) HandleStartSession(ctx context.Context, input *EventPathRequest) (*SessionResponse, error) {
	principal, err := h.authHandler.Authenticate(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	userID := principal.UserID

	session, err := admission.StartSession(ctx, h.store, h.policy, userID, input.Org, input.Event)
	if err != nil {
		return nil, gateError(err)
	}
	if !principal.Allows(session.Organization().ID) {
		return nil, huma.Error403Forbidden(scannerKeyScopeMessage)
	}

	ctrl := admission.NewController(h.store, session, h.notifier, h.logger)
	h.registry.Open(ctrl)

	h.logger.Info("scan session started",
		zap.String("session", session.ID.String()),
		zap.String("org", input.Org),
		zap.String("event", input.Event),
		zap.Uint("operator_id", userID),
	)
	return &SessionResponse{Body: sessionBody(session)}, nil
}

type SessionPathRequest struct {
	auth.AuthInput
	ID string `path:"id" doc:"Scan session ID" format:"uuid"`
}

// runner returns the caller's open session. Sessions belong to the operator who started them,
// and a scanner key only sees sessions of its own organization.
func (h *ScanHandler) runner(ctx context.Context, input auth.AuthInput, rawID string) (*admission.Runner, error) {
	principal, err := h.authHandler.Authenticate(ctx, input)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, huma.Error404NotFound("Scan session not found")
	}
	runner, ok := h.registry.Get(id)
	if !ok || runner.Session().Operator().ID != principal.UserID || !principal.Allows(runner.Session().Organization().ID) {
		return nil, huma.Error404NotFound("Scan session not found")
	}
	return runner, nil
}

func (h *ScanHandler) HandleGetSession(ctx context.Context, input *SessionPathRequest) (*SessionResponse, error) {
	runner, err := h.runner(ctx, input.AuthInput, input.ID)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{Body: sessionBody(runner.Session())}, nil
}

// HandleRefreshSession re-checks blocked flags, membership and plan for an open session.
// A session whose access was revoked is closed; one whose plan lapsed stays open but refuses
// credentials until the plan permits scanning again.
func (h *ScanHandler) HandleRefreshSession(ctx context.Context, input *SessionPathRequest) (*SessionResponse, error) {
	runner, err := h.runner(ctx, input.AuthInput, input.ID)
	if err != nil {
		return nil, err
	}

	err = runner.Session().Refresh(ctx, h.store)
	switch {
	case err == nil:
	case errors.Is(err, admission.ErrPlanNotPermitted):
		h.logger.Info("scan session refused after refresh", zap.String("session", input.ID), zap.Error(err))
	case admission.Revoked(err):
		h.registry.Close(runner.Session().ID)
		h.logger.Warn("scan session revoked", zap.String("session", input.ID), zap.Error(err))
		return nil, gateError(err)
	default:
		return nil, huma.Error500InternalServerError("Failed to refresh scan session")
	}
	return &SessionResponse{Body: sessionBody(runner.Session())}, nil
}

func (h *ScanHandler) HandleStopSession(ctx context.Context, input *SessionPathRequest) (*struct{}, error) {
	runner, err := h.runner(ctx, input.AuthInput, input.ID)
	if err != nil {
		return nil, err
	}
	h.registry.Close(runner.Session().ID)
	h.logger.Info("scan session stopped", zap.String("session", input.ID))
	return nil, nil
}

type OutcomeResponse struct {
	Body admission.Outcome
}

type ScanRequest struct {
	auth.AuthInput
	ID   string `path:"id" doc:"Scan session ID" format:"uuid"`
	Body struct {
		Credential string `json:"credential" doc:"Decoded QR payload"`
		DurationMs *int64 `json:"duration_ms,omitempty" doc:"Time from scan start to decode, in milliseconds" minimum:"0"`
	}
}

func (h *ScanHandler) HandleScan(ctx context.Context, input *ScanRequest) (*OutcomeResponse, error) {
	return h.submit(ctx, input.AuthInput, input.ID, admission.Credential{
		Raw:        input.Body.Credential,
		Source:     models.SourceCamera,
		DurationMs: input.Body.DurationMs,
	})
}

type ManualCheckInRequest struct {
	auth.AuthInput
	ID   string `path:"id" doc:"Scan session ID" format:"uuid"`
	Body struct {
		Code string `json:"code" doc:"Guest name or invite code typed by the operator"`
	}
}

func (h *ScanHandler) HandleManualCheckIn(ctx context.Context, input *ManualCheckInRequest) (*OutcomeResponse, error) {
	return h.submit(ctx, input.AuthInput, input.ID, admission.Credential{
		Raw:    input.Body.Code,
		Source: models.SourceManual,
	})
}

func (h *ScanHandler) submit(ctx context.Context, authInput auth.AuthInput, rawID string, cred admission.Credential) (*OutcomeResponse, error) {
	runner, err := h.runner(ctx, authInput, rawID)
	if err != nil {
		return nil, err
	}

	out, err := runner.Pipeline.Submit(ctx, cred)
	if err != nil {
		return nil, submitError(err)
	}
	return &OutcomeResponse{Body: out}, nil
}

func submitError(err error) error {
	switch {
	case errors.Is(err, admission.ErrSessionClosed):
		return huma.NewError(http.StatusGone, "Scan session closed")
	case admission.Revoked(err):
		return gateError(err)
	default:
		return huma.Error500InternalServerError("Check-in failed, please try again")
	}
}

type StreamRequest struct {
	auth.AuthInput
	ID      string `path:"id" doc:"Scan session ID" format:"uuid"`
	RawBody []byte `contentType:"text/plain" doc:"Newline-delimited decoded payloads, each optionally followed by a tab and the scan duration in milliseconds"`
}

type StreamResponse struct {
	Body struct {
		Outcomes []admission.Outcome `json:"outcomes"`
		Failed   int                 `json:"failed" doc:"Credentials that hit an operation failure"`
	}
}

// HandleStream feeds a batch of payloads from a device's detector through the session's queue.
func (h *ScanHandler) HandleStream(ctx context.Context, input *StreamRequest) (*StreamResponse, error) {
	runner, err := h.runner(ctx, input.AuthInput, input.ID)
	if err != nil {
		return nil, err
	}

	res := &StreamResponse{}
	res.Body.Outcomes = []admission.Outcome{}
	detector := admission.NewLineDetector(bytes.NewReader(input.RawBody))
	err = runner.Pipeline.Feed(ctx, detector, func(out admission.Outcome, err error) {
		if err != nil {
			res.Body.Failed++
		}
		res.Body.Outcomes = append(res.Body.Outcomes, out)
	})
	if err != nil {
		return nil, submitError(err)
	}
	return res, nil
}
