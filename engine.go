package memberauth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Engine is the client-side session and authorization engine. It mirrors the
// account service's view of the authenticated principal, keeps the durable
// credential store and the in-memory session consistent, and answers
// navigation and route-guard queries.
//
// All exported methods are safe for concurrent use. Network calls run
// outside the session lock; their results are applied in completion order,
// so when concurrent attempts overlap the last applied response wins.
type Engine struct {
	config Config
	logger *slog.Logger

	api         AccountAPI
	credentials CredentialStore
	drafts      *DraftManager
	audit       *auditDispatcher
	metrics     *Metrics

	mu      sync.Mutex
	session Session
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Session returns a snapshot of the current session. The principal is
// deep-copied; mutating the returned value has no effect on the engine.
func (e *Engine) Session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	s.Principal = e.session.Principal.Clone()
	return s
}

// Principal returns a copy of the authenticated principal, or nil.
func (e *Engine) Principal() *Principal {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session.Principal.Clone()
}

// IsAuthenticated reports whether a principal and token pair are held.
func (e *Engine) IsAuthenticated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session.Status == StatusAuthenticated
}

// Drafts returns the registration draft manager, or nil when registration
// is disabled in the configuration.
func (e *Engine) Drafts() *DraftManager {
	if e == nil {
		return nil
	}
	return e.drafts
}

// AuditDropped returns the number of audit events dropped under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of all metric values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login exchanges credentials for a session. The network call runs outside
// the session lock; a concurrent Login or Register is never cancelled and
// whichever response is applied last determines the final session.
//
// On success the token pair is written to the credential store before the
// in-memory session becomes authenticated, so a crash between the two steps
// leaves restorable credentials rather than a phantom session.
func (e *Engine) Login(ctx context.Context, email, password string) (*Principal, error) {
	if e == nil || e.api == nil || e.credentials == nil {
		return nil, ErrEngineNotReady
	}

	e.mu.Lock()
	if e.session.Status == StatusAuthenticated {
		e.mu.Unlock()
		return nil, ErrAlreadyAuthenticated
	}
	e.session.Status = StatusAuthenticating
	e.session.LastError = ""
	e.mu.Unlock()

	resp, err := e.api.Login(ctx, email, password)
	if err != nil {
		return nil, e.applyAuthFailure(ctx, auditEventLoginFailure, MetricLoginFailure, classifyAPIError(err))
	}

	return e.applyAuthSuccess(ctx, auditEventLoginSuccess, MetricLoginSuccess, auditEventLoginFailure, MetricLoginFailure, resp)
}

// Register submits a complete registration payload and, on success,
// establishes a session exactly as Login does. Most callers go through the
// draft manager, which assembles the payload from the wizard stages.
func (e *Engine) Register(ctx context.Context, payload RegisterPayload) (*Principal, error) {
	if e == nil || e.api == nil || e.credentials == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Registration.Enabled {
		return nil, ErrRegistrationDisabled
	}

	e.mu.Lock()
	if e.session.Status == StatusAuthenticated {
		e.mu.Unlock()
		return nil, ErrAlreadyAuthenticated
	}
	e.session.Status = StatusAuthenticating
	e.session.LastError = ""
	e.mu.Unlock()

	resp, err := e.api.Register(ctx, payload)
	if err != nil {
		return nil, e.applyAuthFailure(ctx, auditEventRegisterFailure, MetricRegisterFailure, classifyAPIError(err))
	}

	return e.applyAuthSuccess(ctx, auditEventRegisterSuccess, MetricRegisterSuccess, auditEventRegisterFailure, MetricRegisterFailure, resp)
}

// Logout tears the session down. The credential store is cleared before the
// in-memory session so that a crash mid-logout cannot resurrect cleared
// credentials on the next restore. The in-memory session is reset even when
// the store clear fails; the store error is returned for visibility.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || e.credentials == nil {
		return ErrEngineNotReady
	}

	clearErr := e.credentials.Clear(ctx)
	if clearErr != nil {
		e.logger.WarnContext(ctx, "credential clear failed during logout", "error", clearErr)
	}

	e.mu.Lock()
	principal := e.session.Principal
	e.session = Session{Status: StatusUnauthenticated}
	e.mu.Unlock()

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, clearErr == nil, principal, clearErr, nil)

	return clearErr
}

// applyAuthFailure records a failed login or register attempt and returns
// the classified error. Applied under the lock in completion order.
func (e *Engine) applyAuthFailure(ctx context.Context, auditEvent string, metric MetricID, err error) error {
	e.mu.Lock()
	e.session = Session{
		Status:    StatusFailed,
		LastError: rejectionReason(err),
	}
	e.mu.Unlock()

	e.metricInc(metric)
	e.emitAudit(ctx, auditEvent, false, nil, err, nil)
	e.logger.DebugContext(ctx, "authentication attempt failed", "event", auditEvent, "error", err)

	return err
}

// applyAuthSuccess validates and commits a successful account response.
func (e *Engine) applyAuthSuccess(
	ctx context.Context,
	successEvent string,
	successMetric MetricID,
	failureEvent string,
	failureMetric MetricID,
	resp *AccountResponse,
) (*Principal, error) {
	if resp == nil || resp.User == nil || !resp.Tokens.Complete() {
		return nil, e.applyAuthFailure(ctx, failureEvent, failureMetric, ErrMalformedResponse)
	}

	if err := e.credentials.Save(ctx, resp.Tokens); err != nil {
		// A half-written store must not back an authenticated session.
		if clearErr := e.credentials.Clear(ctx); clearErr != nil {
			e.logger.ErrorContext(ctx, "credential cleanup failed after save failure", "error", clearErr)
		}
		return nil, e.applyAuthFailure(ctx, failureEvent, failureMetric, err)
	}

	principal := resp.User.Clone()

	e.mu.Lock()
	e.session = Session{
		Status:       StatusAuthenticated,
		AccessToken:  resp.Tokens.AccessToken,
		RefreshToken: resp.Tokens.RefreshToken,
		Principal:    principal,
	}
	if e.config.Session.DecodeTokenExpiry {
		e.session.TokenExpiresAt = decodeTokenExpiry(resp.Tokens.AccessToken)
	}
	e.mu.Unlock()

	e.metricInc(successMetric)
	e.emitAudit(ctx, successEvent, true, principal, nil, nil)
	e.logger.InfoContext(ctx, "session established",
		"principal_id", principal.ID,
		"user_type", principal.UserType,
	)

	return principal.Clone(), nil
}

// classifyAPIError maps transport-level errors onto the engine's sentinel
// taxonomy. Rejections and malformed responses pass through; anything else
// is treated as a network failure.
func classifyAPIError(err error) error {
	switch {
	case errors.Is(err, ErrAuthRejected),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrNetworkFailure):
		return err
	default:
		return errors.Join(ErrNetworkFailure, err)
	}
}

// decodeTokenExpiry reads the unverified exp claim from an access token.
// Tokens stay opaque to every engine decision; this only feeds the
// TokenExpiresAt hint on the session snapshot.
func decodeTokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
