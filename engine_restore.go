package memberauth

import (
	"context"
	"errors"
)

// Restore rebuilds the session from the credential store at process start.
//
// An empty store terminates immediately in Unauthenticated without touching
// the network. A stored token pair is validated by fetching the profile;
// when the server no longer accepts it, the store is erased and the engine
// ends in Unauthenticated. A stale token is worse than none, so the erasure
// happens on any profile failure rather than being retried.
func (e *Engine) Restore(ctx context.Context) (*Principal, error) {
	if e == nil || e.api == nil || e.credentials == nil {
		return nil, ErrEngineNotReady
	}

	e.mu.Lock()
	if e.session.Status == StatusAuthenticated {
		p := e.session.Principal.Clone()
		e.mu.Unlock()
		return p, nil
	}
	e.session.Status = StatusAuthenticating
	e.session.LastError = ""
	e.mu.Unlock()

	tokens, ok, err := e.credentials.Load(ctx)
	if err != nil {
		e.setUnauthenticated()
		return nil, err
	}
	if !ok || !tokens.Complete() {
		e.setUnauthenticated()
		return nil, nil
	}

	principal, err := e.api.Profile(ctx, tokens.AccessToken)
	if err != nil || principal == nil {
		if clearErr := e.credentials.Clear(ctx); clearErr != nil {
			e.logger.ErrorContext(ctx, "credential erase failed during restore self-heal", "error", clearErr)
		}
		e.setUnauthenticated()

		if err == nil {
			err = ErrMalformedResponse
		}
		e.metricInc(MetricRestoreSelfHeal)
		e.emitAudit(ctx, auditEventRestoreSelfHeal, false, nil, err, nil)
		e.logger.InfoContext(ctx, "stored credentials rejected, store cleared", "error", err)

		return nil, errors.Join(ErrStaleCredential, err)
	}

	principal = principal.Clone()

	e.mu.Lock()
	e.session = Session{
		Status:       StatusAuthenticated,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Principal:    principal,
	}
	if e.config.Session.DecodeTokenExpiry {
		e.session.TokenExpiresAt = decodeTokenExpiry(tokens.AccessToken)
	}
	e.mu.Unlock()

	e.metricInc(MetricRestoreSuccess)
	e.emitAudit(ctx, auditEventRestoreSuccess, true, principal, nil, nil)

	return principal.Clone(), nil
}

// RefreshProfile re-fetches the principal without touching tokens; used to
// re-sync after out-of-band profile edits. On failure the previous principal
// stays in place and LastError records the reason.
func (e *Engine) RefreshProfile(ctx context.Context) (*Principal, error) {
	if e == nil || e.api == nil {
		return nil, ErrEngineNotReady
	}

	e.mu.Lock()
	if e.session.Status != StatusAuthenticated {
		e.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	accessToken := e.session.AccessToken
	e.session.Status = StatusRefreshing
	e.session.LastError = ""
	e.mu.Unlock()

	principal, err := e.api.Profile(ctx, accessToken)
	if err != nil || principal == nil {
		if err == nil {
			err = ErrMalformedResponse
		}
		err = classifyAPIError(err)

		e.mu.Lock()
		if e.session.Status == StatusRefreshing {
			e.session.Status = StatusAuthenticated
			e.session.LastError = rejectionReason(err)
		}
		e.mu.Unlock()

		e.metricInc(MetricProfileRefreshFailure)
		e.emitAudit(ctx, auditEventProfileRefreshErr, false, nil, err, nil)

		return nil, err
	}

	principal = principal.Clone()

	e.mu.Lock()
	// A concurrent logout may have torn the session down while the fetch
	// was outstanding; its result must not resurrect the principal.
	if e.session.Status == StatusRefreshing {
		e.session.Status = StatusAuthenticated
		e.session.Principal = principal
	}
	e.mu.Unlock()

	e.metricInc(MetricProfileRefreshSuccess)
	e.emitAudit(ctx, auditEventProfileRefreshed, true, principal, nil, nil)

	return principal.Clone(), nil
}

func (e *Engine) setUnauthenticated() {
	e.mu.Lock()
	e.session = Session{Status: StatusUnauthenticated}
	e.mu.Unlock()
}
