package memberauth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEngineNotReady is returned when a required collaborator (account
	// API, credential store) was not configured.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrAlreadyAuthenticated is returned when login or register is invoked
	// while a session is already established.
	ErrAlreadyAuthenticated = errors.New("session already authenticated")
	// ErrNotAuthenticated is returned by operations that require an
	// established session.
	ErrNotAuthenticated = errors.New("no authenticated session")
	// ErrAuthRejected means the account API declined the credentials. The
	// server-supplied reason, when present, is carried by [AuthError].
	ErrAuthRejected = errors.New("authentication rejected")
	// ErrMalformedResponse means the account API reported success without
	// the expected user and token pair. The result is never partially
	// applied.
	ErrMalformedResponse = errors.New("invalid server response")
	// ErrNetworkFailure means no distinguishable response was received.
	// The engine schedules no retry; the caller re-invokes.
	ErrNetworkFailure = errors.New("network failure")
	// ErrStaleCredential means restore found a stored token pair the server
	// no longer accepts. The engine self-heals by clearing the store.
	ErrStaleCredential = errors.New("stored credentials no longer accepted")
	// ErrRegistrationDisabled is returned by draft operations when the
	// registration feature is disabled in the configuration.
	ErrRegistrationDisabled = errors.New("registration disabled")
	// ErrDraftStage is returned when a wizard operation is invoked in a
	// stage it is not valid for.
	ErrDraftStage = errors.New("operation not valid in current draft stage")
	// ErrPrincipalTypeInvalid is returned for an unknown principal type in
	// the wizard's first stage.
	ErrPrincipalTypeInvalid = errors.New("invalid principal type")
	// ErrSkipNotAllowed is returned when the skip shortcut is invoked for a
	// principal type that mandates file attachments.
	ErrSkipNotAllowed = errors.New("skip not allowed for this principal type")
	// ErrNoDraft is returned when no persisted draft exists to resume.
	ErrNoDraft = errors.New("no registration draft")
)

// AuthError carries the server-supplied rejection reason from a login or
// register call. It unwraps to [ErrAuthRejected] so callers can match the
// kind without string comparison.
type AuthError struct {
	// Reason is the message surfaced by the account API, empty when the
	// server gave none.
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return ErrAuthRejected.Error()
	}
	return fmt.Sprintf("authentication rejected: %s", e.Reason)
}

// Unwrap marks every AuthError as an [ErrAuthRejected].
func (e *AuthError) Unwrap() error { return ErrAuthRejected }

// ValidationError reports every draft-field rule violated by a wizard stage,
// not just the first offender.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// Has reports whether the given violation message is present.
func (e *ValidationError) Has(violation string) bool {
	for _, v := range e.Violations {
		if v == violation {
			return true
		}
	}
	return false
}

// rejectionReason extracts the human-readable failure reason recorded in
// Session.LastError after a rejected attempt.
func rejectionReason(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Reason != "" {
		return authErr.Reason
	}
	switch {
	case errors.Is(err, ErrMalformedResponse):
		return ErrMalformedResponse.Error()
	case errors.Is(err, ErrAuthRejected):
		return ErrAuthRejected.Error()
	case errors.Is(err, ErrNetworkFailure):
		return ErrNetworkFailure.Error()
	default:
		return err.Error()
	}
}
