package memberauth

import (
	"context"
	"time"
)

const (
	auditEventLoginSuccess      = "login_success"
	auditEventLoginFailure      = "login_failure"
	auditEventRegisterSuccess   = "register_success"
	auditEventRegisterFailure   = "register_failure"
	auditEventRestoreSuccess    = "restore_success"
	auditEventRestoreSelfHeal   = "restore_self_heal"
	auditEventProfileRefreshed  = "profile_refresh_success"
	auditEventProfileRefreshErr = "profile_refresh_failure"
	auditEventLogout            = "logout"
	auditEventDraftTypeSelected = "draft_type_selected"
	auditEventDraftAdvanced     = "draft_stage_advanced"
	auditEventDraftRejected     = "draft_validation_failed"
	auditEventDraftSubmitted    = "draft_submitted"
	auditEventDraftAbandoned    = "draft_abandoned"
)

// emitAudit builds and dispatches an audit event. The metadata builder is
// only invoked when a dispatcher exists, keeping map allocation off the
// no-audit path.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principal *Principal,
	err error,
	metadataFn func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		RequestID: CorrelationIDFromContext(ctx),
		Success:   success,
	}
	if principal != nil {
		event.PrincipalID = principal.ID
		event.PrincipalType = principal.UserType
	}
	if err != nil {
		event.Error = err.Error()
	}
	if metadataFn != nil {
		event.Metadata = metadataFn()
	}

	e.audit.Emit(ctx, event)
}
