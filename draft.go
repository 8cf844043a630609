package memberauth

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// DraftStage identifies the wizard stage a registration draft is in.
type DraftStage uint8

const (
	// StageSelectType is the first stage: choosing the principal type.
	StageSelectType DraftStage = iota
	// StageRequired collects the mandatory account fields.
	StageRequired
	// StageOptional collects supplementary fields and file attachments.
	StageOptional
)

// String returns the lowercase name of the stage.
func (s DraftStage) String() string {
	switch s {
	case StageSelectType:
		return "select_type"
	case StageRequired:
		return "required"
	case StageOptional:
		return "optional"
	default:
		return "unknown"
	}
}

// RequiredFields are the mandatory inputs of the wizard's second stage.
// Which of FullName and BusinessName is required, and whether the privacy
// acknowledgement is mandatory, depends on the chosen principal type.
type RequiredFields struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	FullName        string `json:"fullName,omitempty"`
	BusinessName    string `json:"businessName,omitempty"`
	PrivacyAccepted bool   `json:"privacyAccepted"`
}

// OptionalFields are the inputs of the wizard's third stage.
type OptionalFields struct {
	// Profile carries free-form supplementary attributes (contact,
	// location, skill level, identifiers).
	Profile map[string]string

	Photo    *FileAttachment
	Document *FileAttachment
}

// RegistrationDraft accumulates a not-yet-created principal across wizard
// stages. Values returned by [DraftManager.Draft] are snapshots.
type RegistrationDraft struct {
	ID            string
	PrincipalType string
	Stage         DraftStage
	Required      RequiredFields
	Optional      OptionalFields
}

func (d *RegistrationDraft) clone() *RegistrationDraft {
	if d == nil {
		return nil
	}
	c := *d
	if d.Optional.Profile != nil {
		c.Optional.Profile = make(map[string]string, len(d.Optional.Profile))
		for k, v := range d.Optional.Profile {
			c.Optional.Profile[k] = v
		}
	}
	return &c
}

// DraftManager drives the three-stage registration wizard. Stage data is
// persisted through the draft store after each validated transition, so an
// interrupted registration can be resumed with Load. The final Submit
// merges every stage into one payload and hands it to the engine's
// register operation.
type DraftManager struct {
	engine *Engine
	store  DraftStore

	mu    sync.Mutex
	draft *RegistrationDraft
}

func newDraftManager(engine *Engine, store DraftStore) *DraftManager {
	return &DraftManager{
		engine: engine,
		store:  store,
	}
}

// Draft returns a snapshot of the in-memory draft, or nil when none exists.
func (m *DraftManager) Draft() *RegistrationDraft {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.draft.clone()
}

// SelectType begins or retargets a draft with the chosen principal type.
// Picking a different type than a previous pass discards the accumulated
// stage data for that type; re-selecting the same type keeps it.
func (m *DraftManager) SelectType(ctx context.Context, principalType string) error {
	if m == nil {
		return ErrRegistrationDisabled
	}
	if !knownPrincipalType(principalType) {
		return ErrPrincipalTypeInvalid
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	retargeted := m.draft == nil || m.draft.PrincipalType != principalType
	if retargeted {
		m.draft = &RegistrationDraft{
			ID:            uuid.NewString(),
			PrincipalType: principalType,
			Stage:         StageRequired,
		}
	} else if m.draft.Stage == StageSelectType {
		m.draft.Stage = StageRequired
	}

	if m.store != nil {
		// A type change must also erase any persisted field record; a
		// restart would otherwise resume the new type at the optional stage
		// carrying fields validated under the old type's rules.
		if retargeted {
			if err := m.store.Clear(ctx); err != nil {
				return err
			}
		}
		if err := m.store.SaveType(ctx, principalType); err != nil {
			return err
		}
	}

	m.engine.metricInc(MetricDraftStageAdvanced)
	m.engine.emitAudit(ctx, auditEventDraftTypeSelected, true, nil, nil, func() map[string]string {
		return map[string]string{
			"principal_type": principalType,
			"draft_id":       m.draft.ID,
		}
	})

	return nil
}

// SubmitRequired validates the mandatory fields and advances the draft to
// the optional stage. Validation reports every violated rule at once; any
// violation blocks the transition and leaves the draft unchanged.
func (m *DraftManager) SubmitRequired(ctx context.Context, fields RequiredFields) error {
	if m == nil {
		return ErrRegistrationDisabled
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft == nil || m.draft.Stage == StageSelectType {
		return ErrDraftStage
	}

	if err := m.engine.validateRequiredFields(m.draft.PrincipalType, fields); err != nil {
		m.engine.metricInc(MetricDraftValidationFailed)
		m.engine.emitAudit(ctx, auditEventDraftRejected, false, nil, err, func() map[string]string {
			return map[string]string{
				"principal_type": m.draft.PrincipalType,
				"draft_id":       m.draft.ID,
			}
		})
		return err
	}

	if m.store != nil {
		record, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		if err := m.store.SaveRequired(ctx, record); err != nil {
			return err
		}
	}

	m.draft.Required = fields
	m.draft.Stage = StageOptional

	m.engine.metricInc(MetricDraftStageAdvanced)
	m.engine.emitAudit(ctx, auditEventDraftAdvanced, true, nil, nil, func() map[string]string {
		return map[string]string{
			"principal_type": m.draft.PrincipalType,
			"draft_id":       m.draft.ID,
			"stage":          m.draft.Stage.String(),
		}
	})

	return nil
}

// Back steps the wizard one stage backwards. Returning to the type
// selection discards the accumulated field data, since the next type choice
// starts a fresh pass.
func (m *DraftManager) Back(ctx context.Context) error {
	if m == nil {
		return ErrRegistrationDisabled
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft == nil {
		return ErrNoDraft
	}

	switch m.draft.Stage {
	case StageSelectType:
		return ErrDraftStage
	case StageRequired:
		m.draft.Stage = StageSelectType
		m.draft.Required = RequiredFields{}
		m.draft.Optional = OptionalFields{}
		if m.store != nil {
			// The persisted field record goes with the in-memory copy, so a
			// restart can never resume past the discarded stage.
			if err := m.store.Clear(ctx); err != nil {
				return err
			}
			if err := m.store.SaveType(ctx, m.draft.PrincipalType); err != nil {
				return err
			}
		}
	case StageOptional:
		m.draft.Stage = StageRequired
	}

	return nil
}

// Submit finalizes the wizard with the given optional fields. Principal
// types that mandate attachments (player, coach) must carry both the photo
// and the verification document.
//
// The merged payload produces exactly one register call. On success the
// durable draft is erased and the destination dashboard path for the
// principal type is returned. On failure the draft is retained unmodified
// so the user can retry without re-entering data.
func (m *DraftManager) Submit(ctx context.Context, optional OptionalFields) (string, error) {
	return m.submit(ctx, optional, false)
}

// Skip finalizes the wizard without optional fields or attachments. It is
// refused for principal types whose registration mandates attachments.
func (m *DraftManager) Skip(ctx context.Context) (string, error) {
	return m.submit(ctx, OptionalFields{}, true)
}

func (m *DraftManager) submit(ctx context.Context, optional OptionalFields, skipped bool) (string, error) {
	if m == nil {
		return "", ErrRegistrationDisabled
	}

	m.mu.Lock()
	if m.draft == nil || m.draft.Stage != StageOptional {
		m.mu.Unlock()
		return "", ErrDraftStage
	}

	draft := m.draft
	principalType := draft.PrincipalType

	if skipped && requiresAttachments(principalType) {
		m.mu.Unlock()
		return "", ErrSkipNotAllowed
	}

	if err := m.engine.validateOptionalFields(principalType, optional); err != nil {
		m.engine.metricInc(MetricDraftValidationFailed)
		m.engine.emitAudit(ctx, auditEventDraftRejected, false, nil, err, func() map[string]string {
			return map[string]string{
				"principal_type": principalType,
				"draft_id":       draft.ID,
			}
		})
		m.mu.Unlock()
		return "", err
	}

	draft.Optional = optional
	payload := mergePayload(draft)
	m.mu.Unlock()

	principal, err := m.engine.Register(ctx, payload)
	if err != nil {
		// Draft stays in place for a retry without re-entering data.
		return "", err
	}

	m.mu.Lock()
	m.draft = nil
	m.mu.Unlock()

	var clearErr error
	if m.store != nil {
		clearErr = m.store.Clear(ctx)
		if clearErr != nil {
			m.engine.logger.WarnContext(ctx, "draft store clear failed after registration", "error", clearErr)
		}
	}

	m.engine.metricInc(MetricDraftSubmitted)
	m.engine.emitAudit(ctx, auditEventDraftSubmitted, true, principal, clearErr, func() map[string]string {
		return map[string]string{
			"principal_type": principalType,
			"draft_id":       draft.ID,
		}
	})

	return m.engine.dashboardFor(principalType), nil
}

// Load resumes a persisted draft from the draft store. The resumed stage is
// derived from what was persisted: a type alone resumes at the required
// stage, a type plus a field record resumes at the optional stage. File
// attachments are never persisted and must be re-attached.
func (m *DraftManager) Load(ctx context.Context) (*RegistrationDraft, error) {
	if m == nil {
		return nil, ErrRegistrationDisabled
	}
	if m.store == nil {
		return nil, ErrNoDraft
	}

	principalType, record, ok, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok || !knownPrincipalType(principalType) {
		return nil, ErrNoDraft
	}

	draft := &RegistrationDraft{
		ID:            uuid.NewString(),
		PrincipalType: principalType,
		Stage:         StageRequired,
	}
	if len(record) > 0 {
		if err := json.Unmarshal(record, &draft.Required); err == nil {
			draft.Stage = StageOptional
		}
	}

	m.mu.Lock()
	m.draft = draft
	m.mu.Unlock()

	return draft.clone(), nil
}

// Abandon discards the draft in memory and in the draft store.
func (m *DraftManager) Abandon(ctx context.Context) error {
	if m == nil {
		return ErrRegistrationDisabled
	}

	m.mu.Lock()
	draft := m.draft
	m.draft = nil
	m.mu.Unlock()

	var clearErr error
	if m.store != nil {
		clearErr = m.store.Clear(ctx)
	}

	if draft != nil {
		m.engine.metricInc(MetricDraftAbandoned)
		m.engine.emitAudit(ctx, auditEventDraftAbandoned, clearErr == nil, nil, clearErr, func() map[string]string {
			return map[string]string{
				"principal_type": draft.PrincipalType,
				"draft_id":       draft.ID,
			}
		})
	}

	return clearErr
}

func mergePayload(draft *RegistrationDraft) RegisterPayload {
	payload := RegisterPayload{
		PrincipalType:   draft.PrincipalType,
		Username:        draft.Required.Username,
		Email:           draft.Required.Email,
		Password:        draft.Required.Password,
		FullName:        draft.Required.FullName,
		BusinessName:    draft.Required.BusinessName,
		PrivacyAccepted: draft.Required.PrivacyAccepted,
		Photo:           draft.Optional.Photo,
		Document:        draft.Optional.Document,
	}
	if len(draft.Optional.Profile) > 0 {
		payload.Profile = make(map[string]string, len(draft.Optional.Profile))
		for k, v := range draft.Optional.Profile {
			payload.Profile[k] = v
		}
	}
	return payload
}

func knownPrincipalType(principalType string) bool {
	switch principalType {
	case UserTypePlayer, UserTypeCoach, UserTypeClub, UserTypePartner, UserTypeState:
		return true
	default:
		return false
	}
}

// requiresAttachments reports whether registration for the type mandates
// the photo and verification document pair.
func requiresAttachments(principalType string) bool {
	return principalType == UserTypePlayer || principalType == UserTypeCoach
}
