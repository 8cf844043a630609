package memberauth

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/sportsfed/memberauth/internal/audit"
)

// SessionStatus represents the lifecycle state of the client-held session.
type SessionStatus uint8

const (
	// StatusUnauthenticated is the initial state and the state after logout
	// or a failed restore.
	StatusUnauthenticated SessionStatus = iota
	// StatusAuthenticating is the transient state while a login, register,
	// or restore call is outstanding against the account API.
	StatusAuthenticating
	// StatusAuthenticated means a principal and both tokens are held.
	StatusAuthenticated
	// StatusRefreshing is the transient state while a profile re-fetch for
	// an already authenticated principal is outstanding.
	StatusRefreshing
	// StatusFailed means the most recent login or register attempt was
	// rejected; LastError carries the reason.
	StatusFailed
)

// String returns the lowercase name of the status.
func (s SessionStatus) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRefreshing:
		return "refreshing"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Principal-type and role names as asserted by the account API. The role set
// is effectively open; these constants cover the values the resolver and
// guard give special meaning to.
const (
	UserTypePlayer  = "player"
	UserTypeCoach   = "coach"
	UserTypeClub    = "club"
	UserTypePartner = "partner"
	UserTypeState   = "state"

	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Principal is the authenticated identity record returned by the account
// API. The engine only mirrors it; the remote service is the source of truth
// for roles and flags.
type Principal struct {
	ID              string
	Username        string
	DisplayName     string
	Role            string
	UserType        string
	Verified        bool
	ProfileComplete bool
	PhotoURL        string
	ClubID          string
}

// Clone returns a deep copy of the principal, or nil for a nil receiver.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// TokenPair is the opaque bearer token pair issued by the account API.
// Both tokens are always present together or absent together.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Complete reports whether both tokens are present.
func (t TokenPair) Complete() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

// Session is the client-held record of authentication status, tokens, and
// principal. Values returned by [Engine.Session] are snapshots; mutating
// them has no effect on the engine.
type Session struct {
	Status       SessionStatus
	AccessToken  string
	RefreshToken string
	Principal    *Principal

	// LastError is the human-readable reason for the most recent failure.
	// It is cleared at the start of every new attempt.
	LastError string

	// TokenExpiresAt is a best-effort hint decoded from the access token's
	// unverified exp claim. Zero when the token carries no readable expiry.
	TokenExpiresAt time.Time
}

// AccountResponse is the tagged result of a successful login or register
// call against the account API. The engine rejects responses that are
// missing the user or either token as malformed.
type AccountResponse struct {
	User   *Principal
	Tokens TokenPair
}

// FileAttachment is a document uploaded during registration, held in memory
// until the final atomic account-creation call.
type FileAttachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// RegisterPayload is the merged input for [Engine.Register]: the required
// and optional wizard fields plus up to two file attachments. When either
// attachment is set, HTTP implementations of [AccountAPI] send the payload
// as multipart form data.
type RegisterPayload struct {
	PrincipalType string

	Username string
	Email    string
	Password string

	FullName     string
	BusinessName string

	PrivacyAccepted bool

	// Profile carries free-form optional attributes (contact, location,
	// skill level, identifiers).
	Profile map[string]string

	Photo    *FileAttachment
	Document *FileAttachment
}

// AccountAPI is the narrow interface to the remote account service. The
// engine treats it as the single authority for principals and tokens;
// implementations must not retry on their own.
type AccountAPI interface {
	Login(ctx context.Context, email, password string) (*AccountResponse, error)
	Register(ctx context.Context, payload RegisterPayload) (*AccountResponse, error)
	Profile(ctx context.Context, accessToken string) (*Principal, error)
}

// CredentialStore persists the token pair durably. Save writes both slots
// together and Clear erases both together; a store must never hold exactly
// one of the two tokens after either call returns.
type CredentialStore interface {
	Save(ctx context.Context, tokens TokenPair) error
	Load(ctx context.Context) (TokenPair, bool, error)
	Clear(ctx context.Context) error
}

// DraftStore persists the in-progress registration draft under two slots:
// the chosen principal type and the serialized required-fields record. Both
// slots are erased together on successful submission or abandonment. The
// draft store and the credential store must never share storage slots.
type DraftStore interface {
	SaveType(ctx context.Context, principalType string) error
	SaveRequired(ctx context.Context, record []byte) error
	Load(ctx context.Context) (principalType string, record []byte, ok bool, err error)
	Clear(ctx context.Context) error
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
