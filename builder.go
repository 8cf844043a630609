package memberauth

import (
	"errors"
	"log/slog"
)

// Builder assembles an Engine from its configuration and dependencies.
//
// Builder instances are intended to be configured during initialization and
// then treated as immutable. A Builder must not be reused after Build.
type Builder struct {
	config Config

	logger      *slog.Logger
	api         AccountAPI
	credentials CredentialStore
	drafts      DraftStore
	auditSink   AuditSink

	built bool
}

// New returns a Builder seeded with the package defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration with a defensive copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAccountAPI sets the backend the engine authenticates against.
func (b *Builder) WithAccountAPI(api AccountAPI) *Builder {
	b.api = api
	return b
}

// WithCredentialStore sets the durable token storage used across restarts.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.credentials = store
	return b
}

// WithDraftStore sets the durable storage for in-progress registration drafts.
// Optional; registration must be enabled in the configuration for the draft
// manager to be constructed.
func (b *Builder) WithDraftStore(store DraftStore) *Builder {
	b.drafts = store
	return b
}

// WithLogger sets the structured logger used by the engine. When omitted the
// engine logs through slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the sink that receives audit events. Setting a sink
// enables the audit dispatcher regardless of Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency histogram collection.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the assembled configuration and dependencies and returns a
// ready Engine. Build fails when a required dependency is missing or the
// configuration is inconsistent.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.api == nil {
		return nil, errors.New("account API required")
	}

	if b.credentials == nil {
		return nil, errors.New("credential store required")
	}

	if b.auditSink != nil {
		cfg.Audit.Enabled = true
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:      cfg,
		logger:      logger,
		api:         b.api,
		credentials: b.credentials,
	}
	engine.session.Status = StatusUnauthenticated

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	if cfg.Registration.Enabled {
		engine.drafts = newDraftManager(engine, b.drafts)
	}

	b.built = true

	return engine, nil
}
