package memberauth

import "errors"

// Config holds the engine's behavior configuration. Instances are intended
// to be configured during initialization and then treated as immutable.
type Config struct {
	Session      SessionConfig
	Registration RegistrationConfig
	Navigation   NavigationConfig
	Routes       RouteConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session bookkeeping behavior.
type SessionConfig struct {
	// DecodeTokenExpiry enables the best-effort unverified decode of the
	// access token's exp claim into Session.TokenExpiresAt. Tokens remain
	// opaque to every decision the engine makes.
	DecodeTokenExpiry bool
}

/*
====================================
REGISTRATION CONFIG
====================================
*/

// RegistrationConfig controls the registration draft manager.
type RegistrationConfig struct {
	Enabled bool

	MinUsernameLength int
	MinPasswordLength int

	// MaxAttachmentSize bounds each uploaded file in bytes. Zero disables
	// the check.
	MaxAttachmentSize int64
}

/*
====================================
NAVIGATION CONFIG
====================================
*/

// NavigationConfig optionally overrides the built-in navigation tables.
// Empty slices fall back to the package defaults.
type NavigationConfig struct {
	Items           []NavigationItem
	AdminItems      []NavigationItem
	SuperAdminItems []NavigationItem
}

/*
====================================
ROUTE CONFIG
====================================
*/

// RouteConfig names the redirect targets used by the route guard and the
// wizard's post-registration destination table.
type RouteConfig struct {
	// LoginPath receives unauthenticated visitors of protected routes.
	LoginPath string

	// Dashboards maps a principal type to its dashboard path.
	Dashboards map[string]string

	// FallbackDashboard receives any principal type without a Dashboards
	// entry. Kept as a single named default rather than re-derived at the
	// call sites.
	FallbackDashboard string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events under backpressure instead of blocking the
	// emitting operation.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			DecodeTokenExpiry: true,
		},
		Registration: RegistrationConfig{
			Enabled:           true,
			MinUsernameLength: 3,
			MinPasswordLength: 3,
			MaxAttachmentSize: 8 << 20,
		},
		Routes: RouteConfig{
			LoginPath: "/login",
			Dashboards: map[string]string{
				UserTypePlayer:  "/dashboard/player",
				UserTypeCoach:   "/dashboard/coach",
				UserTypeClub:    "/dashboard/club",
				UserTypePartner: "/dashboard/partner",
				UserTypeState:   "/dashboard/state",
			},
			FallbackDashboard: "/dashboard/player",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg

	if cfg.Routes.Dashboards != nil {
		out.Routes.Dashboards = make(map[string]string, len(cfg.Routes.Dashboards))
		for k, v := range cfg.Routes.Dashboards {
			out.Routes.Dashboards[k] = v
		}
	}
	out.Navigation.Items = cloneItems(cfg.Navigation.Items)
	out.Navigation.AdminItems = cloneItems(cfg.Navigation.AdminItems)
	out.Navigation.SuperAdminItems = cloneItems(cfg.Navigation.SuperAdminItems)

	return out
}

func cloneItems(items []NavigationItem) []NavigationItem {
	if items == nil {
		return nil
	}
	out := make([]NavigationItem, len(items))
	copy(out, items)
	return out
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Routes.LoginPath == "" {
		return errors.New("Routes.LoginPath must not be empty")
	}
	if c.Routes.FallbackDashboard == "" {
		return errors.New("Routes.FallbackDashboard must not be empty")
	}
	if c.Registration.Enabled {
		if c.Registration.MinUsernameLength <= 0 {
			return errors.New("Registration.MinUsernameLength must be positive")
		}
		if c.Registration.MinPasswordLength <= 0 {
			return errors.New("Registration.MinPasswordLength must be positive")
		}
		if c.Registration.MaxAttachmentSize < 0 {
			return errors.New("Registration.MaxAttachmentSize must not be negative")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}
	return nil
}
