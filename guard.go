package memberauth

import "time"

// Route describes a guarded destination. Public routes are reachable by
// anyone; non-public routes require an authenticated session, and routes
// with a RequiredRole further require the principal's role to satisfy it.
type Route struct {
	Path         string
	Public       bool
	RequiredRole string
}

// Decision is the guard's verdict for one navigation attempt.
type Decision struct {
	Allow bool

	// RedirectPath is the destination to send the caller to instead.
	// Empty when Allow is true.
	RedirectPath string
}

// Authorize evaluates the route guard against the current session. It is
// cheap and synchronous; callers re-invoke it on every navigation attempt
// and every session change, so an access decision never outlives the state
// it was derived from.
//
// An unauthenticated caller of a non-public route is redirected to the
// login path. An authenticated caller whose role does not satisfy the
// route's requirement is redirected to its own dashboard.
func (e *Engine) Authorize(route Route) Decision {
	if e == nil {
		return Decision{Allow: route.Public}
	}

	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthorizeLatency, time.Since(start))
		}()
	}

	e.mu.Lock()
	status := e.session.Status
	principal := e.session.Principal
	e.mu.Unlock()

	if route.Public {
		e.metricInc(MetricGuardAllowed)
		return Decision{Allow: true}
	}

	if status != StatusAuthenticated || principal == nil {
		e.metricInc(MetricGuardRedirected)
		return Decision{RedirectPath: e.config.Routes.LoginPath}
	}

	if route.RequiredRole != "" && !roleSatisfies(principal.Role, route.RequiredRole) {
		e.metricInc(MetricGuardRedirected)
		return Decision{RedirectPath: e.dashboardFor(principal.UserType)}
	}

	e.metricInc(MetricGuardAllowed)
	return Decision{Allow: true}
}

// roleSatisfies reports whether a held role meets a required one. Roles
// match exactly except that super_admin satisfies any admin requirement.
func roleSatisfies(have, want string) bool {
	if have == want {
		return true
	}
	return have == RoleSuperAdmin && want == RoleAdmin
}

// dashboardFor maps a principal type to its dashboard path. Unknown types
// land on the configured fallback.
func (e *Engine) dashboardFor(userType string) string {
	if path, ok := e.config.Routes.Dashboards[userType]; ok {
		return path
	}
	return e.config.Routes.FallbackDashboard
}

// DashboardPath returns the dashboard destination for the current
// principal, or the login path when no session is held.
func (e *Engine) DashboardPath() string {
	principal := e.Principal()
	if principal == nil {
		return e.config.Routes.LoginPath
	}
	return e.dashboardFor(principal.UserType)
}
