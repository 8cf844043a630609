package middleware

import (
	"context"
	"net/http"

	"github.com/sportsfed/memberauth"
)

type principalContextKey struct{}

// PrincipalFromContext returns the principal stored by Guard for the
// current request.
func PrincipalFromContext(ctx context.Context) (*memberauth.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*memberauth.Principal)
	return p, ok
}

// Guard evaluates the engine's route guard before each request. Denied
// requests are redirected to the path the guard selects; allowed requests
// carry the authenticated principal in the request context.
func Guard(engine *memberauth.Engine, route memberauth.Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			decision := engine.Authorize(route)
			if !decision.Allow {
				http.Redirect(w, r, decision.RedirectPath, http.StatusSeeOther)
				return
			}

			if principal := engine.Principal(); principal != nil {
				ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}
