// Package ginmw provides gin middleware for the memberauth route guard.
package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sportsfed/memberauth"
)

// KeyPrincipal is the gin context key the guard stores the principal under.
const KeyPrincipal = "memberauth_principal"

// Guard evaluates the engine's route guard before each request, redirecting
// denied requests to the path the guard selects.
func Guard(engine *memberauth.Engine, route memberauth.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		if engine == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		decision := engine.Authorize(route)
		if !decision.Allow {
			c.Redirect(http.StatusSeeOther, decision.RedirectPath)
			c.Abort()
			return
		}

		if principal := engine.Principal(); principal != nil {
			c.Set(KeyPrincipal, principal)
		}
		c.Next()
	}
}

// Principal returns the principal stored by Guard for the current request.
func Principal(c *gin.Context) (*memberauth.Principal, bool) {
	v, ok := c.Get(KeyPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*memberauth.Principal)
	return p, ok
}
