package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/auth"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// ActorKey is the gin context key the authenticated actor is stored under.
const ActorKey = "actor"

// Auth is the bearer-token guard. It must run before RequireRole.
func Auth(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abort(c, http.StatusUnauthorized, "Invalid token format (must be Bearer)")
			return
		}

		// 2. --- Validate Token ---
		actor, err := issuer.Validate(strings.TrimSpace(token))
		if err != nil {
			abort(c, apperr.Status(err), apperr.Message(err))
			return
		}

		// 3. --- Success ---
		c.Set(ActorKey, actor)
		c.Request = c.Request.WithContext(auth.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RequireRole lets the request through only when the actor holds one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := auth.ActorFromContext(c.Request.Context())
		if err != nil {
			abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !slices.Contains(roles, actor.Role) {
			abort(c, http.StatusForbidden, "Access denied")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
