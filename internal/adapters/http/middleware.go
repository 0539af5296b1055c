package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/draftroom/pulse/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// accessToken pulls the bearer token from the Authorization header, or
// from the token query param since browser websocket clients cannot set
// headers on the upgrade request.
func accessToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

// AuthMiddleware refuses the request before any upgrade when the gate
// rejects the credential, and otherwise stores the resolved identity in
// the gin context under "identity".
func AuthMiddleware(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := gate.Authenticate(c.Request.Context(), accessToken(c))
		if err != nil {
			reason := auth.Reason(err)
			log.Warn().Str("module", "adapters.http").Str("reason", reason).Msg("connection refused")
			c.AbortWithStatusJSON(refusalStatus(err), gin.H{"error": reason})
			return
		}
		c.Set("identity", ident)
		c.Next()
	}
}

func refusalStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrIdentityInactive), errors.Is(err, auth.ErrIdentitySuspended):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrTokenMissing),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrIdentityNotFound):
		return http.StatusUnauthorized
	default:
		// The identity service itself failed, not the credential.
		return http.StatusServiceUnavailable
	}
}
