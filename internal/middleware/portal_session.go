package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/portal"
)

const (
	ContextClientID    = "portalClientID"
	ContextInviteToken = "portalInviteToken"
)

// PortalSession reads an optional portal bearer session. Requests without
// an Authorization header pass through; a malformed or expired session is
// rejected.
func PortalSession(issuer *portal.SessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httperr.Write(c, http.StatusUnauthorized, "invalid_authorization_header", "")
			c.Abort()
			return
		}

		claims, err := issuer.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			httperr.Write(c, http.StatusUnauthorized, "invalid_session", "")
			c.Abort()
			return
		}

		c.Set(ContextClientID, claims.Subject)
		c.Set(ContextInviteToken, claims.InviteToken)

		c.Next()
	}
}

// InviteToken returns the session's invite token, if any.
func InviteToken(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextInviteToken)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
