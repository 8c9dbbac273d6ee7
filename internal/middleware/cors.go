package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Authorization"
	corsMaxAge  = "600"
)

// CORSMiddleware reflects allowed origins so the salon front end and the
// client portal can call the API with credentials. An empty list allows
// every origin. Preflights from other origins get 403.
func CORSMiddleware(allowed []string) gin.HandlerFunc {
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}

	isAllowed := func(origin string) bool {
		if len(origins) == 0 {
			return true
		}
		_, ok := origins[origin]
		return ok
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions

		if origin != "" {
			if !isAllowed(origin) {
				if preflight {
					c.AbortWithStatus(http.StatusForbidden)
					return
				}
				c.Next()
				return
			}

			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Credentials", "true")
			if preflight {
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Max-Age", corsMaxAge)
			}
		}

		if preflight {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
