package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowedHeaders = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	allowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	preflightCache = "600"
)

// New builds CORS middleware for the given origin allowlist. An empty list
// allows every origin, which is only intended for local development.
func New(origins []string) gin.HandlerFunc {
	allowlist := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowlist[normalize(o)] = struct{}{}
	}
	open := len(allowlist) == 0

	return func(c *gin.Context) {
		h := c.Writer.Header()
		origin := c.GetHeader("Origin")

		switch {
		case origin != "" && (open || allowed(allowlist, origin)):
			h.Set("Access-Control-Allow-Origin", origin)
		case origin == "" && open:
			h.Set("Access-Control-Allow-Origin", "*")
		}

		h.Set("Vary", "Origin")
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", allowedHeaders)
		h.Set("Access-Control-Allow-Methods", allowedMethods)
		h.Set("Access-Control-Max-Age", preflightCache)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func allowed(allowlist map[string]struct{}, origin string) bool {
	_, ok := allowlist[normalize(origin)]
	return ok
}

func normalize(origin string) string {
	return strings.TrimRight(strings.ToLower(origin), "/")
}
