package api

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"chatrelay/common"

	"github.com/gin-gonic/gin"
)

// AllowedOrigins holds the parsed set of browser origins allowed to call the
// chat endpoints.
type AllowedOrigins struct {
	origins map[string]struct{}
}

// IsAllowed checks if the given origin is in the allowlist.
// Returns true if origin is empty (non-browser clients) or if it matches an allowed origin.
func (ao *AllowedOrigins) IsAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	_, ok := ao.origins[origin]
	return ok
}

// ParseAllowedOrigins parses and validates a list of origins. Each origin
// must be a URL with scheme and host, and no path/query/fragment.
func ParseAllowedOrigins(rawOrigins []string) (*AllowedOrigins, error) {
	origins := make(map[string]struct{})

	for _, origin := range rawOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}

		parsed, err := url.Parse(origin)
		if err != nil {
			return nil, fmt.Errorf("invalid origin %q: %w", origin, err)
		}

		if parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid origin %q: must have scheme and host", origin)
		}

		if parsed.Path != "" {
			return nil, fmt.Errorf("invalid origin %q: must not have path", origin)
		}

		if parsed.RawQuery != "" {
			return nil, fmt.Errorf("invalid origin %q: must not have query", origin)
		}

		if parsed.Fragment != "" {
			return nil, fmt.Errorf("invalid origin %q: must not have fragment", origin)
		}

		// Normalize: scheme://host[:port]
		normalized := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
		origins[normalized] = struct{}{}
	}

	return &AllowedOrigins{origins: origins}, nil
}

// BuildDefaultAllowedOrigins allows pages served from the relay's own port,
// plus the Vite dev server when CHATRELAY_APP_ENV=development.
func BuildDefaultAllowedOrigins(port int) *AllowedOrigins {
	origins := make(map[string]struct{})

	origins[fmt.Sprintf("http://localhost:%d", port)] = struct{}{}
	origins[fmt.Sprintf("http://127.0.0.1:%d", port)] = struct{}{}
	origins[fmt.Sprintf("http://[::1]:%d", port)] = struct{}{}

	if os.Getenv("CHATRELAY_APP_ENV") == "development" {
		origins["http://localhost:5173"] = struct{}{}
		origins["http://127.0.0.1:5173"] = struct{}{}
	}

	return &AllowedOrigins{origins: origins}
}

// GetAllowedOrigins returns the configured allowlist, or the defaults for
// the server port when none is configured.
func GetAllowedOrigins(server common.ServerConfig) (*AllowedOrigins, error) {
	if len(server.AllowedOrigins) > 0 {
		return ParseAllowedOrigins(server.AllowedOrigins)
	}
	return BuildDefaultAllowedOrigins(server.Port), nil
}

// CORSMiddleware returns a Gin middleware that enforces Origin allowlist and sets CORS headers.
func CORSMiddleware(allowedOrigins *AllowedOrigins) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" {
			if !allowedOrigins.IsAllowed(origin) {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}

			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Expose-Headers", RequestIdHeader)

			if c.Request.Method == http.MethodOptions {
				c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type,Accept,Last-Event-ID,"+RequestIdHeader)
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
		}

		c.Next()
	}
}
