// middleware/security_headers.go
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityConfig tunes the Content-Security-Policy emitted on every response.
type SecurityConfig struct {
	AllowedDomains []string
	AllowInlineJS  bool
	AllowEval      bool
}

// SecurityHeadersWithConfig sets the standard hardening headers plus a CSP
// built from the given config. The img-src data: entry keeps the base64 QR
// responses renderable, and ws:/wss: in connect-src covers the event socket.
func SecurityHeadersWithConfig(cfg SecurityConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			h.Set("Content-Security-Policy", cfg.contentSecurityPolicy())
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			h.Del("Server")
			h.Del("X-Powered-By")

			return next(c)
		}
	}
}

func (cfg SecurityConfig) contentSecurityPolicy() string {
	directives := []string{
		"default-src 'self'",
		"img-src 'self' data: https:",
		"style-src 'self' 'unsafe-inline'",
	}

	script := "script-src 'self'"
	if cfg.AllowInlineJS {
		script += " 'unsafe-inline'"
	}
	if cfg.AllowEval {
		script += " 'unsafe-eval'"
	}
	directives = append(directives, script)

	connect := "connect-src 'self' ws: wss:"
	if len(cfg.AllowedDomains) > 0 {
		connect += " " + strings.Join(cfg.AllowedDomains, " ")
	}
	directives = append(directives, connect)

	return strings.Join(directives, "; ")
}
