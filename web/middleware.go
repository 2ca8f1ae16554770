package web

import (
	"net/http"
	"strings"
	"time"

	"houseplants/models"
	"houseplants/web/api"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

// ClientCookie carries the signed client token that selects a browser's
// history namespace.
const ClientCookie = "plant_client"

// CorsMiddleware handles CORS headers for cross-origin requests
func CorsMiddleware(c rweb.Context) error {
	c.Response().SetHeader("Access-Control-Allow-Origin", "*")
	c.Response().SetHeader("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Response().SetHeader("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

	// Handle preflight OPTIONS requests
	if c.Request().Method() == "OPTIONS" {
		c.SetStatus(http.StatusOK)
		return nil
	}

	return c.Next()
}

// ClientMiddleware identifies the browser making the request.
// A valid token from the cookie or an Authorization bearer header is reused;
// otherwise a fresh client id is issued and set as a cookie. The id is
// stored in the context under api.ClientIDKey.
func ClientMiddleware(tokens *models.ClientTokens) rweb.Handler {
	return func(c rweb.Context) error {
		token, _ := c.GetCookie(ClientCookie)
		if token == "" {
			if authHeader := c.Request().Header("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if token != "" {
			if clientID, err := tokens.Validate(token); err == nil {
				c.Set(api.ClientIDKey, clientID)
				return c.Next()
			}
			// Expired or foreign tokens just get replaced
			logger.Debug("Replacing invalid client token", "path", c.Request().Path())
		}

		token, clientID, err := tokens.Issue()
		if err != nil {
			logger.LogErr(err, "failed to issue client token")
			c.SetStatus(http.StatusInternalServerError)
			return c.WriteJSON(map[string]any{
				"success": false,
				"error":   "could not identify client",
			})
		}

		cookie := http.Cookie{
			Name:     ClientCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   int(models.ClientTokenLifetime / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		c.Response().SetHeader("Set-Cookie", cookie.String())
		c.Set(api.ClientIDKey, clientID)

		return c.Next()
	}
}

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware(c rweb.Context) error {
	c.Response().SetHeader("X-Content-Type-Options", "nosniff")
	c.Response().SetHeader("X-Frame-Options", "DENY")
	c.Response().SetHeader("Referrer-Policy", "strict-origin-when-cross-origin")

	// Everything the page needs is served from here
	csp := []string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self'",
		"img-src 'self' data:",
		"connect-src 'self'",
	}
	c.Response().SetHeader("Content-Security-Policy", strings.Join(csp, "; "))

	return c.Next()
}

// LoggingMiddleware provides detailed request logging
func LoggingMiddleware(c rweb.Context) error {
	start := time.Now()

	logger.Debug("Request started",
		"method", c.Request().Method(),
		"path", c.Request().Path(),
	)

	err := c.Next()

	logger.Debug("Request completed",
		"method", c.Request().Method(),
		"path", c.Request().Path(),
		"duration", time.Since(start),
		"error", err,
	)

	return err
}
