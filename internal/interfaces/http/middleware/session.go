// internal/interfaces/http/middleware/session.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/template-store/internal/pkg/auth"
)

const sessionIDKey = "cart_session_id"

// SessionTokens issues and validates cart session tokens
type SessionTokens interface {
	NewSession() (sessionID, token string, err error)
	ValidateToken(token string) (string, error)
}

// CookieSettings controls the session cookie
type CookieSettings struct {
	Name   string
	MaxAge int
	Secure bool
}

// CartSession resolves the caller's cart session from the session cookie or
// an Authorization bearer token. Callers without a valid token get a new
// session and a fresh cookie.
func CartSession(tokens SessionTokens, cookie CookieSettings, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(cookie.Name)
		}

		if token != "" {
			sessionID, err := tokens.ValidateToken(token)
			if err == nil {
				c.Set(sessionIDKey, sessionID)
				c.Next()
				return
			}
			logger.WithError(err).WithField(RequestIDKey, c.GetString(RequestIDKey)).Debug("Discarding invalid cart session token")
		}

		sessionID, token, err := tokens.NewSession()
		if err != nil {
			logger.WithError(err).Error("Failed to create cart session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Failed to create cart session",
			})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookie.Name, token, cookie.MaxAge, "/", "", cookie.Secure, true)
		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

// GetSessionIDFromContext extracts the cart session id from gin context
func GetSessionIDFromContext(c *gin.Context) (string, bool) {
	sessionID := c.GetString(sessionIDKey)
	return sessionID, sessionID != ""
}
