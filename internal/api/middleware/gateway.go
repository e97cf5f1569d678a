package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AnonymousOwner owns compositions requested without gateway headers
const AnonymousOwner = "anonymous"

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Email, X-User-Role).
// This is used when the API runs behind a gateway that validates tokens.
//
// When AUTH_MODE=gateway, the API trusts these headers unconditionally.
// This should ONLY be used in the hosted environment with proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_email", c.GetHeader("X-User-Email"))
		c.Set("user_role", c.GetHeader("X-User-Role"))
		c.Next()
	}
}

// NoAuth is a pass-through middleware for AUTH_MODE=none. An X-User-ID header still
// tags the owner of new compositions; requests without one are anonymous.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			userID = AnonymousOwner
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// Owner returns the user the request acts for
func Owner(c *gin.Context) string {
	if id := c.GetString("user_id"); id != "" {
		return id
	}
	return AnonymousOwner
}
