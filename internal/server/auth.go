package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves the user behind a request.
type Authenticator interface {
	// UserID returns the authenticated user's ID, or false when the
	// request carries no valid credentials.
	UserID(r *http.Request) (string, bool)
}

// StaticTokens authenticates bearer tokens against a fixed token -> user
// map, typically loaded from configuration.
type StaticTokens map[string]string

// UserID implements Authenticator.
func (s StaticTokens) UserID(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	userID, ok := s[token]
	return userID, ok
}

// userKey is the gin context key the authenticated user ID is stored under.
const userKey = "quire.userID"

// requireUser rejects unauthenticated requests with 401 and stashes the
// user ID for handlers downstream.
func requireUser(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.UserID(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(userKey, userID)
		c.Next()
	}
}

// currentUser returns the user ID set by requireUser.
func currentUser(c *gin.Context) string {
	userID, _ := c.Get(userKey)
	s, _ := userID.(string)
	return s
}
