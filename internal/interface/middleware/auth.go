package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/foodgram/pkg/helpers"
	"github.com/oksasatya/foodgram/pkg/response"
)

// CtxUserIDKey holds the authenticated user id in the Gin context.
const CtxUserIDKey = "userID"

// tokenFrom reads "Authorization: Bearer|Token <jwt>", falling back to the access_token cookie.
func tokenFrom(c *gin.Context) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && (strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "Token")) {
			return strings.TrimSpace(token)
		}
		return ""
	}
	token, err := c.Cookie(helpers.AccessCookie)
	if err != nil {
		return ""
	}
	return token
}

// authenticate returns the user id carried by a valid token with a live session, or "".
func authenticate(c *gin.Context, rdb *redis.Client, jwt *helpers.JWTManager) (string, string) {
	token := tokenFrom(c)
	if token == "" {
		return "", "missing access token"
	}
	claims, err := jwt.ParseAccessToken(token)
	if err != nil {
		return "", "invalid access token"
	}
	if rdb != nil && !helpers.SessionMatches(c.Request.Context(), rdb, claims.UserID, claims.SessionID) {
		return "", "session not found"
	}
	return claims.UserID, ""
}

// Auth validates the access token and, when Redis is configured, the session it belongs to.
// It sets userID in the Gin context on success.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, reason := authenticate(c, rdb, jwt)
		if uid == "" {
			response.Error[any](c, http.StatusUnauthorized, reason, response.ErrorBody{Code: "not_authenticated"})
			return
		}
		c.Set(CtxUserIDKey, uid)
		c.Next()
	}
}

// OptionalAuth sets userID when the request carries a valid token and lets anonymous requests through.
func OptionalAuth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid, _ := authenticate(c, rdb, jwt); uid != "" {
			c.Set(CtxUserIDKey, uid)
		}
		c.Next()
	}
}
