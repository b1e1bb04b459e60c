package middleware

import (
	"errors"
	"net/http"
	"strings"

	"linkrite/session"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	userIDKey = "userId"
	claimsKey = "sessionClaims"
)

// Session requires a valid, unrevoked token and stores the caller's id in the
// gin context. Handlers read it back with CurrentUserID.
func Session(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "Authentication required")
			return
		}

		claims, err := sessions.Parse(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrRevoked) {
				abortUnauthorized(c, "Session has been signed out")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}
		uid, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(userIDKey, uid)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			return token, true
		}
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "unauthorized"})
}

// CurrentUserID returns the signed-in user's id set by Session.
func CurrentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	uid, ok := v.(primitive.ObjectID)
	return uid, ok
}

func SessionClaims(c *gin.Context) *session.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*session.Claims)
	return claims
}
