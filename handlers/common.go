package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"linkrite/middleware"
	"linkrite/notify"
	"linkrite/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const requestTimeout = 10 * time.Second

// PublicConfig is the client configuration served without a session.
type PublicConfig struct {
	Firebase             interface{} `json:"firebase"`
	StripePublishableKey string      `json:"stripePublishableKey"`
	GoogleSignIn         bool        `json:"googleSignIn"`
	GoogleClientID       string      `json:"googleClientId,omitempty"`
	FirebaseSignIn       bool        `json:"firebaseSignIn"`
}

type Handler struct {
	svc    *services.Services
	push   *notify.Push
	public PublicConfig
}

func New(svc *services.Services, push *notify.Push, public PublicConfig) *Handler {
	return &Handler{svc: svc, push: push, public: public}
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// currentUser reads the session user, answering 401 when absent.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": "unauthorized"})
	}
	return uid, ok
}

func idParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "code": "invalid-argument"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large", "code": "payload-too-large"})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error(), "code": "invalid-argument"})
		return false
	}
	return true
}

var errorTable = []struct {
	sentinel error
	status   int
	code     string
}{
	{services.ErrInvalidInput, http.StatusBadRequest, "invalid-argument"},
	{services.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{services.ErrForbidden, http.StatusForbidden, "permission-denied"},
	{services.ErrNotFound, http.StatusNotFound, "not-found"},
	{services.ErrConflict, http.StatusConflict, "conflict"},
	{services.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
}

// respondError translates a service error into a status and {"error","code"} body.
func respondError(c *gin.Context, err error) {
	var authErr *services.AuthError
	if errors.As(err, &authErr) {
		status := http.StatusUnauthorized
		for _, e := range errorTable {
			if errors.Is(authErr, e.sentinel) {
				status = e.status
				break
			}
		}
		if authErr.Err != nil {
			log.Debug().Err(authErr.Err).Str("code", authErr.Code).Str("requestId", middleware.GetRequestID(c)).Msg("sign-in rejected")
		}
		c.JSON(status, gin.H{"error": authErr.Message(), "code": authErr.Code})
		return
	}

	for _, e := range errorTable {
		if errors.Is(err, e.sentinel) {
			msg := err.Error()
			msg = strings.TrimPrefix(msg, e.sentinel.Error()+": ")
			c.JSON(e.status, gin.H{"error": msg, "code": e.code})
			return
		}
	}

	log.Error().Err(err).
		Str("requestId", middleware.GetRequestID(c)).
		Str("path", c.Request.URL.Path).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "internal"})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) PublicConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.public)
}
