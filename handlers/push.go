package handlers

import (
	"errors"
	"net/http"

	"linkrite/notify"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (h *Handler) VAPIDPublicKey(c *gin.Context) {
	if !h.push.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured", "code": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.push.PublicKey()})
}

func (h *Handler) SubscribePush(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	if !h.push.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured", "code": "unavailable"})
		return
	}
	var req notify.SubscribeInput
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	err := h.push.Subscribe(ctx, uid, req)
	if errors.Is(err, notify.ErrInvalidSubscription) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("userId", uid.Hex()).Msg("saving push subscription failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription", "code": "internal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Push subscription saved"})
}
