package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) GetMessages(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := idParam(c, "roomId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	msgs, err := h.svc.DM.Messages(ctx, uid, roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) SendMessage(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := idParam(c, "roomId")
	if !ok {
		return
	}
	var req SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	msg, err := h.svc.DM.Send(ctx, uid, roomID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
