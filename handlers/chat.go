package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OpenRoomRequest struct {
	TargetUserID string `json:"targetUserId" binding:"required"`
}

func (h *Handler) ListRooms(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	rooms, err := h.svc.DM.ListRooms(ctx, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// OpenRoom returns the caller's room with the target user, creating it if needed.
func (h *Handler) OpenRoom(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req OpenRoomRequest
	if !bindJSON(c, &req) {
		return
	}
	target, err := primitive.ObjectIDFromHex(req.TargetUserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid targetUserId", "code": "invalid-argument"})
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	room, err := h.svc.DM.OpenRoom(ctx, uid, target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": room.ID, "room": room})
}

func (h *Handler) GetRoom(c *gin.Context) {
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

	detail, err := h.svc.DM.Open(ctx, uid, roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
