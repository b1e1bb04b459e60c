package handlers

import (
	"errors"
	"net/http"

	"linkrite/media"
	"linkrite/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetMyProfile(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.svc.Profiles.Me(ctx, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateMyProfile(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var upd models.ProfileUpdate
	if !bindJSON(c, &upd) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.svc.Profiles.Update(ctx, uid, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UploadAvatar(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	header, err := c.FormFile("avatar")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large", "code": "payload-too-large"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No avatar file provided", "code": "invalid-argument"})
		return
	}
	if header.Size > media.MaxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": media.ErrImageTooLarge.Error(), "code": "invalid-argument"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read avatar file", "code": "invalid-argument"})
		return
	}
	defer file.Close()

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.svc.Profiles.UploadAvatar(ctx, uid, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) GetUser(c *gin.Context) {
	viewer, ok := currentUser(c)
	if !ok {
		return
	}
	uid, ok := idParam(c, "uid")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	view, err := h.svc.Profiles.View(ctx, viewer, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
