package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ApplyRequest struct {
	Message string `json:"message"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) Apply(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ApplyRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	app, err := h.svc.Applications.Apply(ctx, uid, postID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *Handler) ListPostApplications(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	apps, err := h.svc.Applications.ListForPost(ctx, uid, postID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *Handler) ListMyApplications(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	apps, err := h.svc.Applications.ListMine(ctx, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *Handler) UpdateApplicationStatus(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	app, err := h.svc.Applications.SetStatus(ctx, uid, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) WithdrawApplication(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Applications.Withdraw(ctx, uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
