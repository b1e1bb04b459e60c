package handlers

import (
	"net/http"

	"linkrite/models"
	"linkrite/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PayoutRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

func (h *Handler) ListEarnPosts(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	f := models.EarnFilter{
		Query:    c.Query("q"),
		Platform: c.Query("platform"),
	}
	if author := c.Query("authorId"); author != "" {
		id, err := primitive.ObjectIDFromHex(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid authorId", "code": "invalid-argument"})
			return
		}
		f.AuthorID = id
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := h.svc.Earn.List(ctx, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) CreateEarnPost(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in services.EarnInput
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.svc.Earn.Create(ctx, uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *Handler) GetEarnPost(c *gin.Context) {
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

	view, err := h.svc.Earn.Get(ctx, uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) UpdateEarnPost(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var upd models.EarnUpdate
	if !bindJSON(c, &upd) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.svc.Earn.Update(ctx, uid, id, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) DeleteEarnPost(c *gin.Context) {
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

	if err := h.svc.Earn.Delete(ctx, uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RecordPayout(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req PayoutRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	view, err := h.svc.Earn.RecordPayout(ctx, uid, id, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
