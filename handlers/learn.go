package handlers

import (
	"net/http"

	"linkrite/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListLearnPosts(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := h.svc.Learn.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) CreateLearnPost(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in services.LearnInput
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.svc.Learn.Create(ctx, uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}
