package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GoogleAuthURL(c *gin.Context) {
	url, err := h.svc.Auth.GoogleAuthURL()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GoogleCallback is the redirect target of the consent screen.
func (h *Handler) GoogleCallback(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.svc.Auth.GoogleCallback(ctx, c.Query("state"), c.Query("code"), c.Query("error"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GoogleCredential signs in with a Google Identity Services ID token.
func (h *Handler) GoogleCredential(c *gin.Context) {
	var req TokenRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.svc.Auth.GoogleCredential(ctx, req.token())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
