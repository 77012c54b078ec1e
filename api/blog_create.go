package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type blogCreateRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
	Author  string `json:"author" binding:"required"`
}

// BlogCreate stores a manually written blog post
func (a *API) BlogCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var req blogCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Title, content and author are required",
			"requestID": requestID,
		})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	req.Author = strings.TrimSpace(req.Author)

	if req.Title == "" || req.Content == "" || req.Author == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Title, content and author are required",
			"requestID": requestID,
		})
		return
	}

	blog, err := a.Blogs.Create(c.Request.Context(), req.Title, req.Content, req.Author)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create blog", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"blog": blog,
	})
}
