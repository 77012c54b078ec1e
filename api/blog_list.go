package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BlogList returns all blog posts, newest first. Falls back to the local
// mirror when the primary datastore is unreachable.
func (a *API) BlogList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	blogs, err := a.Blogs.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load blogs", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"blogs": blogs,
	})
}
