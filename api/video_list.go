package api

import (
	"net/http"

	"boomerang/diary-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VideoList returns all uploaded videos, newest first
func (a *API) VideoList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var videos []model.Video
	if err := a.DB.Order("created_at desc").Find(&videos).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load videos", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
	})
}
