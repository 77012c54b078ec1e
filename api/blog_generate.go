package api

import (
	"errors"
	"net/http"

	"boomerang/diary-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type blogGenerateRequest struct {
	Author string `json:"author"`
}

// BlogGenerate creates a post from the transcriptions of the most recently
// uploaded videos. Videos that fail to transcribe are omitted; the request
// fails only when none of them could be transcribed.
func (a *API) BlogGenerate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var req blogGenerateRequest
	// Author is optional, so a missing body is fine
	c.ShouldBindJSON(&req)

	blog, err := a.Blogs.GenerateFromVideos(c.Request.Context(), req.Author)
	if err != nil {
		if errors.Is(err, service.ErrNoTranscriptions) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"error":     "Failed to transcribe any recent videos. Please try again.",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"error":     "Failed to generate blog. Please try again.",
			"requestID": requestID,
		})

		zap.L().Error("Blog generation failed", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"blog": blog,
	})
}
