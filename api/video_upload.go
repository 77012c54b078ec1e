package api

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"boomerang/diary-api/util"
	"boomerang/diary-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stagger between file submissions in a batch so N files don't open N
// connection setups in the same instant
const uploadStagger = 100 * time.Millisecond

// VideoUpload accepts one or more video files and starts an independent
// pipeline run for each. Responds immediately with the task ids; progress is
// available on the progress endpoint.
func (a *API) VideoUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	if !strings.HasPrefix(c.Request.Header.Get("Content-Type"), "multipart/form-data") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request",
			"requestID": requestID,
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to parse multipart form", zap.Error(err))
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	type task struct {
		VideoID  string `json:"videoId"`
		Filename string `json:"filename"`
	}

	tasks := make([]task, 0, len(files))

	for i, fh := range files {
		code, f, err := validators.FileValidator(fh)
		if err != nil {
			if code == http.StatusInternalServerError {
				zap.L().Error("Failed to validate file", zap.Error(err))
				err = validators.ErrFileTypeUnsupported
			}

			c.AbortWithStatusJSON(code, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}

		temp, err := os.CreateTemp("", "upload-*")
		if err == nil {
			_, err = io.Copy(temp, f)
		}
		f.Close()

		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to spool upload to a temporary file", zap.Error(err))
			return
		}
		temp.Close()

		videoID := util.NewAssetID()
		a.Tracker.Begin(videoID)
		tasks = append(tasks, task{VideoID: videoID, Filename: fh.Filename})

		go func(delay time.Duration, videoID, path, filename string) {
			time.Sleep(delay)

			zap.L().Info("Starting upload pipeline",
				zap.String("video_id", videoID),
				zap.String("file", filename))

			a.Coordinator.HandleUpload(context.Background(), videoID, path, filename)
		}(time.Duration(i)*uploadStagger, videoID, temp.Name(), fh.Filename)
	}

	c.JSON(http.StatusAccepted, gin.H{
		"tasks":     tasks,
		"requestID": requestID,
	})
}
