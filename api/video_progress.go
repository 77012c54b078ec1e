package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// VideoProgress streams the progress of one upload task as server-sent
// events. A value of -1 means compression is running and no byte-level
// progress exists yet. The stream ends when the task reaches 100, or with a
// "failed" event when the task's entry is cleared before that.
func (a *API) VideoProgress(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	videoID := c.Query("videoId")

	if videoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No video ID provided",
			"requestID": requestID,
		})
		return
	}

	if _, ok := a.Tracker.Get(videoID); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "No running upload found",
			"requestID": requestID,
		})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "nocache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(time.Millisecond * 200)
	defer ticker.Stop()

	for range ticker.C {
		v, ok := a.Tracker.Get(videoID)
		if !ok {
			// The entry vanished before reaching 100: the pipeline gave
			// up on this task. End the stream without a completion event.
			fmt.Fprint(c.Writer, "event: failed\ndata: upload failed\n\n")
			c.Writer.Flush()
			return
		}

		fmt.Fprintf(c.Writer, "data: %.2f\n\n", v)
		c.Writer.Flush()

		if v >= 100 {
			return
		}

		select {
		case <-c.Request.Context().Done():
			return
		default:
		}
	}
}
