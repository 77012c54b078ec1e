package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boomerang/diary-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newProgressTestRouter(a *API) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("requestID", "testreq")
	})
	r.GET("/progress", a.VideoProgress)

	return r
}

func streamProgress(r *gin.Engine, videoID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/progress?videoId="+videoID, nil)
	r.ServeHTTP(w, req)

	return w
}

func TestVideoProgressCompletes(t *testing.T) {
	a := &API{Tracker: service.NewTracker()}
	r := newProgressTestRouter(a)

	a.Tracker.Begin("vid1")
	a.Tracker.Update("vid1", 40)

	go func() {
		time.Sleep(300 * time.Millisecond)
		a.Tracker.Done("vid1")
	}()

	body := streamProgress(r, "vid1").Body.String()

	assert.Contains(t, body, "data: 40.00")
	assert.Contains(t, body, "data: 100.00")
	assert.NotContains(t, body, "event: failed")
}

func TestVideoProgressFailedTaskIsNotReportedComplete(t *testing.T) {
	a := &API{Tracker: service.NewTracker()}
	r := newProgressTestRouter(a)

	a.Tracker.Begin("vid1")
	a.Tracker.Update("vid1", 40)

	// The pipeline gives up and clears the entry mid-stream
	go func() {
		time.Sleep(300 * time.Millisecond)
		a.Tracker.Clear("vid1")
	}()

	body := streamProgress(r, "vid1").Body.String()

	assert.Contains(t, body, "data: 40.00")
	assert.NotContains(t, body, "data: 100.00")
	assert.Contains(t, body, "event: failed")
}

func TestVideoProgressUnknownTask(t *testing.T) {
	a := &API{Tracker: service.NewTracker()}
	r := newProgressTestRouter(a)

	w := streamProgress(r, "nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVideoProgressMissingID(t *testing.T) {
	a := &API{Tracker: service.NewTracker()}
	r := newProgressTestRouter(a)

	w := streamProgress(r, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
