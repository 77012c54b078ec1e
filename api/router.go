// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"boomerang/diary-api/aws"
	"boomerang/diary-api/cache"
	"boomerang/diary-api/db"
	"boomerang/diary-api/middleware"
	"boomerang/diary-api/service"

	gincache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB          *gorm.DB
	Router      *gin.Engine
	S3          *aws.S3Client
	Tracker     *service.Tracker
	Coordinator *service.Coordinator
	Blogs       *service.BlogService
}

func NewRouter() (*API, error) {
	a := &API{}

	makeLogger()

	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = conn

	s3, err := aws.NewS3()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
	}
	a.S3 = s3

	a.Tracker = service.NewTracker()
	a.Coordinator = service.NewCoordinator(conn, s3, service.NewFFmpeg(), a.Tracker)
	a.Blogs = service.NewBlogService(conn, cache.NewBlogs(), service.NewTranscriber(), service.NewGenerator())

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	a.Router.MaxMultipartMemory = 5 << 20

	maxUploadSize := viper.GetInt64("upload.max_size")
	uploadLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 2,
		Burst:             5,
	})

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)
	}

	videos := main.Group("/videos")
	{
		// POST /api/videos		-> Uploads one or more video files
		videos.POST("", uploadLimiter, middleware.BodySizeLimiter(maxUploadSize*4), a.VideoUpload)

		// GET /api/videos		-> Returns all uploaded videos
		videos.GET("", cacheFor(10), a.VideoList)

		// GET /api/videos/progress	-> Streams upload progress for a task
		videos.GET("/progress", a.VideoProgress)
	}

	blogs := main.Group("/blogs", middleware.BodySizeLimiter(1<<20))
	{
		// GET /api/blogs		-> Returns all blog posts
		blogs.GET("", cacheFor(10), a.BlogList)

		// POST /api/blogs		-> Creates a manually written blog post
		blogs.POST("", a.BlogCreate)

		// POST /api/blogs/generate	-> Generates a post from recent videos
		blogs.POST("/generate", a.BlogGenerate)
	}

	return a, nil
}

func cacheFor(sec int) gin.HandlerFunc {
	return gincache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
