package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"boomerang/diary-api/cache"
	"boomerang/diary-api/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoTranscriptions means no recent video could be transcribed at all.
// This is the only user-visible failure of the generation flow.
var ErrNoTranscriptions = errors.New("failed to transcribe any recent videos")

// generateFromLast bounds how many recent videos feed one generated post.
// The storyline continues from the previous episode, so two is enough.
const generateFromLast = 2

// BlogService composes diary posts: manual ones and ones generated from the
// transcriptions of recently uploaded videos. The redis mirror is written
// through on every successful mutation and read only when the primary
// datastore fails.
type BlogService struct {
	DB          *gorm.DB
	Cache       *cache.Blogs
	Transcriber Transcriber
	Generator   Generator
}

func NewBlogService(db *gorm.DB, mirror *cache.Blogs, transcriber Transcriber, generator Generator) *BlogService {
	return &BlogService{
		DB:          db,
		Cache:       mirror,
		Transcriber: transcriber,
		Generator:   generator,
	}
}

// Create stores a manually written post. When the primary datastore is
// down the post still lands in the local mirror and is reported as created.
func (s *BlogService) Create(ctx context.Context, title, content, author string) (*model.Blog, error) {
	blog := &model.Blog{
		ID:      uuid.NewString(),
		Title:   title,
		Content: content,
		Author:  author,
	}

	if err := s.DB.WithContext(ctx).Create(blog).Error; err != nil {
		zap.L().Warn("Primary save failed, keeping blog in local mirror only", zap.Error(err))
		s.mirrorAppend(ctx, *blog)
		return blog, nil
	}

	s.mirror(ctx)
	return blog, nil
}

// List returns all posts, newest first. Falls back to the local mirror when
// the primary read fails; the mirror may be stale.
func (s *BlogService) List(ctx context.Context) ([]model.Blog, error) {
	var blogs []model.Blog

	err := s.DB.WithContext(ctx).Order("created_at desc").Find(&blogs).Error
	if err == nil {
		return blogs, nil
	}

	zap.L().Warn("Primary blog load failed, using local mirror", zap.Error(err))

	if s.Cache == nil {
		return nil, err
	}

	cached, cacheErr := s.Cache.Load(ctx)
	if cacheErr != nil {
		return nil, fmt.Errorf("primary and mirror reads both failed, %w", err)
	}

	return cached, nil
}

// GenerateFromVideos builds a post from the transcriptions of the most
// recently uploaded videos. Videos that fail to transcribe are simply
// omitted; only a total transcription failure aborts the flow.
func (s *BlogService) GenerateFromVideos(ctx context.Context, author string) (*model.Blog, error) {
	recent, err := s.recentVideos(ctx)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, ErrNoTranscriptions
	}

	zap.L().Info("Generating blog from recent videos", zap.Int("videos", len(recent)))

	s.transcribeAll(ctx, recent)

	transcriptions := labelTranscriptions(recent)
	if transcriptions == "" {
		return nil, ErrNoTranscriptions
	}

	if author == "" {
		author = "Anonymous"
	}

	post, err := s.Generator.Generate(ctx, transcriptions, author)
	if err != nil {
		return nil, fmt.Errorf("blog generation failed, %w", err)
	}

	urls := make(model.StringList, 0, len(recent))
	for _, v := range recent {
		urls = append(urls, v.URL)
	}

	blog := &model.Blog{
		ID:                 uuid.NewString(),
		Title:              post.Title,
		Content:            post.Content,
		Author:             author,
		Videos:             recent,
		VideoURLs:          urls,
		Transcription:      transcriptions,
		GeneratedFromVideo: true,
	}

	// Persistence failure doesn't fail the generation; the post is
	// surfaced either way
	if err := s.DB.WithContext(ctx).Create(blog).Error; err != nil {
		zap.L().Error("Failed to save generated blog", zap.Error(err))
		s.mirrorAppend(ctx, *blog)
		return blog, nil
	}

	s.mirror(ctx)
	return blog, nil
}

// recentVideos returns the newest uploads in chronological order
func (s *BlogService) recentVideos(ctx context.Context) (model.VideoList, error) {
	var videos []model.Video

	err := s.DB.WithContext(ctx).Order("created_at desc").Limit(generateFromLast).Find(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent videos, %w", err)
	}

	// Oldest first so the storyline reads forward
	for i, j := 0, len(videos)-1; i < j; i, j = i+1, j-1 {
		videos[i], videos[j] = videos[j], videos[i]
	}

	return videos, nil
}

// transcribeAll fills in Transcription for each video concurrently. A failed
// or timed-out call leaves that video's transcription empty and the flow
// continues with whatever succeeded.
func (s *BlogService) transcribeAll(ctx context.Context, videos model.VideoList) {
	var wg sync.WaitGroup

	for i := range videos {
		wg.Add(1)

		go func(v *model.Video) {
			defer wg.Done()

			// The audio-only rendition transcribes much faster
			mediaURL := v.URL
			if v.AudioURL != "" {
				mediaURL = v.AudioURL
			}

			text, err := s.Transcriber.Transcribe(ctx, mediaURL, v.ID)
			if err != nil {
				zap.L().Warn("Transcription failed for video",
					zap.String("video_id", v.ID),
					zap.String("file", v.Filename),
					zap.Error(err))
				return
			}

			v.Transcription = text

			// Best effort: remember the transcription on the asset too
			if err := s.DB.WithContext(ctx).Model(&model.Video{}).Where("id = ?", v.ID).Update("transcription", text).Error; err != nil {
				zap.L().Debug("Failed to store transcription on video", zap.Error(err))
			}
		}(&videos[i])
	}

	wg.Wait()
}

// labelTranscriptions concatenates the successful transcriptions with their
// storyline labels. The first successful entry of a multi-video batch is
// the previous episode; everything else is the current one.
func labelTranscriptions(videos model.VideoList) string {
	var entries []string

	i := 0
	for _, v := range videos {
		if v.Transcription == "" {
			continue
		}

		label := "Current Episode"
		if len(videos) > 1 && i == 0 {
			label = "Previously"
		}

		entries = append(entries, fmt.Sprintf("%s - Video: %s\n%s", label, v.Filename, v.Transcription))
		i++
	}

	return strings.Join(entries, "\n\n")
}

// mirror rewrites the local fallback copy from the primary datastore
func (s *BlogService) mirror(ctx context.Context) {
	if s.Cache == nil {
		return
	}

	var blogs []model.Blog
	if err := s.DB.WithContext(ctx).Order("created_at desc").Find(&blogs).Error; err != nil {
		zap.L().Debug("Skipping mirror refresh, primary read failed", zap.Error(err))
		return
	}

	if err := s.Cache.Store(ctx, blogs); err != nil {
		zap.L().Debug("Failed to refresh blog mirror", zap.Error(err))
	}
}

// mirrorAppend prepends one post to the mirrored copy when the primary
// datastore is unreachable
func (s *BlogService) mirrorAppend(ctx context.Context, blog model.Blog) {
	if s.Cache == nil {
		return
	}

	cached, err := s.Cache.Load(ctx)
	if err != nil {
		cached = nil
	}

	if err := s.Cache.Store(ctx, append([]model.Blog{blog}, cached...)); err != nil {
		zap.L().Warn("Failed to save blog to local mirror", zap.Error(err))
	}
}
