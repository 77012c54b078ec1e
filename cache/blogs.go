// Package cache implements the best-effort local mirror of blog posts.
// It is a write-through copy read only when the primary datastore is
// unreachable; no reconciliation is attempted when the two disagree.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"boomerang/diary-api/model"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

const blogsKey = "blogs"

type Blogs struct {
	rdb *redis.Client
}

func NewBlogs() *Blogs {
	return &Blogs{
		rdb: redis.NewClient(&redis.Options{
			Addr: viper.GetString("redis.addr"),
		}),
	}
}

// Store overwrites the mirror with the given posts
func (b *Blogs) Store(ctx context.Context, blogs []model.Blog) error {
	data, err := json.Marshal(blogs)
	if err != nil {
		return fmt.Errorf("failed to serialize blogs, %w", err)
	}

	return b.rdb.Set(ctx, blogsKey, data, 0).Err()
}

// Load returns the mirrored posts. The copy may be stale.
func (b *Blogs) Load(ctx context.Context) ([]model.Blog, error) {
	data, err := b.rdb.Get(ctx, blogsKey).Bytes()
	if err != nil {
		return nil, err
	}

	var blogs []model.Blog
	if err := json.Unmarshal(data, &blogs); err != nil {
		return nil, fmt.Errorf("failed to parse cached blogs, %w", err)
	}

	return blogs, nil
}
