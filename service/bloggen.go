package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GeneratedPost is the structured result of the content-generation service
type GeneratedPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Generator produces a diary post from concatenated, labeled transcription
// text
type Generator interface {
	Generate(ctx context.Context, transcriptions, author string) (GeneratedPost, error)
}

// HTTPGenerator calls the remote content-generation endpoint. The service's
// response is treated as semi-structured input: the post sometimes arrives
// as plain fields and sometimes as a JSON document embedded inside the
// content string, so recovery runs through explicit fallback tiers.
type HTTPGenerator struct {
	URL    string
	Client *http.Client
}

func NewGenerator() *HTTPGenerator {
	return &HTTPGenerator{
		URL:    viper.GetString("services.generate_url"),
		Client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, transcriptions, author string) (GeneratedPost, error) {
	payload, err := json.Marshal(map[string]string{
		"transcriptions": transcriptions,
		"author":         author,
	})
	if err != nil {
		return GeneratedPost{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(payload))
	if err != nil {
		return GeneratedPost{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return GeneratedPost{}, fmt.Errorf("generation request failed, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GeneratedPost{}, fmt.Errorf("generation service returned %d", resp.StatusCode)
	}

	var post GeneratedPost
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return GeneratedPost{}, fmt.Errorf("malformed generation response, %w", err)
	}

	return recoverPost(post), nil
}

var embeddedJSON = regexp.MustCompile(`\{[\s\S]*\}`)

// recoverPost normalizes a generation response through fallback tiers:
// structured fields, then JSON embedded in the content string, then a regex
// scrape for a JSON object, then raw passthrough. Each tier logs distinctly
// so malformed responses stay diagnosable.
func recoverPost(post GeneratedPost) GeneratedPost {
	content := strings.TrimSpace(post.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	looksLikeJSON := strings.HasPrefix(content, "{") ||
		(post.Title == "" && strings.Contains(content, "{"))

	if !looksLikeJSON {
		// Tier 1: already structured
		return post
	}

	var embedded GeneratedPost
	if err := json.Unmarshal([]byte(content), &embedded); err == nil && embedded.Title != "" && embedded.Content != "" {
		zap.L().Debug("Recovered post from JSON embedded in content")
		return embedded
	}

	if m := embeddedJSON.FindString(content); m != "" {
		if err := json.Unmarshal([]byte(m), &embedded); err == nil && embedded.Title != "" && embedded.Content != "" {
			zap.L().Warn("Recovered post by scraping a JSON object out of the content")
			return embedded
		}
	}

	zap.L().Warn("Could not recover structured post, passing content through raw")

	if post.Title == "" {
		post.Title = "Generated Blog Post"
	}

	return post
}
