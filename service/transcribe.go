package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
)

// Transcriber turns a durable media URL into plain text. The remote service
// accepts either an audio-only or a full video URL.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaURL, mediaID string) (string, error)
}

// transcribeTimeout bounds one transcription call on the caller side. The
// remote side downloads and processes the whole file, so this is generous.
const transcribeTimeout = 10 * time.Minute

// HTTPTranscriber calls the remote transcription endpoint
type HTTPTranscriber struct {
	URL    string
	Client *http.Client
}

func NewTranscriber() *HTTPTranscriber {
	return &HTTPTranscriber{
		URL:    viper.GetString("services.transcribe_url"),
		Client: &http.Client{Timeout: transcribeTimeout},
	}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, mediaURL, mediaID string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"videoUrl": mediaURL,
		"videoId":  mediaID,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription service returned %d", resp.StatusCode)
	}

	var body struct {
		Transcription string `json:"transcription"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("malformed transcription response, %w", err)
	}

	return body.Transcription, nil
}
