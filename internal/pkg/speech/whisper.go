package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/spectrahq/ghosthunter/internal/pkg/env"
)

const (
	defaultAPIBaseURL = "https://api.openai.com/v1"
	defaultModel      = "whisper-1"
)

// Client calls a Whisper-style speech-to-text endpoint with multipart audio
// uploads and a plain-text response format.
type Client struct {
	APIKey     string
	APIBaseURL string
	Model      string

	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		APIKey:     strings.TrimSpace(env.GetEnv("OPENAI_API_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("SPEECH_API_BASE_URL", defaultAPIBaseURL), "/"),
		Model:      env.GetEnv("SPEECH_MODEL", defaultModel),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) IsConfigured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Transcribe uploads one audio clip and returns its transcription text.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if !c.IsConfigured() {
		return "", errors.New("OPENAI_API_KEY is not configured")
	}
	if strings.TrimSpace(filename) == "" {
		filename = "audio.m4a"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", err
	}
	if err := writer.WriteField("model", c.Model); err != nil {
		return "", err
	}
	if err := writer.WriteField("response_format", "text"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcription request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	return strings.TrimSpace(string(body)), nil
}
