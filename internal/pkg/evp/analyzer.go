package evp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spectrahq/ghosthunter/internal/pkg/env"
)

const (
	defaultAPIBaseURL = "https://api.openai.com/v1"
	defaultModel      = "gpt-4"

	// The heuristic layer assigns a flat confidence; a computed score would
	// need labelled EVP data nobody has.
	defaultConfidence = 75.0
)

const systemPrompt = "You are a paranormal investigator AI assistant analyzing EVP recordings."

// Analysis is the combined result of the heuristic pass and the
// language-model pass over a transcription.
type Analysis struct {
	Transcription string
	Anomalies     []string
	AIAnalysis    string
	Confidence    float64
}

// Analyzer runs EVP transcriptions through a chat-completion model.
type Analyzer struct {
	APIKey     string
	APIBaseURL string
	Model      string

	HTTPClient *http.Client
}

func NewAnalyzerFromEnv() *Analyzer {
	return &Analyzer{
		APIKey:     strings.TrimSpace(env.GetEnv("OPENAI_API_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("LLM_API_BASE_URL", defaultAPIBaseURL), "/"),
		Model:      env.GetEnv("LLM_MODEL", defaultModel),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (a *Analyzer) IsConfigured() bool {
	return strings.TrimSpace(a.APIKey) != ""
}

// Analyze sends the transcription to the language model and combines its
// verdict with the heuristic anomaly scan.
func (a *Analyzer) Analyze(ctx context.Context, transcription string) (*Analysis, error) {
	if !a.IsConfigured() {
		return nil, errors.New("OPENAI_API_KEY is not configured")
	}

	payload := map[string]interface{}{
		"model": a.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildPrompt(transcription)},
		},
		"temperature": 0.7,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.APIBaseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("analysis request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if len(raw.Choices) == 0 {
		return nil, errors.New("analysis response contained no choices")
	}

	return &Analysis{
		Transcription: transcription,
		Anomalies:     DetectAnomalies(transcription),
		AIAnalysis:    strings.TrimSpace(raw.Choices[0].Message.Content),
		Confidence:    defaultConfidence,
	}, nil
}

func buildPrompt(transcription string) string {
	return fmt.Sprintf(`Analyze this EVP (Electronic Voice Phenomenon) recording transcription for paranormal activity.
Transcription: %q

Look for:
1. Unusual words or phrases that seem out of context
2. Repetitive patterns
3. Words that might be names, dates, or locations
4. Any indications of communication attempts
5. Background anomalies or unexplained sounds

Provide a detailed analysis with confidence level (0-100%%).`, transcription)
}

// DetectAnomalies runs the cheap heuristics over a transcription: very short
// phrases and known response words are flagged as potential communication.
func DetectAnomalies(transcription string) []string {
	text := strings.TrimSpace(transcription)
	if text == "" {
		return nil
	}

	var anomalies []string
	words := strings.Fields(text)
	if len(words) < 10 {
		anomalies = append(anomalies, "Brief communication detected")
	}

	responseWords := map[string]bool{"help": true, "here": true, "yes": true, "no": true}
	for _, word := range words {
		if responseWords[strings.ToLower(strings.Trim(word, ".,!?\"'"))] {
			anomalies = append(anomalies, "Potential response words detected")
			break
		}
	}

	return anomalies
}
