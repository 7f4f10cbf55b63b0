package evp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAnomalies(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "empty transcription",
			in:   "",
			want: nil,
		},
		{
			name: "short phrase",
			in:   "get out",
			want: []string{"Brief communication detected"},
		},
		{
			name: "short phrase with response word",
			in:   "yes we are here",
			want: []string{"Brief communication detected", "Potential response words detected"},
		},
		{
			name: "long mundane speech",
			in:   "the investigators walked slowly through the abandoned hallway recording ambient sounds for several uneventful minutes",
			want: nil,
		},
		{
			name: "response word with punctuation",
			in:   "a very long sentence of background noise that finally ends with a whispered word which sounded like Help!",
			want: []string{"Potential response words detected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectAnomalies(tt.in))
		})
	}
}

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Contains(t, body.Messages[1].Content, "is anyone here")

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Likely a class B EVP."}},
			},
		})
	}))
	defer srv.Close()

	analyzer := &Analyzer{
		APIKey:     "test-key",
		APIBaseURL: srv.URL,
		Model:      "gpt-4",
		HTTPClient: srv.Client(),
	}

	analysis, err := analyzer.Analyze(context.Background(), "is anyone here")
	require.NoError(t, err)
	assert.Equal(t, "Likely a class B EVP.", analysis.AIAnalysis)
	assert.Equal(t, defaultConfidence, analysis.Confidence)
	assert.Contains(t, analysis.Anomalies, "Brief communication detected")
	assert.Contains(t, analysis.Anomalies, "Potential response words detected")
}

func TestAnalyze_MissingKey(t *testing.T) {
	analyzer := &Analyzer{HTTPClient: http.DefaultClient}
	_, err := analyzer.Analyze(context.Background(), "hello")
	require.Error(t, err)
}
