package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "text", r.FormValue("response_format"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "evp_clip.m4a", header.Filename)

		_, _ = w.Write([]byte("is anyone here\n"))
	}))
	defer srv.Close()

	client := &Client{
		APIKey:     "test-key",
		APIBaseURL: srv.URL,
		Model:      "whisper-1",
		HTTPClient: srv.Client(),
	}

	text, err := client.Transcribe(context.Background(), "evp_clip.m4a", strings.NewReader("fake-audio-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "is anyone here", text)
}

func TestTranscribe_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := &Client{
		APIKey:     "test-key",
		APIBaseURL: srv.URL,
		Model:      "whisper-1",
		HTTPClient: srv.Client(),
	}

	_, err := client.Transcribe(context.Background(), "", strings.NewReader("fake"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
}

func TestTranscribe_MissingKey(t *testing.T) {
	client := &Client{HTTPClient: http.DefaultClient}
	_, err := client.Transcribe(context.Background(), "a.m4a", strings.NewReader("x"))
	require.Error(t, err)
}
