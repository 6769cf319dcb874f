package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/blog-analyzer/internal/repository"
	"github.com/user/blog-analyzer/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

func chatReply(text string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": text}},
		},
	}
}

func TestAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var reply map[string]any
		if strings.Contains(req.Messages[0].Content, "central_takeaways") {
			reply = chatReply(`{"contrarian_takeaways": ["do less"]}`)
		} else {
			reply = chatReply(`{"category": "Business", "summary": "A pricing post."}`)
		}
		require.NoError(t, json.NewEncoder(w).Encode(reply))
	}))
	defer server.Close()

	c := New("test-key", server.URL, "test-model", "test-embed")
	record, err := c.Analyze(context.Background(), "content", "https://example.com/p", "A Post")
	require.NoError(t, err)

	assert.Equal(t, "Business", record.Category)
	assert.Equal(t, "A pricing post.", record.Summary)
	assert.Equal(t, []string{"do less"}, record.ContrarianTakeaways)
}

func TestAnalyzeWithoutKey(t *testing.T) {
	c := New("", "https://api.openai.test", "test-model", "test-embed")

	_, err := c.Analyze(context.Background(), "content", "https://example.com/p", "A Post")
	assert.True(t, errors.Is(err, repository.ErrMissingCredential))
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-embed", req.Model)

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"embedding": []float64{float64(i), 1}}
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"data": data}))
	}))
	defer server.Close()

	c := New("test-key", server.URL, "test-model", "test-embed")
	vectors, err := c.Embed(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)

	require.Len(t, vectors, 3)
	assert.Equal(t, []float64{1, 1}, vectors[1])
}

func TestEmbedWithoutKey(t *testing.T) {
	c := New("", "https://api.openai.test", "test-model", "test-embed")

	_, err := c.Embed(context.Background(), []string{"one"})
	assert.True(t, errors.Is(err, repository.ErrMissingCredential))
}

func TestEmbedVectorCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}}))
	}))
	defer server.Close()

	c := New("test-key", server.URL, "test-model", "test-embed")
	_, err := c.Embed(context.Background(), []string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 vectors for 2 texts")
}

func TestPostKeepsStatusInErrorText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Rate limit reached for requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := New("test-key", server.URL, "test-model", "test-embed")
	_, err := c.Analyze(context.Background(), "content", "https://example.com/p", "A Post")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
