package embedding

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(req embeddingRequest) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, body := handler(req)
		w.WriteHeader(status)
		assert.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "test-key")

	var batches int
	srv := newTestServer(t, func(req embeddingRequest) (int, any) {
		batches++
		assert.Equal(t, "text-embedding-3-small", req.Model)
		data := make([]embeddingData, len(req.Input))
		// Respond out of order to exercise index placement.
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = embeddingData{Index: j, Embedding: []float32{float32(j), 1}}
		}
		return http.StatusOK, embeddingResponse{Data: data}
	})

	e, err := NewOpenAIEmbedder(Config{
		Model:     "text-embedding-3-small",
		BaseURL:   srv.URL,
		APIKeyEnv: "TEST_EMBED_KEY",
		BatchSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 1536, e.Dimension())
	assert.Equal(t, "text-embedding-3-small", e.ModelName())

	vectors, err := e.Embed([]string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, 2, batches)
	assert.Equal(t, []float32{0, 1}, vectors[0])
	assert.Equal(t, []float32{1, 1}, vectors[1])
	assert.Equal(t, []float32{0, 1}, vectors[2])
}

func TestOpenAIEmbedder_APIError(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "test-key")

	srv := newTestServer(t, func(req embeddingRequest) (int, any) {
		return http.StatusUnauthorized, map[string]string{"detail": "bad key"}
	})

	e, err := NewOpenAIEmbedder(Config{BaseURL: srv.URL, APIKeyEnv: "TEST_EMBED_KEY"})
	require.NoError(t, err)

	_, err = e.Embed([]string{"hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestOpenAIEmbedder_MissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")

	_, err := NewOpenAIEmbedder(Config{APIKeyEnv: "TEST_EMBED_KEY"})
	require.Error(t, err)
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(Config{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = NewEmbedder(Config{Provider: "mock", Dimension: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, e.Dimension())

	e, err = NewEmbedder(Config{Provider: "ollama", Model: "all-minilm"})
	require.NoError(t, err)
	assert.Equal(t, 384, e.Dimension())

	_, err = NewEmbedder(Config{Provider: "word2vec"})
	assert.Error(t, err)
}
