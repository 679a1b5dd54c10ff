package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedderProviderCase(t *testing.T) {
	for _, provider := range []string{"mock", "Mock", " MOCK "} {
		e, err := NewEmbedder(Config{Provider: provider, Dimension: 8})
		require.NoError(t, err, provider)
		require.NotNil(t, e, provider)
		assert.Equal(t, 8, e.Dimension(), provider)
	}

	e, err := NewEmbedder(Config{Provider: "None"})
	require.NoError(t, err)
	assert.Nil(t, e)

	_, err = NewEmbedder(Config{Provider: "nope"})
	assert.Error(t, err)
}

func TestNewEmbedderOllamaCase(t *testing.T) {
	e, err := NewEmbedder(Config{Provider: "Ollama", Model: "nomic-embed-text"})
	require.NoError(t, err)
	_, ok := e.(*OpenAIEmbedder)
	assert.True(t, ok)
}
