package embedding

import (
	"semindex/internal/port"
)

// Model combines a tokenizer with a batch embedder into the single-text
// capability an index is built against.
type Model struct {
	port.Tokenizer
	embedder port.Embedder
}

var _ port.Model = (*Model)(nil)

func NewModel(tokenizer port.Tokenizer, embedder port.Embedder) *Model {
	return &Model{Tokenizer: tokenizer, embedder: embedder}
}

// Embed returns nil when the embedder produced nothing for text.
func (m *Model) Embed(text string) ([]float32, error) {
	vectors, err := m.embedder.Embed([]string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

func (m *Model) ModelName() string {
	return m.embedder.ModelName()
}
