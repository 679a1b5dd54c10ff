package port

// Embedder generates dense vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// Model is the embedding capability an index is built against: a tokenizer
// plus single-text dense embedding. A nil or empty vector from Embed means
// the capability has no embedding to offer.
type Model interface {
	Tokenizer

	Embed(text string) ([]float32, error)
}
