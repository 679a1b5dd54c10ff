package port

// Tokenizer turns text into model-specific tokens and back.
type Tokenizer interface {
	Tokenize(text string) []string

	Detokenize(tokens []string) (string, error)
}
