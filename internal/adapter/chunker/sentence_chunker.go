package chunker

import (
	"strings"

	"semindex/internal/domain"
	"semindex/internal/port"
)

// sentenceDelimiter separates sentences. It stays attached to the sentence
// it ends so concatenated sentence tokens read like the source text.
const sentenceDelimiter = ". "

type sentence struct {
	text   string
	tokens []string
}

// SentenceChunker packs whole sentences into chunks bounded by a token
// count, repeating trailing sentences of each chunk at the start of the next.
type SentenceChunker struct {
	tokenizer port.Tokenizer
}

func NewSentenceChunker(tokenizer port.Tokenizer) *SentenceChunker {
	return &SentenceChunker{tokenizer: tokenizer}
}

// Chunk splits text into chunks of at most chunkSize tokens, except that a
// sentence longer than chunkSize gets a chunk of its own. overlap is the
// number of trailing sentences carried into the following chunk.
func (c *SentenceChunker) Chunk(docID, text string, chunkSize, overlap int) []domain.Chunk {
	sentences := c.splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	var current []sentence
	currentTokens := 0

	emit := func() {
		seq := len(chunks) + 1
		chunk := domain.Chunk{
			ID:    domain.ChunkID(docID, seq),
			DocID: docID,
			Seq:   seq,
		}
		for _, s := range current {
			chunk.Sentences = append(chunk.Sentences, s.text)
			chunk.Tokens = append(chunk.Tokens, s.tokens...)
		}
		chunks = append(chunks, chunk)
	}

	for _, s := range sentences {
		if currentTokens+len(s.tokens) <= chunkSize {
			current = append(current, s)
			currentTokens += len(s.tokens)
			continue
		}

		if len(current) > 0 {
			emit()
		}

		carried := carryOver(current, overlap)
		current = append(carried, s)
		currentTokens = 0
		for _, cs := range current {
			currentTokens += len(cs.tokens)
		}
	}

	if len(current) > 0 {
		emit()
	}

	return chunks
}

// carryOver returns the last n sentences of a closed chunk.
func carryOver(closed []sentence, n int) []sentence {
	if n <= 0 || len(closed) == 0 {
		return nil
	}
	if n > len(closed) {
		n = len(closed)
	}
	out := make([]sentence, n)
	copy(out, closed[len(closed)-n:])
	return out
}

func (c *SentenceChunker) splitSentences(text string) []sentence {
	var sentences []sentence
	for _, piece := range strings.SplitAfter(text, sentenceDelimiter) {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		sentences = append(sentences, sentence{
			text:   piece,
			tokens: c.tokenizer.Tokenize(piece),
		})
	}
	return sentences
}
