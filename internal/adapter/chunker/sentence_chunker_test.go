package chunker

import (
	"reflect"
	"strings"
	"testing"

	"semindex/internal/adapter/analyzer"
)

func longSentence(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n)) + ". "
}

func TestSentenceChunkerBasic(t *testing.T) {
	chunker := NewSentenceChunker(analyzer.NewWordTokenizer())

	content := "The index splits text. It packs sentences into chunks. Each chunk is embedded. Queries rank chunks."

	chunks := chunker.Chunk("doc1", content, 12, 1)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}

	for i, chunk := range chunks {
		if chunk.DocID != "doc1" {
			t.Errorf("expected DocID 'doc1', got '%s'", chunk.DocID)
		}
		if chunk.Seq != i+1 {
			t.Errorf("expected Seq %d, got %d", i+1, chunk.Seq)
		}
		if want := "doc1_chunk_" + string(rune('1'+i)); chunk.ID != want {
			t.Errorf("expected ID %q, got %q", want, chunk.ID)
		}
		if len(chunk.Tokens) == 0 {
			t.Error("chunk has no tokens")
		}
	}
}

func TestSentenceChunkerSingleChunk(t *testing.T) {
	chunker := NewSentenceChunker(analyzer.NewWordTokenizer())

	content := "A. B. C."
	chunks := chunker.Chunk("doc", content, 50, 1)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if got := strings.Join(chunks[0].Tokens, ""); got != content {
		t.Errorf("expected chunk text %q, got %q", content, got)
	}
	if len(chunks[0].Sentences) != 3 {
		t.Errorf("expected 3 sentences, got %v", chunks[0].Sentences)
	}
}

func TestSentenceChunkerOverlap(t *testing.T) {
	chunker := NewSentenceChunker(analyzer.NewWordTokenizer())

	content := longSentence("alpha", 30) + longSentence("beta", 30) + longSentence("gamma", 30)

	chunks := chunker.Chunk("doc", content, 50, 1)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	for i := 0; i < len(chunks)-1; i++ {
		current := chunks[i]
		next := chunks[i+1]

		trailing := current.Sentences[len(current.Sentences)-1]
		if next.Sentences[0] != trailing {
			t.Errorf("chunk %d should start with %q, got %q", i+2, trailing, next.Sentences[0])
		}
	}
}

func TestSentenceChunkerSmallChunks(t *testing.T) {
	chunker := NewSentenceChunker(analyzer.NewWordTokenizer())

	chunks := chunker.Chunk("doc", "A. B. C.", 4, 1)

	expected := [][]string{
		{"A. "},
		{"A. ", "B. "},
		{"B. ", "C."},
	}
	if len(chunks) != len(expected) {
		t.Fatalf("expected %d chunks, got %d", len(expected), len(chunks))
	}
	for i, chunk := range chunks {
		if !reflect.DeepEqual(chunk.Sentences, expected[i]) {
			t.Errorf("chunk %d: expected %q, got %q", i+1, expected[i], chunk.Sentences)
		}
	}
}

func TestSentenceChunkerNoOverlap(t *testing.T) {
	chunker := NewSentenceChunker(analyzer.NewWordTokenizer())

	chunks := chunker.Chunk("doc", "A. B. C.", 3, 0)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []string{"A. ", "B. ", "C."} {
		if len(chunks[i].Sentences) != 1 || chunks[i].Sentences[0] != want {
			t.Errorf("chunk %d: expected [%q], got %q", i+1, want, chunks[i].Sentences)
		}
	}
}

func TestSentenceChunkerOverlapLargerThanChunk(t *testing.T) {
	chunker := NewSentenceChunker(analyzer.NewWordTokenizer())

	chunks := chunker.Chunk("doc", "A. B.", 3, 5)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !reflect.DeepEqual(chunks[1].Sentences, []string{"A. ", "B."}) {
		t.Errorf("expected overlap capped at the closed chunk, got %q", chunks[1].Sentences)
	}
}

func TestSentenceChunkerEmptyContent(t *testing.T) {
	chunker := NewSentenceChunker(analyzer.NewWordTokenizer())

	for _, content := range []string{"", "   ", ". . "} {
		chunks := chunker.Chunk("doc", content, 50, 1)
		if content == ". . " {
			if len(chunks) != 1 {
				t.Errorf("expected punctuation-only content to produce 1 chunk, got %d", len(chunks))
			}
			continue
		}
		if len(chunks) != 0 {
			t.Errorf("expected 0 chunks for %q, got %d", content, len(chunks))
		}
	}
}

func TestSentenceChunkerLongSentence(t *testing.T) {
	chunker := NewSentenceChunker(analyzer.NewWordTokenizer())

	long := longSentence("word", 40)
	content := long + "Short one."

	chunks := chunker.Chunk("doc", content, 5, 0)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if got := strings.Join(chunks[0].Tokens, ""); got != long {
		t.Error("chunk should contain the full oversized sentence")
	}
}

func TestSentenceChunkerDeterministic(t *testing.T) {
	chunker := NewSentenceChunker(analyzer.NewWordTokenizer())

	content := longSentence("one", 7) + longSentence("two", 3) + longSentence("three", 9) + "End."

	first := chunker.Chunk("doc", content, 10, 1)
	second := chunker.Chunk("doc", content, 10, 1)
	if !reflect.DeepEqual(first, second) {
		t.Error("chunking the same input twice produced different chunks")
	}
}

func TestChunkIDUniqueness(t *testing.T) {
	chunker := NewSentenceChunker(analyzer.NewWordTokenizer())

	content := "One. Two. Three. Four. Five. Six. Seven. Eight."

	chunks := chunker.Chunk("doc1", content, 4, 1)

	ids := make(map[string]bool)
	for _, chunk := range chunks {
		if ids[chunk.ID] {
			t.Errorf("duplicate chunk ID: %s", chunk.ID)
		}
		ids[chunk.ID] = true
	}
}
