package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Method is the vectorization method fixed for the lifetime of an index.
type Method int

const (
	// DenseModel delegates every embedding to an external model.
	DenseModel Method = iota + 1
	// SparseFrequency uses a TF-IDF vectorizer fitted on the chunk corpus.
	SparseFrequency
)

// Persisted names, kept compatible with existing index files.
const (
	methodNameDense  = "model_embedding"
	methodNameSparse = "ftidf_vectorizer"
)

func (m Method) String() string {
	switch m {
	case DenseModel:
		return methodNameDense
	case SparseFrequency:
		return methodNameSparse
	default:
		return "unknown"
	}
}

// ParseMethod parses a persisted or configured method name.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case methodNameDense, "dense":
		return DenseModel, nil
	case methodNameSparse, "tfidf_vectorizer", "tfidf", "sparse":
		return SparseFrequency, nil
	default:
		return 0, fmt.Errorf("unknown vectorization method %q", s)
	}
}

func (m Method) MarshalText() ([]byte, error) {
	if m != DenseModel && m != SparseFrequency {
		return nil, fmt.Errorf("unknown vectorization method %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(b []byte) error {
	parsed, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Chunk is a span of a document produced by the chunker, before its text
// has been materialized by the tokenizer.
type Chunk struct {
	ID        string
	DocID     string
	Seq       int
	Sentences []string
	Tokens    []string
}

const chunkIDSep = "_chunk_"

// ChunkID derives the identifier of the seq-th chunk of a document.
func ChunkID(docID string, seq int) string {
	return docID + chunkIDSep + strconv.Itoa(seq)
}

// ParseChunkID splits a chunk identifier back into document id and sequence.
func ParseChunkID(id string) (docID string, seq int, ok bool) {
	i := strings.LastIndex(id, chunkIDSep)
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+len(chunkIDSep):])
	if err != nil {
		return "", 0, false
	}
	return id[:i], n, true
}

// IndexEntry is one row of the index: the text of a chunk together with its
// embedding. Text and vector live in one value so they cannot diverge.
type IndexEntry struct {
	ChunkID string
	DocID   string
	Seq     int
	Text    string
	Vector  Vector
}

// Result is a ranked query hit.
type Result struct {
	ChunkID string  `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// AddResult reports what AddDocument did.
type AddResult struct {
	DocumentID string
	Chunks     int
	Skipped    bool
}

// ChunkFailure records a chunk dropped from a build.
type ChunkFailure struct {
	ChunkID string
	Stage   string
	Err     error
}

func (f ChunkFailure) Error() string {
	return fmt.Sprintf("chunk %s: %s: %v", f.ChunkID, f.Stage, f.Err)
}

func (f ChunkFailure) Unwrap() error { return f.Err }

// Failure stages.
const (
	StageDetokenize = "detokenize"
	StageEmbed      = "embed"
)

// BuildReport summarizes one Build call.
type BuildReport struct {
	ID       string
	Method   Method
	Pending  int
	Indexed  int
	Total    int
	Failures []ChunkFailure
}

// Snapshot is the persisted form of an index. Entries keep insertion order.
type Snapshot struct {
	Method  Method
	Entries []SnapshotEntry
}

type SnapshotEntry struct {
	ChunkID   string
	Text      string
	Embedding []float64
}
