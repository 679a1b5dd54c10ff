package usecase

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"semindex/internal/adapter/analyzer"
	"semindex/internal/adapter/cache"
	"semindex/internal/adapter/chunker"
	"semindex/internal/adapter/memstore"
	"semindex/internal/domain"
	"semindex/internal/logging"
	"semindex/internal/port"
)

// IndexOptions configures a new Index.
type IndexOptions struct {
	// Method is the preferred vectorization method. Zero means DenseModel.
	Method domain.Method

	// Model is the dense embedding capability. Nil forces the sparse method.
	Model port.Model

	// Tokenizer overrides the tokenizer used for chunking. Defaults to the
	// model's tokenizer, or analyzer.WordTokenizer without a model.
	Tokenizer port.Tokenizer

	// Store enables Persist and Load. Nil disables persistence.
	Store port.SnapshotStore

	// AutoPersist saves the index after every successful Build.
	AutoPersist bool

	// Cache memoizes query results. It is invalidated on every change.
	Cache *cache.QueryCache

	// Stopwords drops common English words from the TF-IDF vocabulary.
	Stopwords bool

	// ProbeText is embedded once to check the dense model. Defaults to "hi".
	ProbeText string

	// Progress is called after each pending chunk is processed by Build.
	Progress func(done, total int)

	Logger *slog.Logger
}

// Index is a semantic document index: documents are chunked into a pending
// buffer, embedded by Build, and ranked against queries by cosine
// similarity. All methods are serialized by one lock.
type Index struct {
	mu sync.Mutex

	tokenizer port.Tokenizer
	chunker   port.Chunker
	model     port.Model
	probe     string

	vec            *vectorizer
	fallbackReason string

	table   *memstore.Table
	pending []domain.Chunk
	replace map[string]struct{}
	ready   bool

	store       port.SnapshotStore
	autoPersist bool
	cache       *cache.QueryCache
	progress    func(done, total int)
	log         *slog.Logger
}

// NewIndex creates an empty index and fixes its vectorization method. A
// preferred dense method falls back to sparse, permanently, when the model
// is missing or fails to embed the probe text.
func NewIndex(opts IndexOptions) *Index {
	if opts.Method == 0 {
		opts.Method = domain.DenseModel
	}
	if opts.ProbeText == "" {
		opts.ProbeText = DefaultProbeText
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	tokenizer := opts.Tokenizer
	if tokenizer == nil {
		if opts.Model != nil {
			tokenizer = opts.Model
		} else {
			tokenizer = analyzer.NewWordTokenizer()
		}
	}

	idx := &Index{
		tokenizer:   tokenizer,
		chunker:     chunker.NewSentenceChunker(tokenizer),
		model:       opts.Model,
		probe:       opts.ProbeText,
		table:       memstore.NewTable(),
		replace:     make(map[string]struct{}),
		store:       opts.Store,
		autoPersist: opts.AutoPersist,
		cache:       opts.Cache,
		progress:    opts.Progress,
		log:         opts.Logger,
	}

	idx.vec, idx.fallbackReason = selectVectorizer(opts.Method, opts.Model, opts.ProbeText, opts.Stopwords)
	if idx.fallbackReason != "" {
		idx.log.Warn("vectorizer_fallback",
			slog.String("method", idx.vec.method.String()),
			slog.String("reason", idx.fallbackReason))
	} else {
		idx.log.Debug("vectorizer_selected", slog.String("method", idx.vec.method.String()))
	}
	return idx
}

// AddDocument chunks text into the pending buffer. A document that is
// already stored or pending is skipped unless force is set, in which case
// its pending chunks are dropped and its stored entries are replaced by
// the next Build.
func (x *Index) AddDocument(docID, text string, chunkSize, overlap int, force bool) (domain.AddResult, error) {
	if docID == "" {
		return domain.AddResult{}, fmt.Errorf("%w: empty document id", domain.ErrInvalidArgument)
	}
	if chunkSize < 1 {
		return domain.AddResult{}, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidArgument, chunkSize)
	}
	if overlap < 0 {
		return domain.AddResult{}, fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidArgument, overlap)
	}
	if !utf8.ValidString(text) {
		return domain.AddResult{}, fmt.Errorf("%w: document %s is not valid UTF-8", domain.ErrInvalidArgument, docID)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	result := domain.AddResult{DocumentID: docID}

	stored := x.table.HasDoc(docID)
	if (stored || x.hasPending(docID)) && !force {
		x.log.Info("document_skipped",
			slog.String("document_id", docID),
			slog.String("reason", "already indexed, use force to re-vectorize"))
		result.Skipped = true
		return result, nil
	}

	if force {
		x.dropPending(docID)
		if stored {
			x.replace[docID] = struct{}{}
		}
	}

	chunks := x.chunker.Chunk(docID, text, chunkSize, overlap)
	x.pending = append(x.pending, chunks...)
	result.Chunks = len(chunks)

	x.log.Debug("document_added",
		slog.String("document_id", docID),
		slog.Int("chunks", len(chunks)),
		slog.Bool("force", force))
	return result, nil
}

func (x *Index) hasPending(docID string) bool {
	for _, c := range x.pending {
		if c.DocID == docID {
			return true
		}
	}
	return false
}

func (x *Index) dropPending(docID string) {
	kept := x.pending[:0]
	for _, c := range x.pending {
		if c.DocID != docID {
			kept = append(kept, c)
		}
	}
	x.pending = kept
}

type preparedChunk struct {
	chunk domain.Chunk
	text  string
}

// Build embeds every pending chunk and merges it into the index. Chunks
// that cannot be detokenized or embedded are left out and reported; the
// build itself only fails when auto-persisting fails.
func (x *Index) Build() (*domain.BuildReport, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	report := &domain.BuildReport{
		ID:      uuid.NewString(),
		Method:  x.vec.method,
		Pending: len(x.pending),
	}
	total := len(x.pending)
	done := 0
	step := func() {
		done++
		if x.progress != nil {
			x.progress(done, total)
		}
	}
	fail := func(id, stage string, err error) {
		f := domain.ChunkFailure{ChunkID: id, Stage: stage, Err: err}
		report.Failures = append(report.Failures, f)
		x.log.Warn("chunk_skipped",
			slog.String("build_id", report.ID),
			slog.String("chunk_id", id),
			slog.String("stage", stage),
			slog.String("error", err.Error()))
	}

	prepared := make([]preparedChunk, 0, len(x.pending))
	for _, c := range x.pending {
		text, err := x.tokenizer.Detokenize(c.Tokens)
		if err != nil {
			fail(c.ID, domain.StageDetokenize, err)
			step()
			continue
		}
		prepared = append(prepared, preparedChunk{chunk: c, text: text})
	}

	for docID := range x.replace {
		x.table.DeleteDoc(docID)
	}

	switch x.vec.method {
	case domain.SparseFrequency:
		// One vocabulary for every vector: refit over the whole corpus and
		// re-embed what is already stored.
		existing := x.table.All()
		corpus := make([]string, 0, len(existing)+len(prepared))
		for _, e := range existing {
			corpus = append(corpus, e.Text)
		}
		for _, p := range prepared {
			corpus = append(corpus, p.text)
		}
		x.vec.fit(corpus)
		for _, e := range existing {
			v, _ := x.vec.embed(e.Text)
			x.table.SetVector(e.ChunkID, v)
		}
	case domain.DenseModel:
	}

	for _, p := range prepared {
		v, err := x.vec.embed(p.text)
		if err != nil {
			fail(p.chunk.ID, domain.StageEmbed, err)
			step()
			continue
		}
		x.table.Put(domain.IndexEntry{
			ChunkID: p.chunk.ID,
			DocID:   p.chunk.DocID,
			Seq:     p.chunk.Seq,
			Text:    p.text,
			Vector:  v,
		})
		report.Indexed++
		step()
	}

	x.pending = nil
	x.replace = make(map[string]struct{})
	x.ready = true
	x.invalidate()
	report.Total = x.table.Len()

	x.log.Info("index_build_complete",
		slog.String("build_id", report.ID),
		slog.String("method", report.Method.String()),
		slog.Int("indexed", report.Indexed),
		slog.Int("failed", len(report.Failures)),
		slog.Int("total", report.Total))

	if x.autoPersist && x.store != nil {
		if err := x.persistLocked(); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Clear empties the index and un-fits the vectorizer. With persistence
// enabled the empty state is saved immediately.
func (x *Index) Clear() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.resetLocked()
	x.log.Info("index_cleared")

	if x.store != nil {
		return x.persistLocked()
	}
	return nil
}

func (x *Index) resetLocked() {
	x.table.Reset()
	x.vec.reset()
	x.pending = nil
	x.replace = make(map[string]struct{})
	x.ready = false
	x.invalidate()
}

func (x *Index) invalidate() {
	if x.cache != nil {
		x.cache.Invalidate()
	}
}

// Method returns the vectorization method fixed for this index.
func (x *Index) Method() domain.Method {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.vec.method
}

// FallbackReason explains why a preferred dense method was replaced by the
// sparse one. Empty when no fallback happened.
func (x *Index) FallbackReason() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.fallbackReason
}

// Ready reports whether a build or load has completed since the last Clear.
func (x *Index) Ready() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.ready
}

// Len is the number of stored entries.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.table.Len()
}

// Pending is the number of chunks waiting for Build.
func (x *Index) Pending() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.pending)
}

// Dimension is the embedding dimension: the model's for dense indexes, the
// vocabulary size for sparse ones.
func (x *Index) Dimension() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.vec.dimension()
}

// TermWeight is a vocabulary term and its idf weight.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// DistinctiveTerms returns up to n vocabulary terms with the highest idf
// weight, ties broken by term. It is empty for a dense index.
func (x *Index) DistinctiveTerms(n int) []TermWeight {
	x.mu.Lock()
	weights := x.vec.weights()
	x.mu.Unlock()

	if n < 1 || len(weights) == 0 {
		return nil
	}
	terms := make([]TermWeight, 0, len(weights))
	for term, w := range weights {
		terms = append(terms, TermWeight{Term: term, Weight: w})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Weight != terms[j].Weight {
			return terms[i].Weight > terms[j].Weight
		}
		return terms[i].Term < terms[j].Term
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// Documents returns the ids of stored and pending documents, sorted.
func (x *Index) Documents() []string {
	x.mu.Lock()
	defer x.mu.Unlock()

	seen := make(map[string]struct{})
	docs := x.table.Docs()
	for _, d := range docs {
		seen[d] = struct{}{}
	}
	for _, c := range x.pending {
		if _, ok := seen[c.DocID]; !ok {
			seen[c.DocID] = struct{}{}
			docs = append(docs, c.DocID)
		}
	}
	sort.Strings(docs)
	return docs
}

// Entries returns the stored entries in insertion order.
func (x *Index) Entries() []domain.IndexEntry {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.table.All()
}
