package embedding

import (
	"math"
	"sort"

	"semindex/internal/adapter/analyzer"
	"semindex/internal/domain"
)

// TFIDF is a term-frequency x inverse-document-frequency vectorizer fitted
// on a chunk corpus. Fitting is deterministic: the same corpus always yields
// the same vocabulary, weights and embeddings.
type TFIDF struct {
	vocabulary map[string]int
	idf        []float64
	stopwords  bool
	fitted     bool
}

// NewTFIDF creates an unfitted vectorizer. With stopwords set, common
// English stopwords are excluded from the vocabulary.
func NewTFIDF(stopwords bool) *TFIDF {
	return &TFIDF{stopwords: stopwords}
}

func (e *TFIDF) terms(text string) []string {
	terms := analyzer.Terms(text)
	if e.stopwords {
		terms = analyzer.FilterStopwords(terms)
	}
	return terms
}

// Fit builds the vocabulary and idf weights over corpus, replacing any
// previous fit. The vocabulary is ordered alphabetically.
func (e *TFIDF) Fit(corpus []string) {
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, term := range e.terms(text) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	e.fitted = true
}

// Embed returns the L2-normalized sparse TF-IDF vector of text. Terms
// outside the fitted vocabulary contribute nothing.
func (e *TFIDF) Embed(text string) domain.Vector {
	counts := make(map[int]int)
	for _, term := range e.terms(text) {
		if idx, ok := e.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var norm float64
	for i, idx := range indices {
		values[i] = float64(counts[idx]) * e.idf[idx]
		norm += values[i] * values[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range values {
			values[i] /= norm
		}
	}

	return domain.SparseVector(len(e.idf), indices, values)
}

// Fitted reports whether Fit has run since the last Reset.
func (e *TFIDF) Fitted() bool { return e.fitted }

// Dimension is the vocabulary size.
func (e *TFIDF) Dimension() int { return len(e.idf) }

// IDF returns the idf weight per term.
func (e *TFIDF) IDF() map[string]float64 {
	out := make(map[string]float64, len(e.vocabulary))
	for term, idx := range e.vocabulary {
		out[term] = e.idf[idx]
	}
	return out
}

// Reset discards the fit.
func (e *TFIDF) Reset() {
	e.vocabulary = nil
	e.idf = nil
	e.fitted = false
}
