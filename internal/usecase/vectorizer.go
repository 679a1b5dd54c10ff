package usecase

import (
	"fmt"

	"semindex/internal/adapter/embedding"
	"semindex/internal/domain"
	"semindex/internal/port"
)

// DefaultProbeText is embedded once to decide whether the dense model works.
const DefaultProbeText = "hi"

// vectorizer embeds chunk and query texts with the single method of an
// index. Only the fields of the active method are used: model and dim for
// DenseModel, tfidf for SparseFrequency.
type vectorizer struct {
	method domain.Method

	model port.Model
	dim   int

	tfidf *embedding.TFIDF
}

// selectVectorizer runs the variant selection protocol. The returned reason
// is non-empty when a preferred dense method fell back to sparse.
func selectVectorizer(preferred domain.Method, model port.Model, probe string, stopwords bool) (*vectorizer, string) {
	sparse := &vectorizer{method: domain.SparseFrequency, tfidf: embedding.NewTFIDF(stopwords)}

	switch preferred {
	case domain.SparseFrequency:
		return sparse, ""
	case domain.DenseModel:
	default:
		return sparse, fmt.Sprintf("unknown vectorization method %d", int(preferred))
	}

	dense, reason := probeDense(model, probe, sparse.tfidf)
	if dense == nil {
		return sparse, reason
	}
	return dense, ""
}

// probeDense embeds probe through model and returns a dense vectorizer
// sized by the result, or nil with the reason the model is unusable.
func probeDense(model port.Model, probe string, tfidf *embedding.TFIDF) (*vectorizer, string) {
	if model == nil {
		return nil, "no embedding model configured"
	}
	vec, err := model.Embed(probe)
	if err != nil {
		return nil, fmt.Sprintf("probe embedding failed: %v", err)
	}
	if len(vec) == 0 {
		return nil, "probe embedding returned no result"
	}

	return &vectorizer{
		method: domain.DenseModel,
		model:  model,
		dim:    len(vec),
		tfidf:  tfidf,
	}, ""
}

// fit prepares the vectorizer for corpus. Only the sparse method fits.
func (v *vectorizer) fit(corpus []string) {
	switch v.method {
	case domain.SparseFrequency:
		v.tfidf.Fit(corpus)
	case domain.DenseModel:
	}
}

func (v *vectorizer) embed(text string) (domain.Vector, error) {
	switch v.method {
	case domain.DenseModel:
		values, err := v.model.Embed(text)
		if err != nil {
			return domain.Vector{}, fmt.Errorf("%w: %v", domain.ErrCapabilityUnavailable, err)
		}
		if len(values) == 0 {
			return domain.Vector{}, fmt.Errorf("%w: no embedding returned", domain.ErrCapabilityUnavailable)
		}
		if v.dim > 0 && len(values) != v.dim {
			return domain.Vector{}, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(values), v.dim)
		}
		return domain.DenseVector(values), nil
	case domain.SparseFrequency:
		return v.tfidf.Embed(text), nil
	default:
		return domain.Vector{}, fmt.Errorf("unknown vectorization method %d", int(v.method))
	}
}

// reset discards everything learned from the corpus.
func (v *vectorizer) reset() {
	switch v.method {
	case domain.SparseFrequency:
		v.tfidf.Reset()
	case domain.DenseModel:
	}
}

func (v *vectorizer) dimension() int {
	switch v.method {
	case domain.DenseModel:
		return v.dim
	case domain.SparseFrequency:
		return v.tfidf.Dimension()
	default:
		return 0
	}
}

// weights returns the idf weight per vocabulary term, or nil when the
// vectorizer is dense or not yet fitted.
func (v *vectorizer) weights() map[string]float64 {
	if v.method != domain.SparseFrequency || !v.tfidf.Fitted() {
		return nil
	}
	return v.tfidf.IDF()
}

// asSparse returns a sparse vectorizer sharing this one's TF-IDF settings.
func (v *vectorizer) asSparse() *vectorizer {
	return &vectorizer{method: domain.SparseFrequency, tfidf: v.tfidf}
}
