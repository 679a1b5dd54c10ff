package usecase

import (
	"errors"
	"fmt"
	"log/slog"

	"semindex/internal/domain"
)

// Persist saves the stored entries and the method. The TF-IDF fit is not
// saved; Load refits it from the texts.
func (x *Index) Persist() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.persistLocked()
}

func (x *Index) persistLocked() error {
	if x.store == nil {
		return domain.ErrPersistenceDisabled
	}

	entries := x.table.All()
	snap := domain.Snapshot{
		Method:  x.vec.method,
		Entries: make([]domain.SnapshotEntry, 0, len(entries)),
	}
	for _, e := range entries {
		snap.Entries = append(snap.Entries, domain.SnapshotEntry{
			ChunkID:   e.ChunkID,
			Text:      e.Text,
			Embedding: e.Vector.Dense(),
		})
	}

	if err := x.store.Save(snap); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}
	x.log.Debug("index_persisted",
		slog.String("method", snap.Method.String()),
		slog.Int("entries", len(snap.Entries)))
	return nil
}

// Load replaces the index with the persisted snapshot and discards pending
// chunks. A missing snapshot leaves an empty index and is not an error. The
// snapshot's method wins over the current one; sparse snapshots are always
// refitted from their texts. A dense snapshot that the model cannot serve
// is refitted as sparse.
func (x *Index) Load() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.store == nil {
		return domain.ErrPersistenceDisabled
	}

	snap, err := x.store.Load()
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		x.resetLocked()
		x.log.Info("no database found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	vec := x.vec
	switch snap.Method {
	case domain.DenseModel:
		vec, err = x.denseFor(snap)
		if err != nil {
			return err
		}
	case domain.SparseFrequency:
		vec = x.vec.asSparse()
	default:
		return fmt.Errorf("%w: unknown vectorization method %d", domain.ErrMalformedSnapshot, int(snap.Method))
	}

	x.resetLocked()
	x.vec = vec

	switch vec.method {
	case domain.SparseFrequency:
		corpus := make([]string, len(snap.Entries))
		for i, e := range snap.Entries {
			corpus[i] = e.Text
		}
		vec.fit(corpus)
		for _, e := range snap.Entries {
			v, _ := vec.embed(e.Text)
			x.table.Put(entryFromSnapshot(e, v))
		}
	case domain.DenseModel:
		for _, e := range snap.Entries {
			x.table.Put(entryFromSnapshot(e, domain.DenseVector64(e.Embedding)))
		}
	}

	x.ready = true
	x.log.Info("index_loaded",
		slog.String("method", vec.method.String()),
		slog.Int("entries", x.table.Len()))
	return nil
}

// denseFor returns the vectorizer for a dense snapshot: the dense one when
// the model can produce vectors of the snapshot's dimension, a sparse one
// otherwise. An index that already fell back does not probe again.
func (x *Index) denseFor(snap domain.Snapshot) (*vectorizer, error) {
	dim := -1
	for _, e := range snap.Entries {
		if dim >= 0 && len(e.Embedding) != dim {
			return nil, fmt.Errorf("%w: chunk %s has dimension %d, want %d",
				domain.ErrMalformedSnapshot, e.ChunkID, len(e.Embedding), dim)
		}
		dim = len(e.Embedding)
	}

	dense := x.vec
	reason := x.fallbackReason
	if dense.method != domain.DenseModel && reason == "" {
		dense, reason = probeDense(x.model, x.probe, x.vec.tfidf)
		if dense != nil {
			x.log.Debug("vectorizer_selected", slog.String("method", dense.method.String()))
		}
	}
	if dense != nil && dense.method == domain.DenseModel && dim >= 0 && dim != dense.dim {
		reason = fmt.Sprintf("snapshot dimension %d does not match model dimension %d", dim, dense.dim)
		dense = nil
	}

	if dense == nil || dense.method != domain.DenseModel {
		x.log.Warn("vectorizer_fallback",
			slog.String("method", domain.SparseFrequency.String()),
			slog.String("reason", "dense snapshot without usable model: "+reason))
		if x.fallbackReason == "" {
			x.fallbackReason = reason
		}
		return x.vec.asSparse(), nil
	}
	return dense, nil
}

func entryFromSnapshot(e domain.SnapshotEntry, v domain.Vector) domain.IndexEntry {
	docID, seq, ok := domain.ParseChunkID(e.ChunkID)
	if !ok {
		docID = e.ChunkID
	}
	return domain.IndexEntry{
		ChunkID: e.ChunkID,
		DocID:   docID,
		Seq:     seq,
		Text:    e.Text,
		Vector:  v,
	}
}
