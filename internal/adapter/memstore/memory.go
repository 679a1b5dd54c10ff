package memstore

import (
	"sort"

	"semindex/internal/domain"
)

// Table holds index entries keyed by chunk id, remembering insertion order.
// It is not safe for concurrent use; the owning index serializes access.
type Table struct {
	entries   map[string]domain.IndexEntry
	order     []string
	docChunks map[string][]string
}

func NewTable() *Table {
	return &Table{
		entries:   make(map[string]domain.IndexEntry),
		docChunks: make(map[string][]string),
	}
}

// Put inserts an entry, or replaces the entry with the same chunk id while
// keeping its original position.
func (t *Table) Put(entry domain.IndexEntry) {
	if _, exists := t.entries[entry.ChunkID]; !exists {
		t.order = append(t.order, entry.ChunkID)
		t.docChunks[entry.DocID] = append(t.docChunks[entry.DocID], entry.ChunkID)
	}
	t.entries[entry.ChunkID] = entry
}

func (t *Table) Get(id string) (domain.IndexEntry, bool) {
	entry, ok := t.entries[id]
	return entry, ok
}

// SetVector replaces the vector of an existing entry.
func (t *Table) SetVector(id string, v domain.Vector) bool {
	entry, ok := t.entries[id]
	if !ok {
		return false
	}
	entry.Vector = v
	t.entries[id] = entry
	return true
}

// DeleteDoc removes every entry of a document and returns how many were removed.
func (t *Table) DeleteDoc(docID string) int {
	ids := t.docChunks[docID]
	if len(ids) == 0 {
		return 0
	}
	removed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		delete(t.entries, id)
		removed[id] = struct{}{}
	}
	delete(t.docChunks, docID)

	kept := t.order[:0]
	for _, id := range t.order {
		if _, gone := removed[id]; !gone {
			kept = append(kept, id)
		}
	}
	t.order = kept
	return len(ids)
}

func (t *Table) HasDoc(docID string) bool {
	return len(t.docChunks[docID]) > 0
}

// Docs returns the indexed document ids, sorted.
func (t *Table) Docs() []string {
	docs := make([]string, 0, len(t.docChunks))
	for doc := range t.docChunks {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	return docs
}

// All returns the entries in insertion order.
func (t *Table) All() []domain.IndexEntry {
	out := make([]domain.IndexEntry, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.entries[id])
	}
	return out
}

func (t *Table) Len() int {
	return len(t.order)
}

func (t *Table) Reset() {
	t.entries = make(map[string]domain.IndexEntry)
	t.order = nil
	t.docChunks = make(map[string][]string)
}

// Search scores every entry against query by cosine similarity and returns
// the k best, highest first. Equal scores keep insertion order.
func (t *Table) Search(query domain.Vector, k int) []domain.Result {
	results := make([]domain.Result, 0, len(t.order))
	for _, id := range t.order {
		entry := t.entries[id]
		results = append(results, domain.Result{
			ChunkID: id,
			Text:    entry.Text,
			Score:   query.Cosine(entry.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}
