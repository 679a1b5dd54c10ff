package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"semindex/internal/domain"
	"semindex/internal/port"
)

var _ port.SnapshotStore = (*JSONFileStore)(nil)

// JSONFileStore persists a snapshot as one JSON document:
//
//	{"embeddings": {id: [..]}, "texts": {id: "..."}, "infos": {"vectorization_method": "..."}}
//
// Object keys are written and read in chunk insertion order.
type JSONFileStore struct {
	path string
}

func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

func (s *JSONFileStore) Path() string {
	return s.path
}

type snapshotInfos struct {
	Method *domain.Method `json:"vectorization_method"`
}

// Save writes the snapshot to a temporary file and renames it into place.
func (s *JSONFileStore) Save(snap domain.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}
	return writeFileAtomic(s.path, data, 0644)
}

func (s *JSONFileStore) Load() (domain.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to read index file: %w", err)
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedSnapshot, s.path, err)
	}
	return snap, nil
}

func (s *JSONFileStore) Close() error {
	return nil
}

func encodeSnapshot(snap domain.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	writeKey := func(i int, id string) error {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		return nil
	}

	buf.WriteString(`{"embeddings":{`)
	for i, e := range snap.Entries {
		if err := writeKey(i, e.ChunkID); err != nil {
			return nil, err
		}
		embedding := e.Embedding
		if embedding == nil {
			embedding = []float64{}
		}
		vec, err := json.Marshal(embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", e.ChunkID, err)
		}
		buf.Write(vec)
	}

	buf.WriteString(`},"texts":{`)
	for i, e := range snap.Entries {
		if err := writeKey(i, e.ChunkID); err != nil {
			return nil, err
		}
		text, err := json.Marshal(e.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(text)
	}

	buf.WriteString(`},"infos":`)
	method := snap.Method
	infos, err := json.Marshal(snapshotInfos{Method: &method})
	if err != nil {
		return nil, err
	}
	buf.Write(infos)
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func decodeSnapshot(data []byte) (domain.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return domain.Snapshot{}, err
	}

	var (
		embeddingIDs []string
		embeddings   map[string][]float64
		textIDs      []string
		texts        map[string]string
		infos        *snapshotInfos
	)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return domain.Snapshot{}, err
		}
		key, _ := tok.(string)

		switch key {
		case "embeddings":
			embeddings = make(map[string][]float64)
			embeddingIDs, err = decodeOrderedObject(dec, func(id string) error {
				var raw json.RawMessage
				if err := dec.Decode(&raw); err != nil {
					return err
				}
				vec, err := decodeEmbedding(raw)
				if err != nil {
					return fmt.Errorf("embedding %s: %w", id, err)
				}
				embeddings[id] = vec
				return nil
			})
		case "texts":
			texts = make(map[string]string)
			textIDs, err = decodeOrderedObject(dec, func(id string) error {
				var text string
				if err := dec.Decode(&text); err != nil {
					return fmt.Errorf("text %s: %w", id, err)
				}
				texts[id] = text
				return nil
			})
		case "infos":
			infos = &snapshotInfos{}
			err = dec.Decode(infos)
		default:
			var skip json.RawMessage
			err = dec.Decode(&skip)
		}
		if err != nil {
			return domain.Snapshot{}, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return domain.Snapshot{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return domain.Snapshot{}, errors.New("trailing data after snapshot")
	}

	if infos == nil || infos.Method == nil {
		return domain.Snapshot{}, errors.New("missing infos.vectorization_method")
	}
	if embeddings == nil || texts == nil {
		return domain.Snapshot{}, errors.New("missing embeddings or texts")
	}
	if len(embeddingIDs) != len(textIDs) {
		return domain.Snapshot{}, fmt.Errorf("%d embeddings for %d texts", len(embeddingIDs), len(textIDs))
	}

	snap := domain.Snapshot{Method: *infos.Method}
	for _, id := range textIDs {
		vec, ok := embeddings[id]
		if !ok {
			return domain.Snapshot{}, fmt.Errorf("text %s has no embedding", id)
		}
		snap.Entries = append(snap.Entries, domain.SnapshotEntry{
			ChunkID:   id,
			Text:      texts[id],
			Embedding: vec,
		})
	}
	return snap, nil
}

// decodeOrderedObject walks a JSON object calling value for each key in
// document order. Duplicate keys are rejected.
func decodeOrderedObject(dec *json.Decoder, value func(key string) error) ([]string, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var keys []string
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = struct{}{}
		if err := value(key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, expectDelim(dec, '}')
}

// decodeEmbedding accepts a flat number array, or a single-row matrix as
// written by older array-backed vectorizers.
func decodeEmbedding(raw json.RawMessage) ([]float64, error) {
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err == nil {
		if flat == nil {
			flat = []float64{}
		}
		return flat, nil
	}
	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("expected a single row, got %d", len(rows))
	}
	return rows[0], nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close index file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to set index file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}
