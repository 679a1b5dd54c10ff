package port

import "semindex/internal/domain"

// SnapshotStore persists whole index snapshots.
type SnapshotStore interface {
	// Save replaces the persisted snapshot.
	Save(snap domain.Snapshot) error

	// Load returns domain.ErrSnapshotNotFound when nothing was persisted
	// and wraps domain.ErrMalformedSnapshot when the data is unreadable.
	Load() (domain.Snapshot, error)

	Close() error
}
