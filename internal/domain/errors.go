package domain

import "errors"

var (
	// ErrEmptyIndex is returned by queries against an index with no built chunks.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrSnapshotNotFound means no persisted index exists yet.
	ErrSnapshotNotFound = errors.New("no database found")

	// ErrMalformedSnapshot means a persisted index exists but cannot be read.
	ErrMalformedSnapshot = errors.New("malformed index snapshot")

	ErrPersistenceDisabled = errors.New("persistence is not enabled")

	// ErrCapabilityUnavailable means the dense embedding capability is
	// missing or returned no embedding.
	ErrCapabilityUnavailable = errors.New("embedding capability unavailable")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
