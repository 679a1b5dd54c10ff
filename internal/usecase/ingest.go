package usecase

import (
	"fmt"
	"log/slog"

	"semindex/internal/adapter/fs"
	"semindex/internal/logging"
)

// IngestUseCase feeds the documents of a directory tree into an Index.
type IngestUseCase struct {
	index  *Index
	walker *fs.Walker
	log    *slog.Logger
}

func NewIngestUseCase(index *Index, walker *fs.Walker, log *slog.Logger) *IngestUseCase {
	if log == nil {
		log = logging.Discard()
	}
	return &IngestUseCase{index: index, walker: walker, log: log}
}

// IngestResult contains the results of an ingest run.
type IngestResult struct {
	FilesAdded   int
	FilesSkipped int
	FilesFailed  int
	Chunks       int
	Errors       []string
}

// Ingest adds every matching file under root as a document whose id is its
// slash-separated path relative to root. Unreadable files are reported and
// skipped. It does not build the index.
func (u *IngestUseCase) Ingest(root string, chunkSize, overlap int, force bool) (*IngestResult, error) {
	sources, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	result := &IngestResult{}
	for _, src := range sources {
		text, err := fs.ReadText(src.Path)
		if err != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", src.ID, err))
			u.log.Warn("file_read_failed", slog.String("path", src.Path), slog.String("error", err.Error()))
			continue
		}

		added, err := u.index.AddDocument(src.ID, text, chunkSize, overlap, force)
		if err != nil {
			return result, err
		}
		if added.Skipped {
			result.FilesSkipped++
			continue
		}
		result.FilesAdded++
		result.Chunks += added.Chunks
	}

	u.log.Info("ingest_complete",
		slog.String("root", root),
		slog.Int("added", result.FilesAdded),
		slog.Int("skipped", result.FilesSkipped),
		slog.Int("failed", result.FilesFailed),
		slog.Int("chunks", result.Chunks))
	return result, nil
}
