package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/major/arxivwatch/internal/domain"
	"github.com/major/arxivwatch/internal/ports"
)

// FileStore keeps the notified paper IDs in a JSON document on disk.
// A missing file is the first-run signal; an unreadable or corrupt
// existing file is run-fatal because trusting it would break dedup.
type FileStore struct {
	path   string
	logger *slog.Logger
}

var _ ports.StateStore = (*FileStore)(nil)

type stateDocument struct {
	NotifiedIDs []string `json:"notified_ids"`
}

// NewFileStore wires a store at the given path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load reads the notified set from disk. A missing file yields an empty
// set and nil error.
func (s *FileStore) Load() (*domain.NotifiedSet, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.debug("no existing state file found, starting fresh", "path", s.path)
		return domain.NewNotifiedSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStateUnavailable, s.path, err)
	}

	var doc stateDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrStateUnavailable, s.path, err)
	}

	s.debug("loaded notified paper ids", "count", len(doc.NotifiedIDs))
	return domain.NewNotifiedSet(doc.NotifiedIDs...), nil
}

// Save writes the set atomically: the document lands in a temp file in
// the target directory and is renamed over the destination, so a crash
// mid-save never leaves a truncated store. Saving the same set twice
// produces byte-identical content.
func (s *FileStore) Save(set *domain.NotifiedSet) error {
	doc := stateDocument{NotifiedIDs: set.SortedIDs()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", domain.ErrStateUnavailable, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrStateUnavailable, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".notified-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %v", domain.ErrStateUnavailable, dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", domain.ErrStateUnavailable, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: sync %s: %v", domain.ErrStateUnavailable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", domain.ErrStateUnavailable, tmpName, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", domain.ErrStateUnavailable, s.path, err)
	}

	s.debug("saved notified paper ids", "count", set.Len(), "path", s.path)
	return nil
}

func (s *FileStore) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
