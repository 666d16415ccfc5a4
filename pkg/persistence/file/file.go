// Package file provides the file-backed configuration store: the whole
// document lives in one JSON file and every write replaces it atomically.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tagrelay/tagrelay/pkg/persistence"
)

const documentFile = "triggers.json"

// Store implements persistence.ConfigStore on the local file system.
type Store struct {
	path   string
	logger *slog.Logger

	// mu serializes load/save within this process; cross-process writers
	// still race and rely on the version stamp.
	mu sync.Mutex
}

// NewStore creates a store rooted at the given directory.
func NewStore(root string, logger *slog.Logger) *Store {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Store{
		path:   filepath.Join(cleanRoot, documentFile),
		logger: logger,
	}
}

// Load reads and decodes the document. A slug still in the legacy shape is
// migrated and the result written back immediately; a missing file yields
// an empty document.
func (s *Store) Load(ctx context.Context) (*persistence.ConfigDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, migrated, err := s.load()
	if err != nil {
		return nil, err
	}

	if migrated {
		if err := s.write(doc, doc.Version); err != nil {
			return nil, &persistence.StoreError{Op: "Load", Err: fmt.Errorf("failed to persist migration: %w", err)}
		}

		doc.Version++
		s.logger.Info("Migrated legacy trigger configuration", "path", s.path)
	}

	return doc, nil
}

// Save writes the document, rejecting the write when the stored version no
// longer matches the version the caller loaded.
func (s *Store) Save(ctx context.Context, doc *persistence.ConfigDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, _, err := s.load()
	if err != nil {
		return err
	}

	if current.Version != doc.Version {
		return &persistence.ConflictError{Expected: doc.Version, Current: current.Version}
	}

	if err := s.write(doc, doc.Version); err != nil {
		return &persistence.StoreError{Op: "Save", Err: err}
	}

	doc.Version++

	return nil
}

// HealthCheck verifies the document directory exists.
func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. There is nothing to clean up for
// file storage.
func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) load() (*persistence.ConfigDocument, bool, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return persistence.NewConfigDocument(), false, nil
	}

	if err != nil {
		return nil, false, &persistence.StoreError{Op: "Load", Err: err}
	}

	doc, migrated, err := persistence.DecodeDocument(raw, s.logger)
	if err != nil {
		return nil, false, &persistence.StoreError{Op: "Load", Err: err}
	}

	return doc, migrated, nil
}

// write encodes the document at version+1 and replaces the file via a
// temp-file rename so readers never observe a partial write.
func (s *Store) write(doc *persistence.ConfigDocument, version int64) error {
	raw, err := persistence.EncodeDocument(doc, version+1)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), documentFile+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to write config document: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace config document: %w", err)
	}

	return nil
}
