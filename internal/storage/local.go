// Package storage implements the local filesystem blob store used to
// persist article metadata, search summaries, and downloaded PDFs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Well-known directories under the store base path. Callers build relative
// paths from these when saving blobs.
const (
	PDFDir            = "pdfs"
	XMLMetadataDir    = "metadata/xml"
	SummaryDir        = "metadata/summary"
	SearchResultsDir  = "metadata/searches"
	defaultPermission = 0o755
)

// LocalStore writes blobs under a single base directory. Saves overwrite
// whatever is already at the target path; a re-fetch of the same record
// replaces the previous copy.
type LocalStore struct {
	basePath string
	logger   zerolog.Logger
}

// New creates a LocalStore rooted at basePath and provisions the standard
// directory layout.
func New(basePath string, logger zerolog.Logger) (*LocalStore, error) {
	store := &LocalStore{
		basePath: basePath,
		logger:   logger.With().Str("component", "local_store").Logger(),
	}
	if err := store.ensureDirectories(); err != nil {
		return nil, err
	}
	return store, nil
}

// BasePath returns the root directory of the store.
func (s *LocalStore) BasePath() string {
	return s.basePath
}

// Save writes content to relPath under the base directory, creating parent
// directories as needed. It reports success; failures are logged and
// swallowed so that one bad write never aborts a batch.
func (s *LocalStore) Save(content []byte, relPath string) bool {
	target := filepath.Join(s.basePath, relPath)

	if err := os.MkdirAll(filepath.Dir(target), defaultPermission); err != nil {
		s.logger.Error().Err(err).Str("path", target).Msg("failed to create parent directory")
		return false
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		s.logger.Error().Err(err).Str("path", target).Msg("failed to write blob")
		return false
	}

	s.logger.Debug().Str("path", target).Int("size_bytes", len(content)).Msg("blob saved")
	return true
}

func (s *LocalStore) ensureDirectories() error {
	for _, dir := range []string{PDFDir, XMLMetadataDir, SummaryDir, SearchResultsDir} {
		path := filepath.Join(s.basePath, dir)
		if err := os.MkdirAll(path, defaultPermission); err != nil {
			return fmt.Errorf("failed to create storage directory %s: %w", path, err)
		}
	}
	return nil
}
