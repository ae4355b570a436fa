// Package session organizes pipeline artifacts into per-run directory trees
// and keeps a small SQLite index of past runs.
package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FileType names a session subdirectory.
type FileType string

const (
	FileTypeProducts     FileType = "products"
	FileTypeComposites   FileType = "composites"
	FileTypeFinalDesigns FileType = "final_designs"
	FileTypeAnalysis     FileType = "analysis"
	FileTypeDebug        FileType = "debug"
)

var fileTypes = []FileType{
	FileTypeProducts,
	FileTypeComposites,
	FileTypeFinalDesigns,
	FileTypeAnalysis,
	FileTypeDebug,
}

const sessionIDFormat = "2006-01-02_15-04-05"

// Session is one pipeline run's directory tree under
// <baseDir>/sessions/<id>/. Concurrent runs get distinct directories by
// construction.
type Session struct {
	ID      string
	Path    string
	baseDir string
}

// New allocates a session directory tree. An empty id defaults to the
// current timestamp plus a random suffix so concurrent runs started in the
// same second never collide.
func New(baseDir, id string) (*Session, error) {
	if id == "" {
		id = time.Now().Format(sessionIDFormat) + "_" + uuid.NewString()[:8]
	}
	s := &Session{
		ID:      id,
		Path:    filepath.Join(baseDir, "sessions", id),
		baseDir: baseDir,
	}
	for _, ft := range fileTypes {
		if err := os.MkdirAll(s.Dir(ft), 0755); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	log.Info().Str("sessionID", s.ID).Str("path", s.Path).Msg("session created")
	return s, nil
}

// Dir returns the absolute directory for a file type. Unknown types map to
// the debug directory.
func (s *Session) Dir(ft FileType) string {
	switch ft {
	case FileTypeProducts, FileTypeComposites, FileTypeFinalDesigns, FileTypeAnalysis, FileTypeDebug:
		return filepath.Join(s.Path, string(ft))
	default:
		return filepath.Join(s.Path, string(FileTypeDebug))
	}
}

// SaveBytes writes content into the file type's subdirectory and returns the
// resulting path.
func (s *Session) SaveBytes(ft FileType, name string, content []byte) (string, error) {
	path := filepath.Join(s.Dir(ft), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}
	return path, nil
}

// SaveFile copies an existing file into the file type's subdirectory and
// returns the resulting path.
func (s *Session) SaveFile(ft FileType, name, sourcePath string) (string, error) {
	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", sourcePath, err)
	}
	defer src.Close()

	path := filepath.Join(s.Dir(ft), name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy %s: %w", name, err)
	}
	return path, nil
}

// CreateLatestSymlink points <baseDir>/sessions/latest at this session,
// replacing any previous link.
func (s *Session) CreateLatestSymlink() error {
	latest := filepath.Join(s.baseDir, "sessions", "latest")
	if _, err := os.Lstat(latest); err == nil {
		if err := os.Remove(latest); err != nil {
			return fmt.Errorf("failed to remove old latest link: %w", err)
		}
	}
	if err := os.Symlink(s.Path, latest); err != nil {
		return fmt.Errorf("failed to create latest link: %w", err)
	}
	return nil
}

// Prune removes session directories under baseDir older than maxAge,
// skipping the latest symlink. Returns the number of sessions removed.
func Prune(baseDir string, maxAge time.Duration) (int, error) {
	sessionsDir := filepath.Join(baseDir, "sessions")
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read sessions dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "latest" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(filepath.Join(sessionsDir, entry.Name())); err != nil {
				log.Warn().Err(err).Str("session", entry.Name()).Msg("failed to prune session")
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("pruned old sessions")
	}
	return removed, nil
}
