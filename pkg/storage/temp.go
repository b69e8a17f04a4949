package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sdejongh/ddiff/pkg/logging"
)

// TempScope owns a private temporary directory for one diff run.
// Container engines materialize children into it right before diffing
// them and remove them right after. Close removes whatever is left.
type TempScope struct {
	dir    string
	logger logging.Logger

	mu   sync.Mutex
	live map[string]struct{}
}

// NewTempScope creates a uniquely named directory under parent
// (the system temp directory when parent is empty)
func NewTempScope(parent string, logger logging.Logger) (*TempScope, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	dir := filepath.Join(parent, "ddiff-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TempScope{
		dir:    dir,
		logger: logger,
		live:   make(map[string]struct{}),
	}, nil
}

// Dir returns the scope directory
func (s *TempScope) Dir() string {
	return s.dir
}

// Reserve returns a fresh path inside the scope whose base name ends with
// the base name of hint, so extensions survive for engine scoring.
// Nothing is created on disk.
func (s *TempScope) Reserve(hint string) string {
	base := sanitize(hint)
	path := filepath.Join(s.dir, uuid.NewString()+"-"+base)

	s.mu.Lock()
	s.live[path] = struct{}{}
	s.mu.Unlock()

	return path
}

// CreateFile writes r into a new temp file named after hint
func (s *TempScope) CreateFile(hint string, r io.Reader) (string, error) {
	path := s.Reserve(hint)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		s.Remove(context.Background(), path)
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		s.Remove(context.Background(), path)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		s.Remove(context.Background(), path)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	return path, nil
}

// CopyFile copies src into a new writable temp file named after src
func (s *TempScope) CopyFile(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	return s.CreateFile(filepath.Base(src), in)
}

// Remove deletes a temp artifact. Failures are logged and otherwise ignored.
func (s *TempScope) Remove(ctx context.Context, path string) {
	if path == "" {
		return
	}

	s.mu.Lock()
	delete(s.live, path)
	s.mu.Unlock()

	if err := os.RemoveAll(path); err != nil {
		s.logger.Debug(ctx, "failed to remove temp artifact", logging.Fields{
			"path":  path,
			"error": err.Error(),
		})
	}
}

// Live returns the artifacts reserved and not yet removed
func (s *TempScope) Live() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.live))
	for p := range s.live {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Close removes the scope directory and everything in it
func (s *TempScope) Close() error {
	s.mu.Lock()
	s.live = make(map[string]struct{})
	s.mu.Unlock()

	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove temp directory: %w", err)
	}
	return nil
}

// sanitize flattens archive member paths into a single file name
func sanitize(name string) string {
	name = strings.NewReplacer("\\", "_", "/", "_", ":", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "item"
	}
	return name
}
