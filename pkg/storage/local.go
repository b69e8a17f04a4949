package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local is a filesystem-based storage backend
type Local struct {
	rootPath string
}

// NewLocal creates a new local filesystem backend
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	return &Local{rootPath: absPath}, nil
}

// ReadDir returns the immediate children of a directory
func (l *Local) ReadDir(ctx context.Context, path string) ([]FileInfo, error) {
	fullPath := filepath.Join(l.rootPath, path)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		entryPath := filepath.Join(fullPath, entry.Name())

		// Follow symlinks so a linked directory is walked like a real one
		info, err := os.Stat(entryPath)
		if err != nil {
			info, err = entry.Info()
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", entryPath, err)
			}
		}

		files = append(files, toFileInfo(entryPath, info))
	}

	return files, nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

func toFileInfo(path string, info fs.FileInfo) FileInfo {
	return FileInfo{
		Name:  info.Name(),
		Path:  path,
		Size:  info.Size(),
		IsDir: info.IsDir(),
	}
}

// Kind classifies a path for engine scoring
type Kind int

const (
	KindMissing Kind = iota
	KindFile
	KindDir
	KindOther
)

// KindOf returns what a path points to, following symlinks
func KindOf(path string) Kind {
	info, err := os.Stat(path)
	if err != nil {
		return KindMissing
	}
	switch {
	case info.IsDir():
		return KindDir
	case info.Mode().IsRegular():
		return KindFile
	default:
		return KindOther
	}
}

// ReadHead returns up to n bytes from the start of a file
func ReadHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}
