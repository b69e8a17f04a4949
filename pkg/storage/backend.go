package storage

import (
	"context"
)

// FileInfo describes one directory entry
type FileInfo struct {
	Name  string
	Path  string
	Size  int64
	IsDir bool
}

// Backend lists a directory tree the differ walks
type Backend interface {
	// ReadDir returns the immediate children of a directory relative to the root
	ReadDir(ctx context.Context, path string) ([]FileInfo, error)

	// Close releases any resources held by the backend
	Close() error
}
