// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Backend writes whole objects under slash-separated keys such as
// "metadata/xml/36912345.xml". Put overwrites existing objects and returns
// the location the object was written to.
type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// FSBackend stores objects as files under Root. Each file is written to a
// temporary name and renamed into place, so readers see either the old
// content, the new content, or nothing.
type FSBackend struct {
	Root string
}

// NewFSBackend returns a backend rooted at dir.
func NewFSBackend(dir string) *FSBackend {
	return &FSBackend{Root: dir}
}

// Put writes data to Root/key, creating parent directories as needed.
func (b *FSBackend) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	destPath, err := b.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".store-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("setting file mode: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, nil
}

// path maps key into Root, rejecting keys that would escape it.
func (b *FSBackend) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(b.Root, clean), nil
}
