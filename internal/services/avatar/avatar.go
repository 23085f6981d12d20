// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package avatar stores uploaded profile pictures on disk.
package avatar

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsupportedContentType = errors.New("unsupported content type")

// extensions maps accepted content types to file extensions.
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// Extension returns the file extension for an accepted image content type.
func Extension(contentType string) (string, error) {
	ext, ok := extensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
	return ext, nil
}

// Storage writes avatar files below a directory and derives their public URL.
type Storage struct {
	dir          string
	publicPrefix string
}

// NewStorage creates a Storage writing to dir and served under publicPrefix.
func NewStorage(dir, publicPrefix string) *Storage {
	return &Storage{
		dir:          dir,
		publicPrefix: strings.TrimSuffix(publicPrefix, "/"),
	}
}

// Dir returns the directory avatars are written to.
func (s *Storage) Dir() string {
	return s.dir
}

// PublicPrefix returns the URL prefix avatars are served under.
func (s *Storage) PublicPrefix() string {
	return s.publicPrefix
}

// FileName returns "<userID>_<first 16 hex chars of sha256(data)><ext>".
func FileName(userID int64, data []byte, ext string) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%d_%s%s", userID, hex.EncodeToString(sum[:])[:16], ext)
}

// Save writes data for the user and returns the public URL of the file.
// Identical uploads map to the same file.
func (s *Storage) Save(userID int64, contentType string, data []byte) (string, error) {
	ext, err := Extension(contentType)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create avatar dir: %w", err)
	}

	name := FileName(userID, data, ext)
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write avatar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close avatar: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	return s.publicPrefix + "/" + name, nil
}
