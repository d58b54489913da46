package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// PhotoStore persists captured face images. Save returns an opaque reference
// used in attendance records and for rollback if the enrollment transaction
// fails.
type PhotoStore interface {
	Save(ctx context.Context, name string, data []byte) (ref string, err error)
	Remove(ctx context.Context, ref string) error
}

// DiskStore keeps photos as flat files under a root directory.
type DiskStore struct {
	root   string
	logger *slog.Logger
}

func NewDiskStore(root string, logger *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create photo directory: %w", err)
	}
	return &DiskStore{
		root:   root,
		logger: logger.With("component", "photos"),
	}, nil
}

func (s *DiskStore) Save(_ context.Context, name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	s.logger.Debug("photo saved", "ref", name, "bytes", len(data))
	return name, nil
}

// Remove deletes a stored photo. A missing file is not an error so rollback
// paths can call it unconditionally.
func (s *DiskStore) Remove(_ context.Context, ref string) error {
	if err := validName(ref); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, ref))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}

// validName rejects references that would escape the store's root.
func validName(name string) error {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid photo name %q", name)
	}
	return nil
}
