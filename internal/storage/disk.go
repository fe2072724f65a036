package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Disk stores images under a local directory. Used when S3_ENDPOINT is
// empty.
type Disk struct {
	Root string
}

func NewDisk(root string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Join(root, keyPrefix), 0o755); err != nil {
		return nil, fmt.Errorf("storage/disk: %w", err)
	}
	return &Disk{Root: root}, nil
}

func (d *Disk) Save(_ context.Context, contentType string, r io.Reader) (string, error) {
	data, err := readImage(contentType, r)
	if err != nil {
		return "", err
	}

	key := newKey(contentType)
	if err := os.WriteFile(filepath.Join(d.Root, filepath.FromSlash(key)), data, 0o644); err != nil {
		return "", fmt.Errorf("storage/disk: write: %w", err)
	}
	return key, nil
}

func (d *Disk) Load(_ context.Context, key string) (*Image, error) {
	if !validKey(key) {
		return nil, ErrInvalidKey
	}

	data, err := os.ReadFile(filepath.Join(d.Root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage/disk: read: %w", err)
	}
	return &Image{Data: data, ContentType: contentTypeFor(key)}, nil
}
