// Package storage keeps images uploaded for captioning and voice questions.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("image not found")
	ErrInvalidKey = errors.New("invalid image key")
	ErrNotAnImage = errors.New("content type is not an image")
	ErrTooLarge   = errors.New("image too large")
	ErrEmpty      = errors.New("image is empty")
)

const (
	keyPrefix    = "images"
	MaxImageSize = 10 << 20
)

type Image struct {
	Data        []byte
	ContentType string
}

type ImageStore interface {
	Save(ctx context.Context, contentType string, r io.Reader) (string, error)
	Load(ctx context.Context, key string) (*Image, error)
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}

func contentTypeFor(key string) string {
	switch path.Ext(key) {
	case ".jpg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

func newKey(contentType string) string {
	return path.Join(keyPrefix, uuid.NewString()+extFor(contentType))
}

// validKey accepts only keys produced by newKey.
func validKey(key string) bool {
	dir, file := path.Split(key)
	if dir != keyPrefix+"/" {
		return false
	}
	id := strings.TrimSuffix(file, path.Ext(file))
	_, err := uuid.Parse(id)
	return err == nil
}

// readImage enforces the content type and size limit.
func readImage(contentType string, r io.Reader) ([]byte, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotAnImage
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxImageSize {
		return nil, ErrTooLarge
	}
	return data, nil
}
