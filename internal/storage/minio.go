package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIO struct {
	client *mclient.Client
	bucket string
}

// NewMinIO connects to an S3-compatible endpoint and checks the bucket,
// creating it when missing.
func NewMinIO(ctx context.Context, endpoint, accessKey, secretKey, bucket string) (*MinIO, error) {
	const op = "storage/minio/New"

	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, mclient.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%s: make bucket %q: %w", op, bucket, err)
		}
	}

	return &MinIO{client: client, bucket: bucket}, nil
}

func (m *MinIO) Save(ctx context.Context, contentType string, r io.Reader) (string, error) {
	data, err := readImage(contentType, r)
	if err != nil {
		return "", err
	}

	key := newKey(contentType)
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		mclient.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("storage/minio/Save: %w", err)
	}
	return key, nil
}

func (m *MinIO) Load(ctx context.Context, key string) (*Image, error) {
	const op = "storage/minio/Load"

	if !validKey(key) {
		return nil, ErrInvalidKey
	}

	obj, err := m.client.GetObject(ctx, m.bucket, key, mclient.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := mclient.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.StatusCode == 404 {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ct := contentTypeFor(key)
	if info, err := obj.Stat(); err == nil && info.ContentType != "" {
		ct = info.ContentType
	}
	return &Image{Data: data, ContentType: ct}, nil
}
