package storage

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisk_SaveLoad(t *testing.T) {
	t.Parallel()

	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key, err := d.Save(ctx, "image/png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	img, err := d.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), img.Data)
	assert.Equal(t, "image/png", img.ContentType)
}

func TestDisk_Rejections(t *testing.T) {
	t.Parallel()

	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = d.Save(ctx, "text/plain", strings.NewReader("hello"))
	require.ErrorIs(t, err, ErrNotAnImage)

	_, err = d.Save(ctx, "image/jpeg", strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmpty)

	_, err = d.Save(ctx, "image/jpeg", bytes.NewReader(make([]byte, MaxImageSize+1)))
	require.ErrorIs(t, err, ErrTooLarge)

	for _, key := range []string{"../etc/passwd", "images/../../x", "images/not-a-uuid.png", "other/" + strings.Repeat("a", 36)} {
		_, err = d.Load(ctx, key)
		require.ErrorIs(t, err, ErrInvalidKey, key)
	}

	_, err = d.Load(ctx, "images/6f1c2a7e-5c55-4a8f-9a8e-2f6a3b0c1d2e.jpg")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMinIO_Integration(t *testing.T) {
	endpoint := os.Getenv("SCRIPTORIUM_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("SCRIPTORIUM_TEST_S3_ENDPOINT is required for tests")
	}

	ctx := context.Background()
	m, err := NewMinIO(ctx, endpoint, os.Getenv("S3_ACCESS_KEY"), os.Getenv("S3_SECRET_KEY"), "scriptorium-test")
	require.NoError(t, err)

	key, err := m.Save(ctx, "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	img, err := m.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), img.Data)
	assert.Equal(t, "image/jpeg", img.ContentType)
}
