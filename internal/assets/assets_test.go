package assets

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitesketch/internal/config"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("")

	url, err := m.UploadAsset(ctx, "sketches/a b/overlay.png", []byte{1, 2, 3}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://assets.invalid/sketches/a%20b/overlay.png", url)
	assert.Equal(t, "image/png", m.ContentType(url))

	data, err := m.FetchAsset(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	data[0] = 9
	again, _ := m.FetchAsset(ctx, url)
	assert.Equal(t, byte(1), again[0], "callers get copies")

	_, err = m.FetchAsset(ctx, "https://elsewhere.test/x.png")
	assert.ErrorIs(t, err, ErrForeignURL)
	_, err = m.FetchAsset(ctx, "https://assets.invalid/nothing")
	assert.Error(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestEscapeKey(t *testing.T) {
	assert.Equal(t, "a/b%3Fc/d.png", escapeKey("a/b?c/d.png"))
}

func TestMinIOStoreRequiresEndpoint(t *testing.T) {
	_, err := NewMinIOStore(context.Background(), config.MinIO{})
	assert.Error(t, err)
}

func TestMinIOStoreRoundTrip(t *testing.T) {
	endpoint := os.Getenv("SITESKETCH_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("SITESKETCH_TEST_MINIO_ENDPOINT is not set")
	}
	ctx := context.Background()
	s, err := NewMinIOStore(ctx, config.MinIO{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("SITESKETCH_TEST_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("SITESKETCH_TEST_MINIO_SECRET_KEY"),
		Bucket:    "sitesketch-test",
	})
	require.NoError(t, err)

	url, err := s.UploadAsset(ctx, "sketches/t/overlay.png", []byte("png"), "image/png")
	require.NoError(t, err)
	data, err := s.FetchAsset(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	_, err = s.FetchAsset(ctx, "https://elsewhere.test/x.png")
	assert.ErrorIs(t, err, ErrForeignURL)
}
