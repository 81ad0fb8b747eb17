package s3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient(Config{Bucket: "photos"}, nil)
	assert.Error(t, err)
	_, err = NewClient(Config{Endpoint: "localhost:9000"}, nil)
	assert.Error(t, err)
}

func TestObjectURL(t *testing.T) {
	c, err := NewClient(Config{Endpoint: "minio:9000", PublicEndpoint: "https://cdn.example.com/", Bucket: "photos"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/photos/listings/l1/a.jpg", c.objectURL("/listings/l1/a.jpg"))

	c, err = NewClient(Config{Endpoint: "http://localhost:9000", Bucket: "photos"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/photos/x.png", c.objectURL("x.png"))
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", publicBase(Config{Endpoint: "localhost:9000"}))
	assert.Equal(t, "https://s3.example.com", publicBase(Config{Endpoint: "s3.example.com", UseSSL: true}))
	assert.Equal(t, "http://cdn.local", publicBase(Config{Endpoint: "minio:9000", PublicEndpoint: "http://cdn.local/"}))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "localhost:9000", hostOf("http://localhost:9000"))
	assert.Equal(t, "minio:9000", hostOf("minio:9000"))
}

func TestDisabledUploader(t *testing.T) {
	_, err := DisabledUploader{}.Upload(context.Background(), "a", []byte("x"), "image/png")
	assert.ErrorIs(t, err, ErrUploaderDisabled)
}
