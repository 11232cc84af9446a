package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lagimmo/api/internal/config"
)

func TestPublicReadPolicy(t *testing.T) {
	raw, err := PublicReadPolicy("properties")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "2012-10-17", decoded["Version"])

	stmt := decoded["Statement"].([]any)[0].(map[string]any)
	assert.Equal(t, "PublicReadGetObject", stmt["Sid"])
	assert.Equal(t, "Allow", stmt["Effect"])
	assert.Equal(t, []any{"s3:GetObject"}, stmt["Action"])
	assert.Equal(t, []any{"arn:aws:s3:::properties/*"}, stmt["Resource"])
	assert.Equal(t, map[string]any{"AWS": []any{"*"}}, stmt["Principal"])
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://minio.example.com/products/abc.jpg",
		PublicURL("", "minio.example.com", "products", "abc.jpg"))
	assert.Equal(t, "https://cdn.example.com/products/abc.jpg",
		PublicURL("https://cdn.example.com/", "minio.example.com", "products", "abc.jpg"))
}

func TestNewObjectStoreStripsScheme(t *testing.T) {
	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:  "https://minio.example.com",
		AccessKey: "key",
		SecretKey: "secret",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://minio.example.com/support/x.pdf", store.PublicURL("support", "x.pdf"))
}
