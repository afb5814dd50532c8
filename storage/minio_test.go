package storage

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackdesk/config"
)

func TestObjectName(t *testing.T) {
	at := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

	name := ObjectName("Cover Art.PNG", at)

	assert.Regexp(t, regexp.MustCompile(`^uploads/2026/03/[0-9a-f-]{36}\.png$`), name)
	assert.NotEqual(t, name, ObjectName("Cover Art.PNG", at))
}

func TestObjectURL(t *testing.T) {
	store, err := NewMinioStore(&config.Config{
		MinioEndpoint:  "minio.local:9000",
		MinioBucket:    "media",
		MinioPublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/media/uploads/a.png", store.ObjectURL("uploads/a.png"))
	assert.Equal(t, "media", store.Bucket())
}

func TestObjectURL_DefaultsToEndpoint(t *testing.T) {
	store, err := NewMinioStore(&config.Config{
		MinioEndpoint: "minio.local:9000",
		MinioBucket:   "media",
		MinioUseSSL:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://minio.local:9000/media/k", store.ObjectURL("k"))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.50 KB", FormatSize(1536))
	assert.Equal(t, "2.00 MB", FormatSize(2*1024*1024))
}
