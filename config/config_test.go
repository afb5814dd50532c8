package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DRAFT_MAX_EDIT_SESSIONS", "")
	t.Setenv("EDITOR_TITLE_DEBOUNCE", "")

	cfg := FromEnv()

	assert.Equal(t, 2, cfg.MaxEditSessions)
	assert.Equal(t, 300*time.Millisecond, cfg.TitleDebounce)
	assert.Equal(t, 400*time.Millisecond, cfg.ContentDebounce)
	assert.Equal(t, 1400, cfg.MinCoverDimension)
	assert.Equal(t, 3, cfg.QueryRetries)
	assert.Equal(t, 233, cfg.AlbumCategoryID)
	assert.Equal(t, "dark", Theme)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DRAFT_BACKEND", "redis")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("EDITOR_CONTENT_DEBOUNCE", "1s")

	cfg := FromEnv()

	assert.Equal(t, "redis", cfg.DraftBackend)
	assert.Equal(t, 4, cfg.RedisDB)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, time.Second, cfg.ContentDebounce)
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "four")
	t.Setenv("MINIO_USE_SSL", "maybe")
	t.Setenv("EDITOR_TITLE_DEBOUNCE", "soon")

	cfg := FromEnv()

	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.MinioUseSSL)
	assert.Equal(t, 300*time.Millisecond, cfg.TitleDebounce)
}
