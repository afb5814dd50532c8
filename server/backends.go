package server

import (
	"fmt"

	"trackdesk/cache"
	"trackdesk/config"
	"trackdesk/core/draft"
	"trackdesk/core/media"
	"trackdesk/db"
	"trackdesk/logger"
	"trackdesk/repository"
	"trackdesk/storage"
)

// OpenDraftKV connects the draft backend named by cfg.DraftBackend. The
// returned close func releases the connection.
func OpenDraftKV(cfg *config.Config) (draft.KV, func(), error) {
	switch cfg.DraftBackend {
	case "", "memory":
		return draft.NewMemoryKV(), func() {}, nil
	case "redis":
		if err := cache.ConnectRedis(cfg); err != nil {
			return nil, nil, fmt.Errorf("draft backend redis: %w", err)
		}
		return cache.NewRedisKV(cache.RedisClient, 0), func() {
			if err := cache.CloseRedis(); err != nil {
				logger.Warn("close redis failed", logger.ErrorField(err))
			}
		}, nil
	case "mysql":
		if err := db.ConnectGormDB(cfg); err != nil {
			return nil, nil, fmt.Errorf("draft backend mysql: %w", err)
		}
		if err := db.AutoMigrate(); err != nil {
			_ = db.CloseGormDB()
			return nil, nil, fmt.Errorf("draft backend mysql: %w", err)
		}
		return repository.NewGormDraftRepository(db.GormDB), func() {
			if err := db.CloseGormDB(); err != nil {
				logger.Warn("close database failed", logger.ErrorField(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown draft backend %q", cfg.DraftBackend)
	}
}

// NewUploader builds the media collaborator named by cfg.MediaBackend.
func NewUploader(cfg *config.Config) (media.Uploader, error) {
	switch cfg.MediaBackend {
	case "", "wordpress":
		return media.NewWordPressUploader(cfg.MediaEndpoint, cfg.TokenEndpoint, cfg.MediaUsername, cfg.MediaPassword), nil
	case "minio":
		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			return nil, fmt.Errorf("media backend minio: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}
