package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trackdesk/model"
)

// DraftRepository 草稿数据访问接口
type DraftRepository interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Keys() ([]string, error)

	// List 按更新时间倒序返回所有草稿
	List(ctx context.Context) ([]model.DraftEntry, error)
	// DeleteOlderThan 删除 cutoff 之后未再更新的草稿
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// gormDraftRepository GORM 实现，同时满足 draft.KV
type gormDraftRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormDraftRepository 创建 GORM 草稿仓库
func NewGormDraftRepository(db *gorm.DB) DraftRepository {
	return &gormDraftRepository{db: db, timeout: 5 * time.Second}
}

func (r *gormDraftRepository) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

// Get 读取草稿
func (r *gormDraftRepository) Get(key string) (string, bool, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	var entry model.DraftEntry
	err := r.db.WithContext(ctx).Where("session_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("读取草稿 %s 失败: %w", key, err)
	}
	return entry.Snapshot, true, nil
}

// Set 写入草稿，存在则覆盖
func (r *gormDraftRepository) Set(key, value string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	entry := model.DraftEntry{SessionKey: key, Snapshot: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"snapshot", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("写入草稿 %s 失败: %w", key, err)
	}
	return nil
}

// Remove 删除草稿
func (r *gormDraftRepository) Remove(key string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.db.WithContext(ctx).Where("session_key = ?", key).Delete(&model.DraftEntry{}).Error; err != nil {
		return fmt.Errorf("删除草稿 %s 失败: %w", key, err)
	}
	return nil
}

// Keys 列出所有草稿键
func (r *gormDraftRepository) Keys() ([]string, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	var keys []string
	err := r.db.WithContext(ctx).Model(&model.DraftEntry{}).
		Order("session_key").
		Pluck("session_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("列出草稿键失败: %w", err)
	}
	return keys, nil
}

func (r *gormDraftRepository) List(ctx context.Context) ([]model.DraftEntry, error) {
	var entries []model.DraftEntry
	err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&entries).Error
	return entries, err
}

func (r *gormDraftRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&model.DraftEntry{})
	return res.RowsAffected, res.Error
}
