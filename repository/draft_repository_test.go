package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlRecorder keeps every statement gorm would have run.
type sqlRecorder struct {
	mu   sync.Mutex
	stmt []string
}

func (r *sqlRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})     {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})     {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{})    {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	r.stmt = append(r.stmt, sql)
	r.mu.Unlock()
}

func (r *sqlRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stmt) == 0 {
		return ""
	}
	return r.stmt[len(r.stmt)-1]
}

func newDryRunRepo(t *testing.T) (DraftRepository, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "trackdesk:secret@tcp(127.0.0.1:3306)/trackdesk?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, Logger: rec})
	require.NoError(t, err)
	return NewGormDraftRepository(db), rec
}

func TestDraftRepository_SetUpserts(t *testing.T) {
	repo, rec := newDryRunRepo(t)

	require.NoError(t, repo.Set("submission_page__new", `{"titleContent":"x"}`))

	sql := rec.last()
	assert.Contains(t, sql, "INSERT INTO `editor_drafts`")
	assert.Contains(t, sql, "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, sql, "`snapshot`=VALUES(`snapshot`)")
}

func TestDraftRepository_RemoveAndKeys(t *testing.T) {
	repo, rec := newDryRunRepo(t)

	require.NoError(t, repo.Remove("submission_page__edit__7"))
	assert.Contains(t, rec.last(), "DELETE FROM `editor_drafts` WHERE session_key = 'submission_page__edit__7'")

	_, err := repo.Keys()
	require.NoError(t, err)
	assert.Contains(t, rec.last(), "SELECT `session_key` FROM `editor_drafts` ORDER BY session_key")
}

func TestDraftRepository_DeleteOlderThan(t *testing.T) {
	repo, rec := newDryRunRepo(t)

	_, err := repo.DeleteOlderThan(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, rec.last(), "DELETE FROM `editor_drafts` WHERE updated_at <")
}
