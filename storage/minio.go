// Package storage 把上传的媒体文件保存到 MinIO 存储桶
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"trackdesk/config"
	"trackdesk/core/media"
	"trackdesk/logger"
)

// UploadPrefix 是所有上传对象的键前缀
const UploadPrefix = "uploads/"

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string
}

// MinioStore 绑定单个存储桶的 MinIO 客户端，实现 media.Uploader
type MinioStore struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
	now       func() time.Time
}

// NewMinioStore 根据配置创建存储
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	publicURL := strings.TrimRight(cfg.MinioPublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.MinioEndpoint
	}

	logger.Info("MinIO客户端创建成功",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	return &MinioStore{
		client:    client,
		bucket:    cfg.MinioBucket,
		region:    cfg.MinioRegion,
		publicURL: publicURL,
		now:       time.Now,
	}, nil
}

// Bucket 返回存储桶名称
func (s *MinioStore) Bucket() string { return s.bucket }

// EnsureBucket 存储桶不存在时创建
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if exists {
		logger.Debug("存储桶已存在", logger.String("bucket", s.bucket))
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	logger.Info("存储桶创建成功", logger.String("bucket", s.bucket))
	return nil
}

// ObjectName 为文件生成 uploads/YYYY/MM/<uuid><ext> 形式的对象名
func ObjectName(fileName string, at time.Time) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("%s%04d/%02d/%s%s", UploadPrefix, at.Year(), int(at.Month()), uuid.NewString(), ext)
}

// Upload 保存文件并返回公开访问地址
func (s *MinioStore) Upload(ctx context.Context, f media.File) (string, error) {
	name := ObjectName(f.Name, s.now())
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(f.Data), int64(len(f.Data)), minio.PutObjectOptions{
		ContentType: f.DetectContentType(),
		UserMetadata: map[string]string{
			"original-name": f.Name,
		},
	})
	if err != nil {
		return "", fmt.Errorf("上传文件失败 %s: %w", f.Name, err)
	}
	url := s.ObjectURL(name)
	logger.Info("媒体文件已保存", logger.String("object", name), logger.Int("size", len(f.Data)))
	return url, nil
}

// ObjectURL 返回对象的公开访问地址
func (s *MinioStore) ObjectURL(key string) string {
	return s.publicURL + "/" + s.bucket + "/" + key
}

// ListObjects 按修改时间倒序列出前缀下的对象，并返回统计信息
func (s *MinioStore) ListObjects(ctx context.Context, prefix string, recursive bool) ([]ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []ObjectInfo

	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	}) {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("列出对象时出错: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
			ETag:         object.ETag,
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	return objects, stats, nil
}

// FormatSize 格式化文件大小，供命令行输出
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
