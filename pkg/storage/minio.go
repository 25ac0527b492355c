// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"rebuilder-go/internal/config"
	"rebuilder-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage 抽象了投稿资源文件所需的对象存储操作。
// 业务层只依赖这个接口，便于在测试中替换实现。
type ObjectStorage interface {
	// Upload 上传一个对象并返回其公开访问 URL。同名对象会被覆盖。
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	// Fetch 获取一个对象的内容流，调用方负责关闭。
	Fetch(ctx context.Context, objectName string) (io.ReadCloser, error)
	// Remove 删除一个对象。
	Remove(ctx context.Context, objectName string) error
	// ObjectNameFromURL 将公开访问 URL 还原为对象名。
	ObjectNameFromURL(rawURL string) (string, error)
}

// minioStorage 是 ObjectStorage 接口的 MinIO 实现。
type minioStorage struct {
	client *minio.Client
	cfg    config.MinIOConfig
}

// NewMinIOStorage 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewMinIOStorage(cfg config.MinIOConfig) (ObjectStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}

	// 检查存储桶是否存在，不存在则创建
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
	}

	log.Info("MinIO 客户端初始化成功")
	return &minioStorage{client: client, cfg: cfg}, nil
}

// baseURL 返回存储桶的公开访问前缀，例如 http://host:9000/bucket。
func (s *minioStorage) baseURL() string {
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, s.cfg.Endpoint, s.cfg.BucketName)
}

// Upload 将对象写入存储桶并返回公开访问 URL。
func (s *minioStorage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.cfg.BucketName, objectName, reader, size, opts); err != nil {
		return "", fmt.Errorf("上传对象 %s 失败: %w", objectName, err)
	}
	return s.baseURL() + "/" + objectName, nil
}

// Fetch 获取对象内容流。
func (s *minioStorage) Fetch(ctx context.Context, objectName string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.cfg.BucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s 失败: %w", objectName, err)
	}
	return object, nil
}

// Remove 从存储桶中删除对象。
func (s *minioStorage) Remove(ctx context.Context, objectName string) error {
	return s.client.RemoveObject(ctx, s.cfg.BucketName, objectName, minio.RemoveObjectOptions{})
}

// ObjectNameFromURL 将公开访问 URL 还原为对象名。
// URL 不属于本存储桶时返回错误。
func (s *minioStorage) ObjectNameFromURL(rawURL string) (string, error) {
	prefix := s.baseURL() + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", fmt.Errorf("URL 不属于当前存储桶: %s", rawURL)
	}
	objectName := strings.TrimPrefix(rawURL, prefix)
	if objectName == "" {
		return "", fmt.Errorf("URL 缺少对象名: %s", rawURL)
	}
	return objectName, nil
}
