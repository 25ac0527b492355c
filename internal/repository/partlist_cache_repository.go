// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rebuilder-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// 已持久化投稿的零件清单缓存有效期。
// 注意：解析过程内部的图片解析缓存仍是进程内、单次解析作用域的，
// 这里缓存的是已入库投稿的最终解析结果，避免每次查看都重放目录请求。
const partListCacheTTL = 24 * time.Hour

// PartListCacheRepository 定义了投稿零件清单缓存的操作接口。
type PartListCacheRepository interface {
	Get(ctx context.Context, submissionID string) (*model.PartList, error)
	Set(ctx context.Context, submissionID string, partList *model.PartList) error
	Delete(ctx context.Context, submissionID string) error
}

type redisPartListCacheRepository struct {
	redisClient *redis.Client
}

// NewPartListCacheRepository 创建一个新的 PartListCacheRepository 实例。
func NewPartListCacheRepository(redisClient *redis.Client) PartListCacheRepository {
	return &redisPartListCacheRepository{redisClient: redisClient}
}

func (r *redisPartListCacheRepository) key(submissionID string) string {
	return "partlist:" + submissionID
}

// Get 从 Redis 获取缓存的零件清单，未命中时返回 (nil, nil)。
func (r *redisPartListCacheRepository) Get(ctx context.Context, submissionID string) (*model.PartList, error) {
	jsonData, err := r.redisClient.Get(ctx, r.key(submissionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取零件清单缓存失败: %w", err)
	}

	var partList model.PartList
	if err := json.Unmarshal([]byte(jsonData), &partList); err != nil {
		return nil, fmt.Errorf("解析零件清单缓存失败: %w", err)
	}
	return &partList, nil
}

// Set 将零件清单写入 Redis 缓存。
func (r *redisPartListCacheRepository) Set(ctx context.Context, submissionID string, partList *model.PartList) error {
	jsonData, err := json.Marshal(partList)
	if err != nil {
		return fmt.Errorf("序列化零件清单失败: %w", err)
	}
	if err := r.redisClient.Set(ctx, r.key(submissionID), jsonData, partListCacheTTL).Err(); err != nil {
		return fmt.Errorf("写入零件清单缓存失败: %w", err)
	}
	return nil
}

// Delete 删除投稿对应的零件清单缓存。
func (r *redisPartListCacheRepository) Delete(ctx context.Context, submissionID string) error {
	return r.redisClient.Del(ctx, r.key(submissionID)).Err()
}
