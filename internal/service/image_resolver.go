// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"rebuilder-go/pkg/rebrickable"
)

// FallbackBudget 限制一次清单解析中逐零件回退查询的总次数。
// 批量接口偶尔漏掉个别零件的图片，回退到逐零件查询可以补齐，
// 但大清单下不设上限会把一次解析放大成上百个目录请求。
// Take 串行化扣减，多个回退 goroutine 并发争用时也不会超额。
type FallbackBudget struct {
	mu        sync.Mutex
	remaining int
}

// NewFallbackBudget 创建一个指定额度的回退预算。
func NewFallbackBudget(capacity int) *FallbackBudget {
	return &FallbackBudget{remaining: capacity}
}

// Take 尝试占用一次回退额度，额度耗尽时返回 false。
func (b *FallbackBudget) Take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// Remaining 返回剩余的回退额度。
func (b *FallbackBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// ImageResolver 为一组零件号解析目录图片地址。
type ImageResolver struct {
	catalog rebrickable.Client
}

// NewImageResolver 创建一个新的 ImageResolver 实例。
func NewImageResolver(catalog rebrickable.Client) *ImageResolver {
	return &ImageResolver{catalog: catalog}
}

// Resolve 返回 partID -> 图片地址 的映射。
// 先对去重后的零件号发起一次批量查询，批量结果缺失的零件在预算允许时
// 并发回退到逐零件查询；同一零件号在一次解析内至多回退一次。
// 查不到的零件映射为空字符串，传输故障则使整次解析失败。
func (r *ImageResolver) Resolve(ctx context.Context, partIDs []string, budget *FallbackBudget) (map[string]string, error) {
	images := make(map[string]string)

	// 去重，空零件号不参与任何查询
	seen := make(map[string]bool)
	unique := make([]string, 0, len(partIDs))
	for _, id := range partIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return images, nil
	}

	batch, err := r.catalog.GetPartsByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("批量查询零件图片失败: %w", err)
	}

	// 先分拣：批量命中直接入表，额度内的缺失零件进入回退队列
	fallbackIDs := make([]string, 0)
	for _, id := range unique {
		if url, ok := batch[id]; ok {
			images[id] = url
			continue
		}
		if !budget.Take() {
			images[id] = ""
			continue
		}
		fallbackIDs = append(fallbackIDs, id)
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		fallbackErr error
	)
	for _, id := range fallbackIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			part, err := r.catalog.GetPartByBricklinkID(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				images[id] = ""
				if !errors.Is(err, rebrickable.ErrNotFound) && fallbackErr == nil {
					fallbackErr = err
				}
				return
			}
			images[id] = part.PartImgURL
		}(id)
	}
	wg.Wait()

	if fallbackErr != nil {
		return nil, fmt.Errorf("回退查询零件图片失败: %w", fallbackErr)
	}
	return images, nil
}
