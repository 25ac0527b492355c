// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"rebuilder-go/internal/config"
	"rebuilder-go/internal/model"
	"rebuilder-go/pkg/log"
	"rebuilder-go/pkg/rebrickable"
)

// 导出工具在 CSV 末尾附带的汇总尾部行数，无条件丢弃。
const trailerRowCount = 4

// InventoryService 定义了零件清单解析的操作接口。
type InventoryService interface {
	// ParseInventory 将零件清单 CSV 文本解析为带目录图片的零件列表。
	ParseInventory(ctx context.Context, csvText string) (*model.PartList, error)
}

type inventoryService struct {
	normalizer *PartNormalizer
	resolver   *ImageResolver
	cfg        config.InventoryConfig
}

// NewInventoryService 创建一个新的 InventoryService 实例。
func NewInventoryService(catalog rebrickable.Client, cfg config.InventoryConfig) InventoryService {
	return &inventoryService{
		normalizer: NewPartNormalizer(catalog),
		resolver:   NewImageResolver(catalog),
		cfg:        cfg,
	}
}

// ParseInventory 解析建模工具导出的零件清单 CSV。
// 流程：按表头定位列 -> 丢弃尾部汇总行 -> 逐行标准化零件号 ->
// 一次性解析图片地址 -> 组装零件列表并统计模型零件总数。
func (s *inventoryService) ParseInventory(ctx context.Context, csvText string) (*model.PartList, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Message: "零件清单 CSV 解析失败", Err: err}
	}
	if len(records) == 0 {
		return nil, &ParseError{Message: "零件清单 CSV 内容为空"}
	}

	partCol, err := columnIndex(records[0], s.cfg.PartIDColumn)
	if err != nil {
		return nil, err
	}
	qtyCol, err := columnIndex(records[0], s.cfg.QuantityColumn)
	if err != nil {
		return nil, err
	}
	colorCol, err := columnIndex(records[0], s.cfg.ColorColumn)
	if err != nil {
		return nil, err
	}

	rows := records[1:]
	if len(rows) <= trailerRowCount {
		rows = nil
	} else {
		rows = rows[:len(rows)-trailerRowCount]
	}

	inventory := make([]model.InventoryRow, 0, len(rows))
	for _, row := range rows {
		quantity := 0
		if qtyCol < len(row) {
			// 数量无法解析时按 0 计，保留该行以便前端展示
			if q, err := strconv.Atoi(strings.TrimSpace(row[qtyCol])); err == nil {
				quantity = q
			}
		}
		inventory = append(inventory, model.InventoryRow{
			VendorPartID: fieldAt(row, partCol),
			Quantity:     quantity,
			ColorName:    fieldAt(row, colorCol),
		})
	}

	canonicalIDs := make([]string, len(inventory))
	for i, row := range inventory {
		canonical, err := s.normalizer.Normalize(ctx, row.VendorPartID)
		if err != nil {
			return nil, err
		}
		canonicalIDs[i] = canonical
	}

	budget := NewFallbackBudget(s.cfg.ImageFallbackCap)
	images, err := s.resolver.Resolve(ctx, canonicalIDs, budget)
	if err != nil {
		return nil, err
	}

	partList := &model.PartList{Parts: make([]model.ResolvedPart, len(inventory))}
	for i, row := range inventory {
		partList.Parts[i] = model.ResolvedPart{
			CanonicalPartID: canonicalIDs[i],
			Quantity:        row.Quantity,
			ColorName:       row.ColorName,
			ImageURL:        images[canonicalIDs[i]],
		}
		partList.ModelPartCount += row.Quantity
	}

	log.Infof("[ParseInventory] 解析零件清单完成, 零件行数: %d, 模型零件总数: %d, 剩余回退额度: %d",
		len(partList.Parts), partList.ModelPartCount, budget.Remaining())
	return partList, nil
}

// columnIndex 在表头中查找指定列名的下标。
func columnIndex(header []string, name string) (int, error) {
	for i, col := range header {
		if strings.TrimSpace(col) == name {
			return i, nil
		}
	}
	return 0, &ParseError{Message: fmt.Sprintf("零件清单 CSV 缺少列: %s", name)}
}

func fieldAt(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
