package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rebuilder-go/internal/config"
)

func testInventoryConfig() config.InventoryConfig {
	return config.InventoryConfig{
		PartIDColumn:     "LdrawId",
		QuantityColumn:   "Qty",
		ColorColumn:      "ColorName",
		ImageFallbackCap: 10,
	}
}

// 建模工具导出的 CSV 末尾带 4 行汇总尾部
const testCSV = `LdrawId,Qty,ColorName
3001,4,Red
3002,2,Blue
3001,1,Yellow
,,
Total,7,
Models,1,
Exported,,
`

func TestParseInventory(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.batch["3001"] = "http://img/3001.png"
	catalog.batch["3002"] = "http://img/3002.png"
	svc := NewInventoryService(catalog, testInventoryConfig())

	partList, err := svc.ParseInventory(context.Background(), testCSV)
	if err != nil {
		t.Fatalf("ParseInventory 返回错误: %v", err)
	}

	if len(partList.Parts) != 3 {
		t.Fatalf("零件行数 = %d, 期望 3（尾部 4 行应被丢弃）", len(partList.Parts))
	}
	if partList.ModelPartCount != 7 {
		t.Errorf("ModelPartCount = %d, 期望 7", partList.ModelPartCount)
	}

	first := partList.Parts[0]
	if first.CanonicalPartID != "3001" || first.Quantity != 4 || first.ColorName != "Red" {
		t.Errorf("第一行解析错误: %+v", first)
	}
	if first.ImageURL != "http://img/3001.png" {
		t.Errorf("第一行图片 = %q, 期望批量查询结果", first.ImageURL)
	}
	// 同一零件号的不同颜色行共享同一张图片
	if partList.Parts[2].ImageURL != "http://img/3001.png" {
		t.Errorf("重复零件号应复用图片: %+v", partList.Parts[2])
	}
}

func TestParseInventoryBadQuantity(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewInventoryService(catalog, testInventoryConfig())

	csvText := "LdrawId,Qty,ColorName\n" +
		"3001,abc,Red\n" +
		"3002,2,Blue\n" +
		"t1,,\nt2,,\nt3,,\nt4,,\n"
	partList, err := svc.ParseInventory(context.Background(), csvText)
	if err != nil {
		t.Fatalf("ParseInventory 返回错误: %v", err)
	}

	if len(partList.Parts) != 2 {
		t.Fatalf("零件行数 = %d, 期望 2", len(partList.Parts))
	}
	// 无法解析的数量按 0 计，行保留
	if partList.Parts[0].Quantity != 0 {
		t.Errorf("坏数量应按 0 计, 实际: %d", partList.Parts[0].Quantity)
	}
	if partList.ModelPartCount != 2 {
		t.Errorf("ModelPartCount = %d, 期望 2", partList.ModelPartCount)
	}
}

func TestParseInventoryMissingColumn(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewInventoryService(catalog, testInventoryConfig())

	_, err := svc.ParseInventory(context.Background(), "Foo,Bar\n1,2\n")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("缺少列时应返回 ParseError, 实际: %v", err)
	}
}

func TestParseInventoryOnlyTrailerRows(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewInventoryService(catalog, testInventoryConfig())

	// 数据行数不超过尾部行数时全部丢弃
	csvText := "LdrawId,Qty,ColorName\nt1,,\nt2,,\nt3,,\nt4,,\n"
	partList, err := svc.ParseInventory(context.Background(), csvText)
	if err != nil {
		t.Fatalf("ParseInventory 返回错误: %v", err)
	}
	if len(partList.Parts) != 0 || partList.ModelPartCount != 0 {
		t.Errorf("只有尾部行时结果应为空: %+v", partList)
	}
	if catalog.batchCalls != 0 {
		t.Errorf("没有零件行时不应发起批量查询, 实际: %d", catalog.batchCalls)
	}
}

func TestParseInventoryEmpty(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewInventoryService(catalog, testInventoryConfig())

	var parseErr *ParseError
	if _, err := svc.ParseInventory(context.Background(), ""); !errors.As(err, &parseErr) {
		t.Fatalf("空 CSV 应返回 ParseError, 实际: %v", err)
	}
}

func TestParseInventoryNormalizesVendorIDs(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.bricklink["973pb1"] = testPart("973pb0001", "http://img/973.png")
	catalog.batch["973pb0001"] = "http://img/973.png"
	svc := NewInventoryService(catalog, testInventoryConfig())

	csvText := "LdrawId,Qty,ColorName\n" +
		"973bpb1,1,Red\n" +
		"t1,,\nt2,,\nt3,,\nt4,,\n"
	partList, err := svc.ParseInventory(context.Background(), csvText)
	if err != nil {
		t.Fatalf("ParseInventory 返回错误: %v", err)
	}
	if len(partList.Parts) != 1 {
		t.Fatalf("零件行数 = %d, 期望 1", len(partList.Parts))
	}
	if got := partList.Parts[0].CanonicalPartID; got != "973pb0001" {
		t.Errorf("零件号应被标准化, 实际: %q", got)
	}
	if !strings.Contains(partList.Parts[0].ImageURL, "973") {
		t.Errorf("标准化后的零件号应参与图片解析: %+v", partList.Parts[0])
	}
}
