package service

import (
	"context"
	"fmt"
	"testing"

	"rebuilder-go/pkg/rebrickable"
)

func TestNormalizeIdentity(t *testing.T) {
	catalog := newFakeCatalog()
	normalizer := NewPartNormalizer(catalog)

	tests := []struct {
		name     string
		vendorID string
	}{
		{"纯数字零件号", "3001"},
		{"空零件号", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizer.Normalize(context.Background(), tt.vendorID)
			if err != nil {
				t.Fatalf("Normalize(%q) 返回错误: %v", tt.vendorID, err)
			}
			if got != tt.vendorID {
				t.Errorf("Normalize(%q) = %q, 期望原样返回", tt.vendorID, got)
			}
		})
	}
	if len(catalog.bricklinkCalls) != 0 {
		t.Errorf("已标准化的零件号不应触发目录查询, 实际查询: %v", catalog.bricklinkCalls)
	}
}

func TestNormalizePrintedPartRewrite(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.bricklink["973pb1"] = rebrickable.Part{PartNum: "973pb0001"}
	normalizer := NewPartNormalizer(catalog)

	got, err := normalizer.Normalize(context.Background(), "973bpb1")
	if err != nil {
		t.Fatalf("Normalize 返回错误: %v", err)
	}
	if got != "973pb0001" {
		t.Errorf("Normalize = %q, 期望 %q", got, "973pb0001")
	}
	if len(catalog.bricklinkCalls) != 1 || catalog.bricklinkCalls[0] != "973pb1" {
		t.Errorf("第一个候选命中后不应继续查询, 实际查询: %v", catalog.bricklinkCalls)
	}
}

func TestNormalizeZeroPadFallback(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.bricklink["2335p045"] = rebrickable.Part{PartNum: "2335pr0045"}
	normalizer := NewPartNormalizer(catalog)

	got, err := normalizer.Normalize(context.Background(), "2335p45")
	if err != nil {
		t.Fatalf("Normalize 返回错误: %v", err)
	}
	if got != "2335pr0045" {
		t.Errorf("Normalize = %q, 期望 %q", got, "2335pr0045")
	}
	// 第一个候选未命中后才尝试补零候选
	want := []string{"2335p45", "2335p045"}
	if len(catalog.bricklinkCalls) != len(want) {
		t.Fatalf("查询序列 = %v, 期望 %v", catalog.bricklinkCalls, want)
	}
	for i := range want {
		if catalog.bricklinkCalls[i] != want[i] {
			t.Errorf("查询序列 = %v, 期望 %v", catalog.bricklinkCalls, want)
			break
		}
	}
}

func TestNormalizeDigitRunHeuristic(t *testing.T) {
	catalog := newFakeCatalog()
	normalizer := NewPartNormalizer(catalog)

	tests := []struct {
		vendorID string
		want     string
	}{
		// 两个候选都未命中时退回原零件号的第一段数字
		{"sw123abc", "123"},
		{"2335p45x9", "2335"},
		// 完全没有数字时原样返回
		{"abc", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.vendorID, func(t *testing.T) {
			got, err := normalizer.Normalize(context.Background(), tt.vendorID)
			if err != nil {
				t.Fatalf("Normalize(%q) 返回错误: %v", tt.vendorID, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, 期望 %q", tt.vendorID, got, tt.want)
			}
		})
	}
}

func TestNormalizeCatalogFailure(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.bricklinkErr["973pb1"] = fmt.Errorf("%w: status 500", rebrickable.ErrCatalogUnavailable)
	normalizer := NewPartNormalizer(catalog)

	if _, err := normalizer.Normalize(context.Background(), "973bpb1"); err == nil {
		t.Fatal("目录不可用时 Normalize 应返回错误")
	}
}

func TestPadLastDigitRun(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2335p45", "2335p045"},
		{"973pb1", "973pb01"},
		{"abc", "abc"},
		{"12", "012"},
	}
	for _, tt := range tests {
		if got := padLastDigitRun(tt.in); got != tt.want {
			t.Errorf("padLastDigitRun(%q) = %q, 期望 %q", tt.in, got, tt.want)
		}
	}
}
