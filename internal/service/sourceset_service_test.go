package service

import (
	"context"
	"fmt"
	"testing"

	"rebuilder-go/pkg/rebrickable"
)

func TestValidateSetsBatchRejection(t *testing.T) {
	tests := []struct {
		name       string
		setNumbers []string
	}{
		{"全部为空白", []string{"", "  ", ""}},
		{"包含非数字编号", []string{"10030", "abc"}},
		{"空白混合有效编号", []string{"10030", ""}},
		{"空列表", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := newFakeCatalog()
			catalog.sets["10030"] = rebrickable.SetInfo{SetNumber: "10030", NumParts: 3096}
			svc := NewSourceSetService(catalog)

			report := svc.ValidateSets(context.Background(), tt.setNumbers)
			if report.InvalidCount == 0 {
				t.Error("整批拒绝时 InvalidCount 应大于 0")
			}
			if report.TotalPartCount != 0 {
				t.Errorf("整批拒绝时 TotalPartCount 应为 0, 实际: %d", report.TotalPartCount)
			}
			// 形式校验失败时不应发起任何目录请求
			if len(catalog.setCalls) != 0 {
				t.Errorf("整批拒绝时不应查询目录, 实际: %v", catalog.setCalls)
			}
		})
	}
}

func TestValidateSets(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.sets["10030"] = rebrickable.SetInfo{SetNumber: "10030", NumParts: 3096, SetURL: "http://sets/10030"}
	catalog.sets["75192"] = rebrickable.SetInfo{SetNumber: "75192", NumParts: 7541}
	svc := NewSourceSetService(catalog)

	report := svc.ValidateSets(context.Background(), []string{"10030", "75192", "99999"})
	if report.InvalidCount != 1 {
		t.Errorf("InvalidCount = %d, 期望 1", report.InvalidCount)
	}
	if report.TotalPartCount != 3096+7541 {
		t.Errorf("TotalPartCount = %d, 期望 %d", report.TotalPartCount, 3096+7541)
	}
	if len(report.Results) != 3 {
		t.Fatalf("结果条数 = %d, 期望 3", len(report.Results))
	}
	if !report.Results[0].Valid || report.Results[0].PartCount != 3096 {
		t.Errorf("第一个结果错误: %+v", report.Results[0])
	}
	if report.Results[2].Valid {
		t.Errorf("不存在的套装应标记为无效: %+v", report.Results[2])
	}
}

func TestValidateSetsDuplicatesCountTwice(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.sets["10030"] = rebrickable.SetInfo{SetNumber: "10030", NumParts: 3096}
	svc := NewSourceSetService(catalog)

	report := svc.ValidateSets(context.Background(), []string{"10030", "10030"})
	if report.InvalidCount != 0 {
		t.Errorf("InvalidCount = %d, 期望 0", report.InvalidCount)
	}
	// 重复的套装独立校验，零件数重复累计
	if report.TotalPartCount != 2*3096 {
		t.Errorf("TotalPartCount = %d, 期望 %d", report.TotalPartCount, 2*3096)
	}
	if len(catalog.setCalls) != 2 {
		t.Errorf("重复套装应各自查询一次, 实际: %v", catalog.setCalls)
	}
}

func TestValidateSetsCatalogFailure(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.sets["10030"] = rebrickable.SetInfo{SetNumber: "10030", NumParts: 3096}
	catalog.setErr["75192"] = fmt.Errorf("%w: status 503", rebrickable.ErrCatalogUnavailable)
	svc := NewSourceSetService(catalog)

	// 单个套装查询故障按无效计，不中断其余套装的校验
	report := svc.ValidateSets(context.Background(), []string{"75192", "10030"})
	if report.InvalidCount != 1 {
		t.Errorf("InvalidCount = %d, 期望 1", report.InvalidCount)
	}
	if report.TotalPartCount != 3096 {
		t.Errorf("TotalPartCount = %d, 期望 3096", report.TotalPartCount)
	}
	if len(catalog.setCalls) != 2 {
		t.Errorf("故障不应中断后续校验, 实际: %v", catalog.setCalls)
	}
}
