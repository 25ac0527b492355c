// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"strings"

	"rebuilder-go/pkg/log"
	"rebuilder-go/pkg/rebrickable"
)

// SetValidation 是单个来源套装编号的校验结果。
type SetValidation struct {
	SetNumber string `json:"setNumber"`
	Valid     bool   `json:"valid"`
	PartCount int    `json:"partCount"`
	SetURL    string `json:"setUrl"`
	Message   string `json:"message,omitempty"`
}

// SourceSetReport 是一批来源套装编号的校验汇总。
// 重复的套装编号各自独立校验，零件数重复累计。
type SourceSetReport struct {
	Results        []SetValidation `json:"results"`
	InvalidCount   int             `json:"invalidCount"`
	TotalPartCount int             `json:"totalPartCount"`
}

// SourceSetService 定义了来源套装编号校验的操作接口。
type SourceSetService interface {
	ValidateSets(ctx context.Context, setNumbers []string) *SourceSetReport
}

type sourceSetService struct {
	catalog rebrickable.Client
}

// NewSourceSetService 创建一个新的 SourceSetService 实例。
func NewSourceSetService(catalog rebrickable.Client) SourceSetService {
	return &sourceSetService{catalog: catalog}
}

// ValidateSets 校验一批来源套装编号并统计总零件数。
// 整批为空白或包含非数字编号时直接整批拒绝，不发起任何目录请求；
// 形式合法的编号逐个查询目录，404 视为无效编号，
// 目录不可用时该编号按无效计并记录日志，不中断其余编号的校验。
func (s *sourceSetService) ValidateSets(ctx context.Context, setNumbers []string) *SourceSetReport {
	report := &SourceSetReport{Results: make([]SetValidation, 0, len(setNumbers))}

	allBlank := true
	hasNonNumeric := false
	for _, raw := range setNumbers {
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			allBlank = false
			if !isNumeric(trimmed) {
				hasNonNumeric = true
			}
		}
	}
	if len(setNumbers) == 0 || allBlank || hasNonNumeric {
		// 整批拒绝，逐条标注原因
		for _, raw := range setNumbers {
			trimmed := strings.TrimSpace(raw)
			message := "套装编号必须为数字"
			if trimmed == "" {
				message = "套装编号不能为空"
			}
			report.Results = append(report.Results, SetValidation{
				SetNumber: trimmed,
				Valid:     false,
				Message:   message,
			})
			report.InvalidCount++
		}
		if len(setNumbers) == 0 {
			report.InvalidCount = 1
		}
		return report
	}

	for _, raw := range setNumbers {
		setNumber := strings.TrimSpace(raw)
		info, err := s.catalog.GetSet(ctx, setNumber)
		if err != nil {
			message := "套装编号不存在"
			if !errors.Is(err, rebrickable.ErrNotFound) {
				message = "查询套装数据失败"
				log.Errorf("[ValidateSets] 查询套装 %s 失败: %v", setNumber, err)
			}
			report.Results = append(report.Results, SetValidation{
				SetNumber: setNumber,
				Valid:     false,
				Message:   message,
			})
			report.InvalidCount++
			continue
		}

		report.Results = append(report.Results, SetValidation{
			SetNumber: setNumber,
			Valid:     true,
			PartCount: info.NumParts,
			SetURL:    info.SetURL,
		})
		report.TotalPartCount += info.NumParts
	}

	log.Infof("[ValidateSets] 校验套装编号完成, 总数: %d, 无效: %d, 零件总数: %d",
		len(setNumbers), report.InvalidCount, report.TotalPartCount)
	return report
}
