// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"rebuilder-go/pkg/rebrickable"
)

// digitRunPattern 匹配字符串中的一段连续数字。
var digitRunPattern = regexp.MustCompile(`\d+`)

// PartNormalizer 将 Bricklink 风格的零件号标准化为 Rebrickable 目录的零件号。
// Bricklink 对印刷件（如人仔躯干印刷）的后缀约定与目录的补零约定不同，
// 经验上真实的目录零件号可以通过两种改写之一命中，极少两者都命中。
type PartNormalizer struct {
	catalog rebrickable.Client
}

// NewPartNormalizer 创建一个新的 PartNormalizer 实例。
func NewPartNormalizer(catalog rebrickable.Client) *PartNormalizer {
	return &PartNormalizer{catalog: catalog}
}

// Normalize 将单个 Bricklink 零件号映射到目录零件号。
// 纯数字或空的零件号视为已标准化，原样返回且不发起网络请求。
// 其余情况按顺序尝试两个改写候选，经目录验证命中者生效；
// 两者都未命中时退回原零件号中的第一段数字（未经验证的启发式结果）。
// 查询过程中的传输故障是硬错误，中止该零件的标准化。
func (n *PartNormalizer) Normalize(ctx context.Context, vendorID string) (string, error) {
	if vendorID == "" || isNumeric(vendorID) {
		return vendorID, nil
	}

	// 候选1：把印刷件前缀 "bpb" 改写为目录的短形式 "pb"
	// 候选2：在候选1最后一段数字前补一个 "0"
	candidate1 := strings.ReplaceAll(vendorID, "bpb", "pb")
	candidates := []string{candidate1, padLastDigitRun(candidate1)}

	for _, candidate := range candidates {
		part, err := n.catalog.GetPartByBricklinkID(ctx, candidate)
		if err == nil {
			return part.PartNum, nil
		}
		if !errors.Is(err, rebrickable.ErrNotFound) {
			return "", fmt.Errorf("查询零件数据失败: %w", err)
		}
	}

	// 兜底：取原始零件号的第一段数字
	if run := digitRunPattern.FindString(vendorID); run != "" {
		return run, nil
	}
	return vendorID, nil
}

// isNumeric 判断字符串是否由纯数字构成。
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// padLastDigitRun 在字符串最后一段连续数字前插入一个 "0"。
// 不含数字时原样返回。
func padLastDigitRun(s string) string {
	locs := digitRunPattern.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	last := locs[len(locs)-1]
	return s[:last[0]] + "0" + s[last[0]:]
}
