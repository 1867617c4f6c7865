package service

import (
	"errors"
	"fmt"
	"strings"

	"ClubVote/internal/utils/dateparse"
)

var (
	// ErrInvalidTimeRange 起止日期无法解析
	ErrInvalidTimeRange = dateparse.ErrInvalidTimeRange
	// ErrChainDisabled 未配置链上功能
	ErrChainDisabled = errors.New("chain integration is disabled")
	// ErrLineItemIndex 名单下标越界
	ErrLineItemIndex = errors.New("line item index out of range")
	// ErrInvalidPosition 职位不属于该社团
	ErrInvalidPosition = errors.New("position does not belong to club")
	// ErrCandidateMismatch 候选人的社团/职位与名单条目不一致
	ErrCandidateMismatch = errors.New("candidate does not match line item club and position")
	// ErrDuplicateLineItem 开启 unique_line_items 时同一社团职位重复
	ErrDuplicateLineItem = errors.New("club and position already present in event")
	// ErrApplicationDecided 申请已审批，不能重复处理
	ErrApplicationDecided = errors.New("application already decided")
)

// ValidationError 表单字段缺失或取值不合法，调用方修正后可重新提交
type ValidationError struct {
	Missing []string // 缺失的必填字段
	Reason  string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", ")))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if len(parts) == 0 {
		return "validation failed"
	}
	return strings.Join(parts, "; ")
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
