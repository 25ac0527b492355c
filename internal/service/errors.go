// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"fmt"
)

// ErrUnauthorized 表示当前用户无权对目标投稿执行操作。
var ErrUnauthorized = errors.New("没有权限执行此操作")

// ErrSubmissionNotFound 表示投稿记录不存在。
var ErrSubmissionNotFound = errors.New("投稿不存在")

// ValidationError 表示表单输入不合法，在产生任何副作用之前拦截请求。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError 构造一个带格式化消息的 ValidationError。
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ParseError 表示零件清单 CSV 无法解析或其数据无法获取。
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
