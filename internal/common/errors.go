package common

import (
	"errors"
	"fmt"
)

// AppError 应用级错误结构
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code, message string, err error) error {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewError 创建新错误
func NewError(code, message string) error {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// HasCode 判断错误链上是否存在指定错误码
func HasCode(err error, code string) bool {
	var appErr *AppError
	for errors.As(err, &appErr) {
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
		appErr = nil
	}
	return false
}

// 错误码常量
const (
	ErrCodeFetchNetwork    = "FETCH_NETWORK_ERROR" // trending 页面不可达或非成功响应
	ErrCodeFetchLayout     = "FETCH_LAYOUT_ERROR"  // 页面结构变化，选择器匹配不到记录
	ErrCodeGitHubAPI       = "GITHUB_API_ERROR"
	ErrCodeAIProcessing    = "AI_PROCESSING_ERROR"
	ErrCodePersist         = "PERSIST_ERROR"
	ErrCodePersistConflict = "PERSIST_CONFLICT" // 同槽位报告已存在且禁止覆盖
	ErrCodeDelivery        = "DELIVERY_ERROR"
	ErrCodeConfig          = "CONFIG_ERROR"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeInternal        = "INTERNAL_ERROR"
)
