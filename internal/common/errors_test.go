package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	withCause := WrapError(ErrCodeFetchNetwork, "请求失败", errors.New("connection refused"))
	assert.Equal(t, "[FETCH_NETWORK_ERROR] 请求失败: connection refused", withCause.Error())

	withoutCause := NewError(ErrCodeConfig, "缺少配置")
	assert.Equal(t, "[CONFIG_ERROR] 缺少配置", withoutCause.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := WrapError(ErrCodePersist, "写入失败", cause)
	assert.ErrorIs(t, err, cause)
}

func TestHasCode(t *testing.T) {
	inner := WrapError(ErrCodeFetchLayout, "选择器无匹配", nil)
	outer := WrapError(ErrCodeInternal, "本轮抓取失败", inner)

	assert.True(t, HasCode(outer, ErrCodeInternal))
	assert.True(t, HasCode(outer, ErrCodeFetchLayout), "应能沿错误链找到内层错误码")
	assert.False(t, HasCode(outer, ErrCodeDelivery))
	assert.False(t, HasCode(nil, ErrCodeInternal))
	assert.False(t, HasCode(errors.New("plain"), ErrCodeInternal))

	// fmt.Errorf 包装后依然可以识别
	wrapped := fmt.Errorf("调度执行出错: %w", inner)
	assert.True(t, HasCode(wrapped, ErrCodeFetchLayout))
}
