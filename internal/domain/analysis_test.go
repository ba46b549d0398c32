package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAnalysisJSON = `{
	"highlights": "极快的静态站点构建速度",
	"use_cases": "博客、文档站、营销页面",
	"tech_stack": "Go、Go templates、Chroma",
	"comparison": "比 Jekyll 构建速度快一个数量级",
	"learning_curve": "模板语法需要适应，整体中等",
	"activity": "更新频繁，社区活跃",
	"audience": "需要快速构建静态网站的开发者"
}`

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"纯 JSON", validAnalysisJSON, false},
		{"Markdown 代码块包裹", "```json\n" + validAnalysisJSON + "\n```", false},
		{"前后夹杂说明文字", "好的，以下是分析结果：\n" + validAnalysisJSON + "\n希望对你有帮助！", false},
		{"空字符串", "", true},
		{"没有 JSON 对象", "抱歉，我无法完成这个分析。", true},
		{"只有右括号", "}", true},
		{"JSON 残缺", `{"highlights": "亮点",`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAnalysis(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, a)
				return
			}
			require.NoError(t, err)
			assert.True(t, a.Succeeded)
			assert.Equal(t, "极快的静态站点构建速度", a.Highlights)
			assert.Equal(t, "需要快速构建静态网站的开发者", a.Audience)
		})
	}
}

func TestParseAnalysis_缺失维度不报错(t *testing.T) {
	a, err := ParseAnalysis(`{"highlights": "只有亮点"}`)
	require.NoError(t, err)
	assert.Equal(t, "只有亮点", a.Highlights)
	assert.Empty(t, a.UseCases)
	assert.True(t, a.Succeeded)
}

func TestDimensions_固定顺序与占位(t *testing.T) {
	a := &Analysis{Highlights: "亮点文本", Succeeded: true}

	dims := a.Dimensions()
	require.Len(t, dims, 7)
	assert.Equal(t, "项目亮点", dims[0].Label)
	assert.Equal(t, "亮点文本", dims[0].Value)
	// 空维度统一降级为占位文本
	assert.Equal(t, "适用场景", dims[1].Label)
	assert.Equal(t, AnalysisUnavailable, dims[1].Value)
	assert.Equal(t, "目标用户", dims[6].Label)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}
