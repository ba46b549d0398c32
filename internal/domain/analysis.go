package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnalysisUnavailable 是分析失败或缺失时展示给读者的占位文本
const AnalysisUnavailable = "（AI 分析暂时不可用）"

// Analysis AI 生成的结构化解读，维度集合是固定的
type Analysis struct {
	Highlights    string `json:"highlights"`     // 项目亮点
	UseCases      string `json:"use_cases"`      // 适用场景
	TechStack     string `json:"tech_stack"`     // 技术栈/核心依赖
	Comparison    string `json:"comparison"`     // 与同类项目对比
	LearningCurve string `json:"learning_curve"` // 上手难度
	Activity      string `json:"activity"`       // 活跃度评估
	Audience      string `json:"audience"`       // 目标用户

	// Succeeded 区分"分析成功"与"降级占位"
	Succeeded bool `json:"succeeded"`
}

// Dimension 一个分析维度及其中文标签，用于渲染
type Dimension struct {
	Label string
	Value string
}

// Dimensions 按固定顺序返回全部维度；空值替换为占位文本，
// 保证渲染侧永远拿到完整的维度列表
func (a *Analysis) Dimensions() []Dimension {
	value := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return AnalysisUnavailable
		}
		return v
	}
	return []Dimension{
		{"项目亮点", value(a.Highlights)},
		{"适用场景", value(a.UseCases)},
		{"技术栈/核心依赖", value(a.TechStack)},
		{"与同类项目对比", value(a.Comparison)},
		{"上手难度", value(a.LearningCurve)},
		{"活跃度评估", value(a.Activity)},
		{"目标用户", value(a.Audience)},
	}
}

// ParseAnalysis 从 AI 的原始回复中解析出结构化分析。
// 即使模型用 "```json ... ```" 之类的包裹返回，也能精准抠出中间的 { ... }
func ParseAnalysis(raw string) (*Analysis, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("无法提取 JSON, AI 原文: %s", truncate(raw, 200))
	}

	cleanJSON := raw[start : end+1]

	var a Analysis
	if err := json.Unmarshal([]byte(cleanJSON), &a); err != nil {
		return nil, fmt.Errorf("JSON 解析失败: %w | 原文: %s", err, truncate(cleanJSON, 200))
	}

	a.Succeeded = true
	return &a, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
