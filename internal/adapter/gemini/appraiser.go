package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github-trending-digest/internal/common"
	"github-trending-digest/internal/config"
	"github-trending-digest/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Appraiser 实现了 port.Appraiser 接口，走 Gemini 官方 SDK
type Appraiser struct {
	client *genai.Client
	model  *genai.GenerativeModel
	cfg    config.AIConfig
}

// NewAppraiser 初始化 Gemini 客户端
func NewAppraiser(ctx context.Context, cfg config.AIConfig) (*Appraiser, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "Gemini 客户端初始化失败", err)
	}

	model := client.GenerativeModel(cfg.Model)
	// 强制要求返回 JSON，降低解析错误的概率
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(float32(cfg.Temperature))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(cfg.SystemPrompt)},
	}

	return &Appraiser{
		client: client,
		model:  model,
		cfg:    cfg,
	}, nil
}

// Close 释放底层连接
func (a *Appraiser) Close() error {
	return a.client.Close()
}

// Appraise 为单个仓库生成结构化分析
func (a *Appraiser) Appraise(ctx context.Context, repo *domain.Repo) (*domain.Analysis, error) {
	resp, err := a.model.GenerateContent(ctx, genai.Text(a.cfg.UserPrompt(repo)))
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, common.NewError(common.ErrCodeAIProcessing, "AI 返回内容为空")
	}

	part := resp.Candidates[0].Content.Parts[0]
	text, ok := part.(genai.Text)
	if !ok {
		return nil, common.NewError(common.ErrCodeAIProcessing, "AI 返回格式错误")
	}

	analysis, err := domain.ParseAnalysis(string(text))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "AI 返回内容无法解析", err)
	}
	return analysis, nil
}

// classify 和 openai 适配器保持同一套口径：
// 429/5xx 瞬时，其余 4xx 永久，网络类错误瞬时
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500 {
			return common.WrapError(common.ErrCodeAIProcessing,
				fmt.Sprintf("Gemini 返回 %d", gerr.Code), err)
		}
		return common.Permanent(common.WrapError(common.ErrCodeAIProcessing,
			fmt.Sprintf("Gemini 请求被拒绝 (状态码 %d)", gerr.Code), err))
	}
	return common.WrapError(common.ErrCodeAIProcessing, "Gemini 调用失败", err)
}
