package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github-trending-digest/internal/common"
	"github-trending-digest/internal/config"
	"github-trending-digest/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Appraiser 实现了 port.Appraiser 接口，
// 调用 OpenAI 兼容的 chat-completion 端点生成仓库解读
type Appraiser struct {
	client       openai.Client
	model        string
	temperature  float64
	stream       bool
	systemPrompt string
	cfg          config.AIConfig
}

// NewAppraiser 创建 OpenAI 兼容客户端
// SDK 自带的重试被关掉，重试策略统一由批量分析器控制
func NewAppraiser(cfg config.AIConfig) *Appraiser {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Appraiser{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		stream:       cfg.Stream,
		systemPrompt: cfg.SystemPrompt,
		cfg:          cfg,
	}
}

// Appraise 为单个仓库生成结构化分析。
// 瞬时失败 (超时/限流/5xx/流中断) 原样返回供上层重试，
// 非瞬时失败用 common.Permanent 标记，上层会立即放弃
func (a *Appraiser) Appraise(ctx context.Context, repo *domain.Repo) (*domain.Analysis, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(a.systemPrompt),
			openai.UserMessage(a.cfg.UserPrompt(repo)),
		},
		Temperature: openai.Float(a.temperature),
		MaxTokens:   openai.Int(2000),
	}

	var content string
	var err error
	if a.stream {
		content, err = a.completeStreaming(ctx, params)
	} else {
		content, err = a.complete(ctx, params)
	}
	if err != nil {
		return nil, err
	}

	analysis, err := domain.ParseAnalysis(content)
	if err != nil {
		// 模型偶尔不守 JSON 约定，换一次请求通常就好了
		return nil, common.WrapError(common.ErrCodeAIProcessing, "AI 返回内容无法解析", err)
	}
	return analysis, nil
}

func (a *Appraiser) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", common.NewError(common.ErrCodeAIProcessing, "AI 返回内容为空")
	}
	return resp.Choices[0].Message.Content, nil
}

// completeStreaming 完整消费流式响应并拼接。
// 流在没有终止标记的情况下结束，按瞬时失败处理，交给上层重试
func (a *Appraiser) completeStreaming(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	stream := a.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		acc.AddChunk(stream.Current())
	}
	if err := stream.Err(); err != nil {
		return "", classify(err)
	}

	if len(acc.Choices) == 0 {
		return "", common.NewError(common.ErrCodeAIProcessing, "流式响应没有任何内容")
	}
	if acc.Choices[0].FinishReason == "" {
		return "", common.NewError(common.ErrCodeAIProcessing, "流式响应在终止标记之前中断")
	}
	return acc.Choices[0].Message.Content, nil
}

// classify 区分瞬时失败和必然失败：
// 429 和 5xx 值得重试；其余 4xx 说明请求本身有问题，重试没有意义。
// 拿不到状态码的错误 (超时、连接中断) 一律按瞬时处理
func classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode == http.StatusTooManyRequests || apierr.StatusCode >= 500 {
			return common.WrapError(common.ErrCodeAIProcessing,
				fmt.Sprintf("AI 端点返回 %d", apierr.StatusCode), err)
		}
		return common.Permanent(common.WrapError(common.ErrCodeAIProcessing,
			fmt.Sprintf("AI 请求被拒绝 (状态码 %d)", apierr.StatusCode), err))
	}
	return common.WrapError(common.ErrCodeAIProcessing, "AI 调用失败", err)
}
