package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github-trending-digest/internal/common"
	"github-trending-digest/internal/config"
	"github-trending-digest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analysisJSON = `{
	"highlights": "构建速度极快",
	"use_cases": "静态网站与文档站点",
	"tech_stack": "Go 模板引擎",
	"comparison": "比 Jekyll 快一个数量级",
	"learning_curve": "模板语法需要适应",
	"activity": "社区活跃，版本迭代快",
	"audience": "需要自建站点的开发者"
}`

func testConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		Provider:           "openai",
		BaseURL:            baseURL,
		APIKey:             "test-key",
		Model:              "gpt-4o-mini",
		Temperature:        0.7,
		Timeout:            5 * time.Second,
		SystemPrompt:       "system prompt",
		UserPromptTemplate: "请分析 {name}，Stars {stars}",
	}
}

func testRepo() *domain.Repo {
	return &domain.Repo{
		Rank:  1,
		Name:  "gohugoio/hugo",
		URL:   "https://github.com/gohugoio/hugo",
		Stars: 75123,
		Forks: 7456,
	}
}

// completionBody 按 chat-completion 响应格式包一层
func completionBody(content string) string {
	return fmt.Sprintf(`{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o-mini",
		"choices": [{
			"index": 0,
			"finish_reason": "stop",
			"message": {"role": "assistant", "content": %q}
		}]
	}`, content)
}

func TestAppraiser_Appraise(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody(analysisJSON))
	}))
	defer server.Close()

	a := NewAppraiser(testConfig(server.URL))
	analysis, err := a.Appraise(context.Background(), testRepo())
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.True(t, analysis.Succeeded)
	assert.Equal(t, "构建速度极快", analysis.Highlights)
	assert.Equal(t, "需要自建站点的开发者", analysis.Audience)
	assert.Equal(t, int32(1), requests.Load())
}

func TestAppraiser_Appraise_Markdown包裹的JSON也能解析(t *testing.T) {
	wrapped := "```json\n" + analysisJSON + "\n```"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody(wrapped))
	}))
	defer server.Close()

	a := NewAppraiser(testConfig(server.URL))
	analysis, err := a.Appraise(context.Background(), testRepo())
	require.NoError(t, err)
	assert.Equal(t, "比 Jekyll 快一个数量级", analysis.Comparison)
}

func TestAppraiser_Appraise_限流是瞬时失败(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	a := NewAppraiser(testConfig(server.URL))
	_, err := a.Appraise(context.Background(), testRepo())
	require.Error(t, err)
	assert.False(t, common.IsPermanent(err), "429 应该允许重试")
	assert.True(t, common.HasCode(err, common.ErrCodeAIProcessing))
}

func TestAppraiser_Appraise_5xx是瞬时失败(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusBadGateway)
	}))
	defer server.Close()

	a := NewAppraiser(testConfig(server.URL))
	_, err := a.Appraise(context.Background(), testRepo())
	require.Error(t, err)
	assert.False(t, common.IsPermanent(err))
}

func TestAppraiser_Appraise_4xx立即放弃(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, `{"error": {"message": "bad request"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	a := NewAppraiser(testConfig(server.URL))
	_, err := a.Appraise(context.Background(), testRepo())
	require.Error(t, err)
	assert.True(t, common.IsPermanent(err), "400 重试没有意义")
	assert.Equal(t, int32(1), requests.Load(), "SDK 内部不应该自己重试")
}

func TestAppraiser_Appraise_流式响应完整拼接(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		// 分两段下发，最后带 finish_reason 和 [DONE]
		fmt.Fprintf(w, "data: %s\n\n", chunkBody(`{\"highlights\": \"构建速度极快\",`, ""))
		fmt.Fprintf(w, "data: %s\n\n", chunkBody(`\"use_cases\": \"静态网站\", \"tech_stack\": \"Go\", \"comparison\": \"快\", \"learning_curve\": \"低\", \"activity\": \"高\", \"audience\": \"开发者\"}`, "stop"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Stream = true
	a := NewAppraiser(cfg)

	analysis, err := a.Appraise(context.Background(), testRepo())
	require.NoError(t, err)
	assert.Equal(t, "构建速度极快", analysis.Highlights)
	assert.Equal(t, "开发者", analysis.Audience)
}

func TestAppraiser_Appraise_流中断按瞬时失败处理(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		// 只有一个没有 finish_reason 的分片，然后流就结束了
		fmt.Fprintf(w, "data: %s\n\n", chunkBody(`{\"highlights\": \"残缺`, ""))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Stream = true
	a := NewAppraiser(cfg)

	_, err := a.Appraise(context.Background(), testRepo())
	require.Error(t, err)
	assert.False(t, common.IsPermanent(err), "中断的流应该允许重试")
}

// chunkBody 构造一个 SSE 分片；finishReason 为空表示流还没结束
func chunkBody(escapedContent, finishReason string) string {
	finish := "null"
	if finishReason != "" {
		finish = fmt.Sprintf("%q", finishReason)
	}
	return fmt.Sprintf(`{"id": "chatcmpl-1", "object": "chat.completion.chunk", "model": "gpt-4o-mini", "choices": [{"index": 0, "delta": {"content": "%s"}, "finish_reason": %s}]}`,
		escapedContent, finish)
}
