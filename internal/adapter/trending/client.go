package trending

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github-trending-digest/internal/common"
	"github-trending-digest/internal/config"
	"github-trending-digest/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// 不带浏览器 UA 的请求会被 trending 页面拦下
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client 实现了 port.Scouter 接口，从 trending 榜单页面爬取仓库列表
type Client struct {
	baseURL    string
	httpClient *http.Client
	extractor  Extractor
}

// NewClient 创建 trending 爬虫客户端
func NewClient(cfg config.SourceConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://github.com/trending"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		extractor:  BoxRowExtractor{},
	}
}

// SetExtractor 替换页面解析实现，页面改版或测试时使用
func (c *Client) SetExtractor(e Extractor) {
	if e != nil {
		c.extractor = e
	}
}

// Scout 抓取指定周期的 trending 榜单。
// 全有或全无：网络失败、非成功响应、选择器匹配不到任何记录都直接报错，
// 不返回部分结果。后两者的错误码不同，调用方可以区分
// "站点不可达" 和 "页面改版"。
// 组件内部不做重试，调用频率很低，重试策略留给上层。
func (c *Client) Scout(ctx context.Context, period domain.Period, language string, limit int) ([]*domain.Repo, error) {
	if !period.Valid() {
		return nil, common.NewError(common.ErrCodeInvalidInput, fmt.Sprintf("周期取值不合法: %q", period))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listingURL(period, language), nil)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeFetchNetwork, "构造 trending 请求失败", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeFetchNetwork, "无法访问 trending 页面", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.NewError(common.ErrCodeFetchNetwork,
			fmt.Sprintf("trending 页面返回非成功状态码: %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeFetchNetwork, "读取 trending 页面失败", err)
	}

	repos, err := c.extractor.Extract(doc)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeFetchLayout, "解析 trending 页面失败", err)
	}
	if len(repos) == 0 {
		// 零条记录说明页面结构变了，绝不能当成空榜单成功返回
		return nil, common.NewError(common.ErrCodeFetchLayout,
			"选择器没有匹配到任何仓库记录，trending 页面结构可能已变化")
	}

	repos = dedupeByName(repos)
	if limit > 0 && len(repos) > limit {
		repos = repos[:limit]
	}
	for i, repo := range repos {
		repo.Rank = i + 1
	}
	return repos, nil
}

// listingURL 拼出榜单页面地址，例如
// https://github.com/trending/go?since=weekly
func (c *Client) listingURL(period domain.Period, language string) string {
	u := c.baseURL
	if language != "" {
		facet := strings.ReplaceAll(strings.ToLower(language), " ", "-")
		u += "/" + url.PathEscape(facet)
	}
	return u + "?since=" + string(period)
}

// dedupeByName 去掉重名条目，保留首次出现的顺序
func dedupeByName(repos []*domain.Repo) []*domain.Repo {
	seen := make(map[string]bool, len(repos))
	out := repos[:0]
	for _, repo := range repos {
		if seen[repo.Name] {
			continue
		}
		seen[repo.Name] = true
		out = append(out, repo)
	}
	return out
}
