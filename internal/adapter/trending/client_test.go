package trending

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github-trending-digest/internal/common"
	"github-trending-digest/internal/config"
	"github-trending-digest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFixtureServer 返回一个用本地固定页面应答的 trending 服务
func newFixtureServer(t *testing.T, fixture string, statusCode int) *httptest.Server {
	t.Helper()
	var body []byte
	if fixture != "" {
		var err error
		body, err = os.ReadFile("testdata/" + fixture)
		require.NoError(t, err)
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 浏览器 UA 是爬虫能正常工作的前提
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		w.WriteHeader(statusCode)
		_, _ = w.Write(body)
	}))
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.SourceConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

func TestClient_Scout(t *testing.T) {
	server := newFixtureServer(t, "trending.html", http.StatusOK)
	defer server.Close()

	client := newTestClient(server.URL)
	repos, err := client.Scout(context.Background(), domain.PeriodDaily, "", 10)
	require.NoError(t, err)

	// 固定页面里有 5 个条目，其中一个是重复的 gohugoio/hugo
	require.Len(t, repos, 4)

	first := repos[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, "gohugoio/hugo", first.Name)
	assert.Equal(t, "https://github.com/gohugoio/hugo", first.URL)
	assert.Equal(t, "The world’s fastest framework for building websites.", first.Description)
	assert.Equal(t, "Go", first.Language)
	assert.Equal(t, 75123, first.Stars)
	assert.Equal(t, 7456, first.Forks)
	assert.Equal(t, 321, first.PeriodStars)

	// 排名严格递增，名字不重复
	seen := map[string]bool{}
	for i, repo := range repos {
		assert.Equal(t, i+1, repo.Rank)
		assert.False(t, seen[repo.Name], "仓库 %s 出现了重复", repo.Name)
		seen[repo.Name] = true
	}
}

func TestClient_Scout_可选字段缺失时留空(t *testing.T) {
	server := newFixtureServer(t, "trending.html", http.StatusOK)
	defer server.Close()

	client := newTestClient(server.URL)
	repos, err := client.Scout(context.Background(), domain.PeriodDaily, "", 10)
	require.NoError(t, err)

	// someuser/bare-repo 没有描述、语言和周期 star 数
	var bare *domain.Repo
	for _, repo := range repos {
		if repo.Name == "someuser/bare-repo" {
			bare = repo
		}
	}
	require.NotNil(t, bare)
	assert.Empty(t, bare.Description)
	assert.Empty(t, bare.Language)
	assert.Equal(t, 1024, bare.Stars)
	assert.Zero(t, bare.PeriodStars)
}

func TestClient_Scout_MaxCount截断(t *testing.T) {
	server := newFixtureServer(t, "trending.html", http.StatusOK)
	defer server.Close()

	client := newTestClient(server.URL)
	repos, err := client.Scout(context.Background(), domain.PeriodWeekly, "", 2)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "gohugoio/hugo", repos[0].Name)
	assert.Equal(t, "charmbracelet/bubbletea", repos[1].Name)
}

func TestClient_Scout_页面改版报布局错误(t *testing.T) {
	// 合法 HTML，但没有任何 article.Box-row
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="new-layout">nothing here</div></body></html>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	repos, err := client.Scout(context.Background(), domain.PeriodDaily, "", 10)
	require.Error(t, err)
	assert.Nil(t, repos, "页面改版时不能返回空的成功结果")
	assert.True(t, common.HasCode(err, common.ErrCodeFetchLayout))
	assert.False(t, common.HasCode(err, common.ErrCodeFetchNetwork))
}

func TestClient_Scout_非成功响应报网络错误(t *testing.T) {
	server := newFixtureServer(t, "", http.StatusServiceUnavailable)
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Scout(context.Background(), domain.PeriodDaily, "", 10)
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeFetchNetwork))
	assert.False(t, common.HasCode(err, common.ErrCodeFetchLayout))
}

func TestClient_Scout_站点不可达报网络错误(t *testing.T) {
	server := newFixtureServer(t, "trending.html", http.StatusOK)
	server.Close() // 先关掉，模拟连接失败

	client := newTestClient(server.URL)
	_, err := client.Scout(context.Background(), domain.PeriodDaily, "", 10)
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeFetchNetwork))
}

func TestClient_Scout_非法周期(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	_, err := client.Scout(context.Background(), domain.Period("yearly"), "", 10)
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeInvalidInput))
}

func TestClient_listingURL(t *testing.T) {
	client := newTestClient("https://github.com/trending")

	tests := []struct {
		name     string
		period   domain.Period
		language string
		expected string
	}{
		{"默认全部语言", domain.PeriodDaily, "", "https://github.com/trending?since=daily"},
		{"语言过滤", domain.PeriodWeekly, "Go", "https://github.com/trending/go?since=weekly"},
		{"带空格的语言", domain.PeriodMonthly, "Jupyter Notebook", "https://github.com/trending/jupyter-notebook?since=monthly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, client.listingURL(tt.period, tt.language))
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"1,234", 1234},
		{" 75,123 ", 75123},
		{"321 stars today", 321},
		{"1,042 stars this week", 1042},
		{"+88", 88},
		{"", 0},
		{"n/a", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseCount(tt.input), "输入: %q", tt.input)
	}
}
