package github

import (
	"context"
	"log/slog"
	"time"

	"github-trending-digest/internal/common"
	"github-trending-digest/internal/domain"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// Enricher 实现了 port.Enricher 接口，
// 用 GitHub API 为爬到的仓库补充详情字段
type Enricher struct {
	client *github.Client
	pause  time.Duration
	sleep  func(time.Duration) // 便于测试注入
}

// NewEnricher 初始化 GitHub 客户端
// token 为空时走匿名访问，限制 60 次/小时
func NewEnricher(token string) *Enricher {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	return newEnricher(client)
}

// NewEnricherWithClient 用现成的客户端构造，测试时指向 httptest 服务
func NewEnricherWithClient(client *github.Client) *Enricher {
	return newEnricher(client)
}

func newEnricher(client *github.Client) *Enricher {
	return &Enricher{
		client: client,
		pause:  500 * time.Millisecond, // 避免 API 限流
		sleep:  time.Sleep,
	}
}

// Enrich 逐个补全仓库详情。单个仓库失败只记日志并保留爬虫数据，
// 不影响其余仓库
func (e *Enricher) Enrich(ctx context.Context, repos []*domain.Repo) []*domain.Repo {
	for i, repo := range repos {
		if err := e.enrichOne(ctx, repo); err != nil {
			slog.Warn("获取仓库详情失败，保留爬虫数据", "repo", repo.Name, "err", err)
		}
		if i < len(repos)-1 {
			e.sleep(e.pause)
		}
	}
	return repos
}

func (e *Enricher) enrichOne(ctx context.Context, repo *domain.Repo) error {
	owner, name, err := repo.Owner()
	if err != nil {
		return common.WrapError(common.ErrCodeGitHubAPI, "无法拆分仓库名", err)
	}

	var detail *github.Repository
	err = common.Do(ctx, func() error {
		var apiErr error
		detail, _, apiErr = e.client.Repositories.Get(ctx, owner, name)
		return apiErr
	},
		common.WithMaxAttempts(2),
		common.WithInitialDelay(500*time.Millisecond),
	)
	if err != nil {
		return common.WrapError(common.ErrCodeGitHubAPI, "GitHub API 调用失败", err)
	}

	repo.OpenIssues = detail.GetOpenIssuesCount()
	repo.Topics = detail.Topics
	repo.PushedAt = detail.GetPushedAt().Time

	// 页面上的数字偶尔滞后，详情接口的计数更准
	if detail.GetStargazersCount() > 0 {
		repo.Stars = detail.GetStargazersCount()
	}
	if detail.GetForksCount() > 0 {
		repo.Forks = detail.GetForksCount()
	}
	return nil
}
