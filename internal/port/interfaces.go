package port

import (
	"context"

	"github-trending-digest/internal/domain"
)

// Scouter (侦察兵): 负责从 trending 榜单抓取仓库列表
// 当前实现是页面爬虫；如果哪天有了官方 API 也可以换成 API 客户端
type Scouter interface {
	// Scout 返回榜单顺序的仓库列表，长度不超过 limit
	// language 为空表示不过滤语言
	Scout(ctx context.Context, period domain.Period, language string, limit int) ([]*domain.Repo, error)
}

// Enricher (补全器): 通过 GitHub API 为仓库补充详情字段
// 单个仓库补全失败不影响其余仓库
type Enricher interface {
	Enrich(ctx context.Context, repos []*domain.Repo) []*domain.Repo
}

// Appraiser (鉴定师): 负责调用 LLM 对单个仓库生成结构化解读
type Appraiser interface {
	Appraise(ctx context.Context, repo *domain.Repo) (*domain.Analysis, error)
}

// Analyzer (分析器): 串行批量分析，内部处理重试/退避/限流延迟
// 单个仓库分析失败只会降级为占位，不会中断整批
type Analyzer interface {
	// AnalyzeBatch 就地填充 repo.Analysis，返回成功/失败数量
	AnalyzeBatch(ctx context.Context, repos []*domain.Repo) (succeeded, failed int)
}

// ReportStore (仓库管理员): 负责报告落盘
type ReportStore interface {
	// Save 返回写入的 JSON 与 HTML 文件路径
	Save(ctx context.Context, report *domain.Report) (jsonPath, htmlPath string, err error)
}

// Notifier (信使): 负责把报告投递到收件人邮箱
type Notifier interface {
	Notify(ctx context.Context, report *domain.Report) error
}
