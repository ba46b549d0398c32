package service

import (
	"context"
	"log/slog"
	"time"

	"github-trending-digest/internal/domain"
	"github-trending-digest/internal/port"
)

// DigestService 串联一次完整的日报流水线：抓取 → 补全 → 分析 → 落盘 → 邮件
type DigestService struct {
	scouter  port.Scouter
	enricher port.Enricher
	analyzer port.Analyzer
	store    port.ReportStore
	notifier port.Notifier

	language string
	maxRepos int

	nowFunc func() time.Time
}

// NewDigestService 创建日报服务
// enricher、store 和 notifier 可以为 nil，对应阶段会被跳过
func NewDigestService(
	scouter port.Scouter,
	enricher port.Enricher,
	analyzer port.Analyzer,
	store port.ReportStore,
	notifier port.Notifier,
	language string,
	maxRepos int,
) *DigestService {
	return &DigestService{
		scouter:  scouter,
		enricher: enricher,
		analyzer: analyzer,
		store:    store,
		notifier: notifier,
		language: language,
		maxRepos: maxRepos,
		nowFunc:  time.Now,
	}
}

// Run 执行一次指定周期的完整流水线
// 抓取失败会中止本轮并返回错误；落盘和发信失败只记日志，
// 彼此独立，落盘失败不会拦住邮件，发信失败也不影响已写入的文件
func (s *DigestService) Run(ctx context.Context, period domain.Period) (*domain.Report, error) {
	started := s.nowFunc()
	slog.Info("开始生成趋势报告", "period", period)

	repos, err := s.scouter.Scout(ctx, period, s.language, s.maxRepos)
	if err != nil {
		slog.Error("抓取趋势榜单失败，本轮中止", "period", period, "err", err)
		return nil, err
	}
	slog.Info("榜单抓取完成", "period", period, "count", len(repos))

	if s.enricher != nil {
		repos = s.enricher.Enrich(ctx, repos)
	}

	succeeded, failed := s.analyzer.AnalyzeBatch(ctx, repos)
	slog.Info("AI 分析完成", "succeeded", succeeded, "failed", failed)

	report := domain.NewReport(period, s.nowFunc(), repos)

	if s.store != nil {
		jsonPath, htmlPath, err := s.store.Save(ctx, report)
		if err != nil {
			slog.Error("报告落盘失败", "period", period, "err", err)
		} else {
			slog.Info("报告已写入", "json", jsonPath, "html", htmlPath)
		}
	} else {
		slog.Info("历史保存已关闭，跳过报告落盘", "period", period)
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, report); err != nil {
			slog.Error("报告邮件发送失败", "period", period, "err", err)
		}
	} else {
		slog.Warn("未配置邮件通道，跳过发送", "period", period)
	}

	slog.Info("本轮报告流程结束",
		"period", period,
		"repos", report.Stats.Count,
		"total_stars", report.Stats.TotalStars,
		"total_forks", report.Stats.TotalForks,
		"analyzed", report.Stats.Analyzed,
		"elapsed", s.nowFunc().Sub(started).Round(time.Second))
	return report, nil
}
