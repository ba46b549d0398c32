package analyzer

import (
	"context"
	"log/slog"
	"time"

	"github-trending-digest/internal/common"
	"github-trending-digest/internal/config"
	"github-trending-digest/internal/domain"
	"github-trending-digest/internal/port"
)

// BatchAnalyzer 实现了 port.Analyzer 接口。
// 为了不触发第三方限流，仓库严格串行分析，相邻两次调用之间
// 有固定延迟；单个仓库内部按指数退避重试瞬时失败
type BatchAnalyzer struct {
	appraiser    port.Appraiser
	maxAttempts  int
	initialDelay time.Duration
	requestDelay time.Duration
	sleep        common.SleepFunc // 便于测试注入
}

// NewBatchAnalyzer 创建批量分析器
func NewBatchAnalyzer(appraiser port.Appraiser, cfg config.AIConfig) *BatchAnalyzer {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	initialDelay := cfg.InitialDelay
	if initialDelay <= 0 {
		initialDelay = time.Second
	}
	return &BatchAnalyzer{
		appraiser:    appraiser,
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		requestDelay: cfg.RequestDelay,
		sleep:        nil, // nil 表示用 common 包默认的可取消 sleep
	}
}

// SetSleep 替换 sleep 实现，测试退避时序时使用
func (a *BatchAnalyzer) SetSleep(fn common.SleepFunc) {
	a.sleep = fn
}

// AnalyzeBatch 逐个分析仓库并就地填充 repo.Analysis。
// 单个仓库重试耗尽后降级为无分析继续走完流水线，
// 绝不因为一个仓库失败中断整批
func (a *BatchAnalyzer) AnalyzeBatch(ctx context.Context, repos []*domain.Repo) (succeeded, failed int) {
	total := len(repos)
	for i, repo := range repos {
		slog.Info("正在分析仓库", "progress", i+1, "total", total, "repo", repo.Name)

		opts := []common.Option{
			common.WithMaxAttempts(a.maxAttempts),
			common.WithInitialDelay(a.initialDelay),
		}
		if a.sleep != nil {
			opts = append(opts, common.WithSleep(a.sleep))
		}

		attempt := 0
		err := common.Do(ctx, func() error {
			attempt++
			analysis, appraisErr := a.appraiser.Appraise(ctx, repo)
			if appraisErr != nil {
				slog.Warn("仓库分析尝试失败",
					"repo", repo.Name, "attempt", attempt, "max", a.maxAttempts, "err", appraisErr)
				return appraisErr
			}
			repo.Analysis = analysis
			return nil
		}, opts...)

		if err != nil {
			// 重试已耗尽或遇到必然失败，该仓库降级为只有爬虫数据
			repo.Analysis = nil
			failed++
			slog.Error("仓库分析失败，降级为无分析", "repo", repo.Name, "err", err)
		} else {
			succeeded++
		}

		if i < total-1 && a.requestDelay > 0 {
			if sleepErr := a.pause(ctx); sleepErr != nil {
				// context 已取消，剩余仓库全部按失败计
				failed += total - i - 1
				slog.Warn("批量分析被取消", "remaining", total-i-1)
				break
			}
		}
	}

	slog.Info("批量分析完成", "succeeded", succeeded, "failed", failed)
	return succeeded, failed
}

func (a *BatchAnalyzer) pause(ctx context.Context) error {
	if a.sleep != nil {
		return a.sleep(ctx, a.requestDelay)
	}
	timer := time.NewTimer(a.requestDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
