package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github-trending-digest/internal/adapter/analyzer"
	"github-trending-digest/internal/adapter/gemini"
	"github-trending-digest/internal/adapter/github"
	"github-trending-digest/internal/adapter/mail"
	"github-trending-digest/internal/adapter/openai"
	"github-trending-digest/internal/adapter/report"
	"github-trending-digest/internal/adapter/trending"
	"github-trending-digest/internal/config"
	"github-trending-digest/internal/domain"
	"github-trending-digest/internal/logger"
	"github-trending-digest/internal/port"
	"github-trending-digest/internal/scheduler"
	"github-trending-digest/internal/service"
)

func main() {
	// 1. 命令行参数，优先级高于环境变量
	now := flag.Bool("now", false, "立即执行一次后退出，不进入调度循环")
	period := flag.String("period", "", "指定周期: daily/weekly/monthly/all (仅配合 -now，默认使用配置的周期)")
	hour := flag.Int("hour", -1, "覆盖调度小时 (0-23)")
	minute := flag.Int("minute", -1, "覆盖调度分钟 (0-59)")
	flag.Parse()

	// 2. 加载配置：失败时报错退出，不发起任何网络请求
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}
	if *hour >= 0 {
		cfg.Schedule.Hour = *hour
	}
	if *minute >= 0 {
		cfg.Schedule.Minute = *minute
	}
	if cfg.Schedule.Hour > 23 || cfg.Schedule.Minute > 59 {
		fmt.Fprintln(os.Stderr, "调度时间不合法: -hour 应在 0-23，-minute 应在 0-59")
		os.Exit(1)
	}

	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 组装流水线
	appraiser, cleanup, err := newAppraiser(ctx, cfg.AI)
	if err != nil {
		slog.Error("AI 客户端初始化失败", "provider", cfg.AI.Provider, "err", err)
		os.Exit(1)
	}
	defer cleanup()

	svc := buildService(cfg, appraiser)

	// 4. 执行模式分流
	if *now {
		if err := runOnce(ctx, svc, cfg, *period); err != nil {
			os.Exit(1)
		}
		return
	}
	runScheduled(ctx, svc, cfg)
}

// newAppraiser 按配置选择 AI 提供方
func newAppraiser(ctx context.Context, cfg config.AIConfig) (port.Appraiser, func(), error) {
	switch cfg.Provider {
	case "gemini":
		a, err := gemini.NewAppraiser(ctx, cfg)
		if err != nil {
			return nil, func() {}, err
		}
		return a, func() { _ = a.Close() }, nil
	default:
		return openai.NewAppraiser(cfg), func() {}, nil
	}
}

func buildService(cfg *config.Config, appraiser port.Appraiser) *service.DigestService {
	scouter := trending.NewClient(cfg.Source)

	var enricher port.Enricher
	if cfg.Source.Enrich {
		enricher = github.NewEnricher(cfg.Source.GitHubToken)
	}

	batch := analyzer.NewBatchAnalyzer(appraiser, cfg.AI)

	var store port.ReportStore
	if cfg.App.SaveHistory {
		store = report.NewFileStore(cfg.App.ReportsDir, cfg.Email.Subject, cfg.App.Overwrite)
	}

	notifier := mail.NewNotifier(cfg.Email)

	return service.NewDigestService(
		scouter, enricher, batch, store, notifier,
		cfg.Source.Language, cfg.Source.MaxRepos,
	)
}

// runOnce 立即执行一次指定周期 (或配置的全部周期) 后退出
func runOnce(ctx context.Context, svc *service.DigestService, cfg *config.Config, flagPeriod string) error {
	periods, err := resolvePeriods(flagPeriod, cfg.Schedule.Periods)
	if err != nil {
		slog.Error("周期参数不合法", "period", flagPeriod, "err", err)
		return err
	}

	var lastErr error
	for _, p := range periods {
		if _, err := svc.Run(ctx, p); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func resolvePeriods(flagPeriod string, configured []domain.Period) ([]domain.Period, error) {
	switch flagPeriod {
	case "":
		return configured, nil
	case "all":
		return domain.AllPeriods, nil
	default:
		p := domain.Period(flagPeriod)
		if !p.Valid() {
			return nil, fmt.Errorf("不支持的周期 %q，可选 daily/weekly/monthly/all", flagPeriod)
		}
		return []domain.Period{p}, nil
	}
}

// runScheduled 进入调度循环，直到收到退出信号
func runScheduled(ctx context.Context, svc *service.DigestService, cfg *config.Config) {
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		slog.Error("时区加载失败", "timezone", cfg.Schedule.Timezone, "err", err)
		os.Exit(1)
	}

	rules := make([]scheduler.Rule, 0, len(cfg.Schedule.Periods))
	for _, p := range cfg.Schedule.Periods {
		rules = append(rules, scheduler.Rule{
			Period: p,
			Hour:   cfg.Schedule.Hour,
			Minute: cfg.Schedule.Minute,
		})
	}

	s := scheduler.New(rules, loc, func(ctx context.Context, period domain.Period) {
		_, _ = svc.Run(ctx, period)
	})
	s.Run(ctx)
	slog.Info("收到退出信号，进程结束")
}
