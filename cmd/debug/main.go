package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github-trending-digest/internal/adapter/gemini"
	"github-trending-digest/internal/adapter/openai"
	"github-trending-digest/internal/adapter/trending"
	"github-trending-digest/internal/config"
	"github-trending-digest/internal/domain"
	"github-trending-digest/internal/port"
)

// 调试工具：单独验证抓取和 AI 分析两个环节，不落盘也不发邮件
func main() {
	periodFlag := flag.String("period", "daily", "抓取周期: daily/weekly/monthly")
	appraise := flag.Bool("appraise", false, "是否对第一个仓库做一次 AI 分析")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ 配置加载失败: %v", err)
	}

	period := domain.Period(*periodFlag)
	if !period.Valid() {
		log.Fatalf("❌ 周期不合法: %q", *periodFlag)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	fmt.Println("🔍 调试模式：抓取 trending 榜单")
	scouter := trending.NewClient(cfg.Source)
	repos, err := scouter.Scout(ctx, period, cfg.Source.Language, cfg.Source.MaxRepos)
	if err != nil {
		log.Fatalf("❌ 抓取失败: %v", err)
	}
	fmt.Printf("✅ 成功获取 %d 个仓库\n\n", len(repos))

	for _, repo := range repos {
		fmt.Printf("  #%d %s\n", repo.Rank, repo.Name)
		fmt.Printf("     ⭐ %d (本期 +%d) 🍴 %d  语言: %s\n",
			repo.Stars, repo.PeriodStars, repo.Forks, repo.Language)
		if repo.Description != "" {
			fmt.Printf("     %s\n", repo.Description)
		}
		fmt.Println()
	}

	if !*appraise || len(repos) == 0 {
		return
	}

	fmt.Printf("🧠 对 %s 执行一次 AI 分析 (provider=%s)...\n", repos[0].Name, cfg.AI.Provider)

	var appraiser port.Appraiser
	switch cfg.AI.Provider {
	case "gemini":
		g, err := gemini.NewAppraiser(ctx, cfg.AI)
		if err != nil {
			log.Fatalf("❌ AI 初始化失败: %v", err)
		}
		defer g.Close()
		appraiser = g
	default:
		appraiser = openai.NewAppraiser(cfg.AI)
	}

	analysis, err := appraiser.Appraise(ctx, repos[0])
	if err != nil {
		log.Fatalf("❌ 分析失败: %v", err)
	}

	for _, dim := range analysis.Dimensions() {
		fmt.Printf("  %s: %s\n", dim.Label, dim.Value)
	}
}
