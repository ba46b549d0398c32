// Package scheduler 实现低频轮询式的定时触发：
// 每隔固定间隔醒来一次，把当前时间和各周期的触发规则比对，
// 命中就同步执行一次流水线。触发判断是纯函数，可以脱离真实时间测试
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github-trending-digest/internal/domain"
)

// 默认每 30 秒检查一次
const defaultPollInterval = 30 * time.Second

// Rule 一个周期的触发规则：
// daily 每天 HH:MM，weekly 每周一 HH:MM，monthly 每月 1 号 HH:MM
type Rule struct {
	Period domain.Period
	Hour   int
	Minute int
}

// Matches 判断给定时刻是否命中规则（精确到分钟）
func (r Rule) Matches(now time.Time) bool {
	if now.Hour() != r.Hour || now.Minute() != r.Minute {
		return false
	}
	switch r.Period {
	case domain.PeriodWeekly:
		return now.Weekday() == time.Monday
	case domain.PeriodMonthly:
		return now.Day() == 1
	default:
		return true
	}
}

// RunFunc 执行一次指定周期的流水线
type RunFunc func(ctx context.Context, period domain.Period)

// Scheduler 单线程协作式轮询调度器。
// 流水线同步执行，执行期间不再醒来，天然不会有重叠运行
type Scheduler struct {
	rules     []Rule
	loc       *time.Location
	interval  time.Duration
	run       RunFunc
	nowFunc   func() time.Time
	lastFired map[domain.Period]time.Time
}

// New 创建调度器
func New(rules []Rule, loc *time.Location, run RunFunc) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		rules:     rules,
		loc:       loc,
		interval:  defaultPollInterval,
		run:       run,
		nowFunc:   time.Now,
		lastFired: make(map[domain.Period]time.Time),
	}
}

// Tick 执行一次醒来检查。命中规则的周期同步执行流水线，
// 同一个匹配分钟内多次检查只会触发一次
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.nowFunc().In(s.loc)
	for _, rule := range s.rules {
		if !rule.Matches(now) {
			continue
		}
		if sameMinute(s.lastFired[rule.Period], now) {
			continue
		}
		s.lastFired[rule.Period] = now

		slog.Info("定时任务触发", "period", rule.Period, "at", now.Format("2006-01-02 15:04"))
		s.run(ctx, rule.Period)
	}
}

// Run 阻塞运行轮询循环，直到 context 被取消。
// 流水线运行期间的错误由 RunFunc 自行消化，循环永远继续
func (s *Scheduler) Run(ctx context.Context) {
	for _, rule := range s.rules {
		slog.Info("定时任务已设置",
			"period", rule.Period,
			"at", timeOfDay(rule.Hour, rule.Minute),
			"timezone", s.loc.String())
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("调度器已停止")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

func sameMinute(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}

func timeOfDay(hour, minute int) string {
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04")
}
