package domain

import (
	"fmt"
	"time"
)

// Period 表示一次 trending 快照覆盖的时间窗口
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// AllPeriods 按展示顺序列出所有合法周期
var AllPeriods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly}

// Valid 判断周期取值是否合法
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Label 返回周期的中文展示文本，用于邮件主题前缀
func (p Period) Label() string {
	switch p {
	case PeriodWeekly:
		return "每周"
	case PeriodMonthly:
		return "每月"
	default:
		return "每日"
	}
}

// Repo 代表 trending 榜单上的一个仓库
type Repo struct {
	// 基础信息 (来自 trending 页面)
	Rank        int    `json:"rank"` // 榜单内排名，从 1 开始
	Name        string `json:"name"` // 例如 "gohugoio/hugo"
	URL         string `json:"url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`

	// 周期内新增 star 数，trending 榜单真正关键的字段
	// 含义取决于抓取时请求的周期 (daily/weekly/monthly)
	PeriodStars int `json:"period_stars"`

	// 详情补全 (来自 GitHub API，可选)
	OpenIssues int       `json:"open_issues,omitempty"`
	Topics     []string  `json:"topics,omitempty"`
	PushedAt   time.Time `json:"pushed_at,omitzero"`

	// AI 分析结果，分析失败时为 nil
	Analysis *Analysis `json:"analysis,omitempty"`
}

// Owner 从 "owner/repo" 形式的名字里拆出所有者和仓库名
func (r *Repo) Owner() (owner, name string, err error) {
	for i := 0; i < len(r.Name); i++ {
		if r.Name[i] == '/' {
			return r.Name[:i], r.Name[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("仓库名格式不正确: %q", r.Name)
}

// Stats 报告级别的聚合统计，始终由仓库列表重新计算
type Stats struct {
	Count      int `json:"count"`
	TotalStars int `json:"total_stars"`
	TotalForks int `json:"total_forks"`
	Analyzed   int `json:"analyzed"` // AI 分析成功的数量
}

// Report 一次流水线运行的最终产物，也是持久化和邮件投递的单位
type Report struct {
	Period      Period    `json:"period"`
	Date        string    `json:"date"` // 报告槽位日期 YYYY-MM-DD
	GeneratedAt time.Time `json:"generated_at"`
	Repos       []*Repo   `json:"repos"`
	Stats       Stats     `json:"stats"`
}

// NewReport 构造最终报告，聚合统计在此一次性算出
func NewReport(period Period, now time.Time, repos []*Repo) *Report {
	r := &Report{
		Period:      period,
		Date:        now.Format("2006-01-02"),
		GeneratedAt: now,
		Repos:       repos,
	}
	r.Stats = r.ComputeStats()
	return r
}

// ComputeStats 由当前仓库列表重新计算聚合统计
// 统计值永远不从外部传入，避免与列表内容产生漂移
func (r *Report) ComputeStats() Stats {
	s := Stats{Count: len(r.Repos)}
	for _, repo := range r.Repos {
		s.TotalStars += repo.Stars
		s.TotalForks += repo.Forks
		if repo.Analysis != nil && repo.Analysis.Succeeded {
			s.Analyzed++
		}
	}
	return s
}

// DisplayDate 返回周期对应的中文日期文本，用于邮件主题和报告标题
func (r *Report) DisplayDate() string {
	t := r.GeneratedAt
	switch r.Period {
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d年第%d周", year, week)
	case PeriodMonthly:
		return t.Format("2006年01月")
	default:
		return t.Format("2006年01月02日")
	}
}
