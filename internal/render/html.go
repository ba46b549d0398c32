// Package render 把报告渲染成 HTML 和纯文本两种形式，
// 报告落盘和邮件正文共用同一套模板
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github-trending-digest/internal/domain"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f4f4f4; margin: 0; padding: 20px; }
.container { max-width: 800px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 8px rgba(0,0,0,0.1); }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; }
.header h1 { margin: 0; font-size: 28px; font-weight: 600; }
.header .date { margin-top: 10px; font-size: 14px; opacity: 0.9; }
.stats-summary { display: flex; justify-content: center; gap: 30px; padding: 15px; background-color: #f6f8fa; border-bottom: 1px solid #e1e4e8; }
.stats-summary div { text-align: center; }
.stats-summary .value { font-size: 24px; font-weight: bold; color: #0366d6; }
.stats-summary .label { font-size: 12px; color: #586069; }
.content { padding: 20px; }
.repo-card { border: 1px solid #e1e4e8; border-radius: 6px; margin-bottom: 20px; padding: 20px; background-color: #fff; }
.repo-header { display: flex; align-items: center; margin-bottom: 12px; }
.repo-number { background-color: #0366d6; color: white; width: 28px; height: 28px; border-radius: 50%; display: flex; align-items: center; justify-content: center; font-size: 14px; font-weight: bold; margin-right: 12px; flex-shrink: 0; }
.repo-name { margin: 0; font-size: 18px; flex-grow: 1; }
.repo-name a { color: #0366d6; text-decoration: none; }
.repo-stats { font-size: 14px; color: #586069; }
.repo-stats span { margin-left: 12px; }
.repo-description { color: #586069; font-size: 14px; margin-bottom: 12px; padding-left: 40px; }
.repo-analysis { background-color: #f6f8fa; border-radius: 6px; padding: 15px 15px 15px 40px; font-size: 14px; line-height: 1.8; }
.repo-analysis ul { margin: 0; padding-left: 20px; }
.repo-analysis li { margin-bottom: 6px; }
.footer { background-color: #f6f8fa; padding: 20px; text-align: center; font-size: 12px; color: #586069; border-top: 1px solid #e1e4e8; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>📊 {{.Title}}</h1>
    <div class="date">{{.Report.DisplayDate}} · GitHub {{.PeriodLabel}}精选</div>
  </div>
  <div class="stats-summary">
    <div><div class="value">{{.Report.Stats.Count}}</div><div class="label">精选仓库</div></div>
    <div><div class="value">{{comma .Report.Stats.TotalStars}}</div><div class="label">总 Stars</div></div>
    <div><div class="value">{{comma .Report.Stats.TotalForks}}</div><div class="label">总 Forks</div></div>
  </div>
  <div class="content">
    {{range .Report.Repos}}
    <div class="repo-card">
      <div class="repo-header">
        <span class="repo-number">{{.Rank}}</span>
        <h3 class="repo-name"><a href="{{.URL}}" target="_blank">{{.Name}}</a></h3>
        <div class="repo-stats">
          <span>⭐ {{comma .Stars}}</span>
          <span>🍴 {{comma .Forks}}</span>
          {{if .PeriodStars}}<span>📈 +{{comma .PeriodStars}}</span>{{end}}
        </div>
      </div>
      <div class="repo-description">{{if .Description}}{{.Description}}{{else}}暂无描述{{end}}</div>
      <div class="repo-analysis">
        {{if .Analysis}}
        <ul>
          {{range .Analysis.Dimensions}}<li><strong>{{.Label}}：</strong>{{.Value}}</li>
          {{end}}
        </ul>
        {{else}}{{unavailable}}{{end}}
      </div>
    </div>
    {{end}}
  </div>
  <div class="footer">
    <p>🤖 此报告由 GitHub Trending Bot 自动生成</p>
    <p>📧 {{.PeriodLabel}}定时发送</p>
  </div>
</div>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"comma":       comma,
	"unavailable": func() string { return domain.AnalysisUnavailable },
}).Parse(htmlTemplate))

type templateData struct {
	Report      *domain.Report
	Title       string
	PeriodLabel string
}

// Title 组合周期前缀和主题主体，例如 "每日 GitHub 流行仓库报告"
func Title(report *domain.Report, subject string) string {
	return report.Period.Label() + " " + subject
}

// HTML 渲染完整的 HTML 报告文档。
// 渲染只依赖 Report 结构本身，和落盘的 JSON 字节无关
func HTML(report *domain.Report, subject string) (string, error) {
	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, templateData{
		Report:      report,
		Title:       Title(report, subject),
		PeriodLabel: report.Period.Label(),
	})
	if err != nil {
		return "", fmt.Errorf("渲染 HTML 报告失败: %w", err)
	}
	return buf.String(), nil
}

// Text 渲染纯文本版本，作为邮件的降级正文
func Text(report *domain.Report, subject string) string {
	var b strings.Builder
	div := strings.Repeat("=", 60)
	sub := strings.Repeat("-", 60)

	b.WriteString(div + "\n")
	b.WriteString("📊 " + Title(report, subject) + "\n")
	b.WriteString("📅 " + report.DisplayDate() + "\n")
	b.WriteString(div + "\n\n")

	for _, repo := range report.Repos {
		fmt.Fprintf(&b, "【%d】%s\n", repo.Rank, repo.Name)
		fmt.Fprintf(&b, "🔗 %s\n", repo.URL)
		fmt.Fprintf(&b, "⭐ %s  |  🍴 %s", comma(repo.Stars), comma(repo.Forks))
		if repo.PeriodStars > 0 {
			fmt.Fprintf(&b, "  |  📈 +%s", comma(repo.PeriodStars))
		}
		b.WriteString("\n")
		desc := repo.Description
		if desc == "" {
			desc = "暂无描述"
		}
		fmt.Fprintf(&b, "📝 %s\n", desc)
		b.WriteString(sub + "\n")
		if repo.Analysis != nil {
			for _, dim := range repo.Analysis.Dimensions() {
				fmt.Fprintf(&b, "• %s：%s\n", dim.Label, dim.Value)
			}
		} else {
			b.WriteString(domain.AnalysisUnavailable + "\n")
		}
		b.WriteString(sub + "\n\n")
	}

	b.WriteString(div + "\n")
	fmt.Fprintf(&b, "📈 统计: 共 %d 个仓库，⭐ %s，🍴 %s\n",
		report.Stats.Count, comma(report.Stats.TotalStars), comma(report.Stats.TotalForks))
	b.WriteString("🤖 此报告由 GitHub Trending Bot 自动生成\n")
	b.WriteString(div + "\n")
	return b.String()
}

// comma 千分位格式化，75123 → "75,123"
func comma(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}
