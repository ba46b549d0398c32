package trending

import (
	"strings"

	"github-trending-digest/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// Extractor 把解析后的榜单页面转换为有序的仓库记录。
// trending 页面没有稳定的机器契约，页面改版时新增一个实现即可，
// 不需要到处修补抓取逻辑
type Extractor interface {
	Extract(doc *goquery.Document) ([]*domain.Repo, error)
}

// BoxRowExtractor 匹配当前 (2025-2026) 的页面结构：
// 每个仓库是一个 article.Box-row 区块
type BoxRowExtractor struct{}

func (BoxRowExtractor) Extract(doc *goquery.Document) ([]*domain.Repo, error) {
	var repos []*domain.Repo

	doc.Find("article.Box-row").Each(func(_ int, row *goquery.Selection) {
		// 名称与链接来自 h2 内的 a 标签 href，比可见文本干净
		href, ok := row.Find("h2 a").First().Attr("href")
		if !ok {
			return // 跳过解析失败的单个条目
		}
		fullName := strings.Trim(strings.TrimSpace(href), "/")
		if fullName == "" || !strings.Contains(fullName, "/") {
			return
		}

		// 描述和语言是可选字段，缺失时留空而不是放弃整页
		description := strings.TrimSpace(row.Find("p.col-9").First().Text())
		language := strings.TrimSpace(row.Find(`[itemprop="programmingLanguage"]`).First().Text())

		muted := row.Find("a.Link--muted")
		stars := parseCount(muted.Eq(0).Text())
		forks := parseCount(muted.Eq(1).Text())

		// 周期新增 star 数，例如 "1,234 stars today"
		periodStars := parseCount(row.Find("span.float-sm-right").First().Text())

		repos = append(repos, &domain.Repo{
			Name:        fullName,
			URL:         "https://github.com/" + fullName,
			Description: description,
			Language:    language,
			Stars:       stars,
			Forks:       forks,
			PeriodStars: periodStars,
		})
	})

	return repos, nil
}

// parseCount 从 "1,234" 或 "1,234 stars today" 这类文本里解出整数
// 解析不了就按 0 处理
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")

	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
