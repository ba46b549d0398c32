package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github-trending-digest/internal/common"
	"github-trending-digest/internal/domain"
	"github-trending-digest/internal/render"
)

// FileStore 实现了 port.ReportStore 接口，
// 把报告以 JSON + HTML 两种格式写到本地目录
type FileStore struct {
	dir       string
	subject   string // HTML 标题用的主题主体
	overwrite bool   // 同槽位报告已存在时是否覆盖
}

// NewFileStore 创建文件报告存储
func NewFileStore(dir, subject string, overwrite bool) *FileStore {
	return &FileStore{
		dir:       dir,
		subject:   subject,
		overwrite: overwrite,
	}
}

// Paths 返回报告槽位对应的固定文件路径。
// 命名只由周期和日期决定，外部工具可以直接 glob：
// reports/report_daily_2026-08-28.json / .html
func (s *FileStore) Paths(report *domain.Report) (jsonPath, htmlPath string) {
	stem := fmt.Sprintf("report_%s_%s", report.Period, report.Date)
	return filepath.Join(s.dir, stem+".json"), filepath.Join(s.dir, stem+".html")
}

// Save 把报告写入槽位。JSON 是完整的结构化序列化，
// 足以在不重新抓取、不重新分析的前提下还原整个报告；
// HTML 独立渲染，和 JSON 字节互不依赖
func (s *FileStore) Save(_ context.Context, report *domain.Report) (string, string, error) {
	jsonPath, htmlPath := s.Paths(report)

	if !s.overwrite {
		if _, err := os.Stat(jsonPath); err == nil {
			return "", "", common.NewError(common.ErrCodePersistConflict,
				fmt.Sprintf("报告槽位已存在且禁止覆盖: %s", jsonPath))
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", "", common.WrapError(common.ErrCodePersist, "创建报告目录失败", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", "", common.WrapError(common.ErrCodePersist, "序列化报告失败", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", common.WrapError(common.ErrCodePersist, "写入 JSON 报告失败", err)
	}

	html, err := render.HTML(report, s.subject)
	if err != nil {
		return jsonPath, "", common.WrapError(common.ErrCodePersist, "渲染 HTML 报告失败", err)
	}
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return jsonPath, "", common.WrapError(common.ErrCodePersist, "写入 HTML 报告失败", err)
	}

	return jsonPath, htmlPath, nil
}

// Load 从 JSON 文件还原报告，供外部工具和测试使用
func Load(path string) (*domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.WrapError(common.ErrCodePersist, "读取报告文件失败", err)
	}
	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, common.WrapError(common.ErrCodePersist, "解析报告文件失败", err)
	}
	return &report, nil
}
