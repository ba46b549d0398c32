package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github-trending-digest/internal/common"
	"github-trending-digest/internal/domain"

	"github.com/joho/godotenv"
)

// 默认提示词：要求模型严格返回固定维度的 JSON，降低解析失败的概率
const defaultSystemPrompt = `你是一个专业的技术分析师，专门分析 GitHub 上的热门开源项目。
你的任务是生成清晰、有见地的仓库分析报告，帮助开发者了解项目的价值和适用场景。

请为每个仓库提供以下七个维度的分析，每个维度 1-2 句话：
1. highlights - 项目亮点：这个项目最吸引人的特点
2. use_cases - 适用场景：这个项目最适合用于什么情况
3. tech_stack - 技术栈/核心依赖：使用的主要技术
4. comparison - 与同类项目对比：优势和劣势
5. learning_curve - 上手难度：学习曲线评估
6. activity - 活跃度评估：社区和更新频率
7. audience - 目标用户：适合哪些开发者

请严格返回一个 JSON 对象，键为上述七个英文字段名，值为中文分析文本。
请直接返回 JSON，不要包含 Markdown 格式标记。`

const defaultUserPromptTemplate = `请分析以下 GitHub 仓库：

仓库名称：{name}
仓库地址：{url}
Stars：{stars}
Forks：{forks}
周期新增 Stars：{period_stars}
描述：{description}
主要语言：{language}

请按照系统提示的要求，生成 JSON 格式的分析报告。`

// SourceConfig trending 数据源配置
type SourceConfig struct {
	BaseURL     string        // trending 页面地址
	Language    string        // 语言过滤，空表示全部
	MaxRepos    int           // 单次抓取上限
	Timeout     time.Duration // 单次请求超时
	GitHubToken string        // 详情补全用的 GitHub Token，可为空
	Enrich      bool          // 是否启用 GitHub API 详情补全
}

// AIConfig AI 分析配置
type AIConfig struct {
	Provider     string // openai (兼容端点) 或 gemini
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float64
	Timeout      time.Duration
	MaxAttempts  int           // 单个仓库的总尝试次数
	InitialDelay time.Duration // 退避基础延迟
	Stream       bool          // 是否使用流式响应
	RequestDelay time.Duration // 批量分析中相邻仓库之间的固定延迟

	SystemPrompt       string
	UserPromptTemplate string
}

// UserPrompt 把仓库字段代入用户提示词模板
func (c AIConfig) UserPrompt(repo *domain.Repo) string {
	r := strings.NewReplacer(
		"{name}", repo.Name,
		"{url}", repo.URL,
		"{stars}", strconv.Itoa(repo.Stars),
		"{forks}", strconv.Itoa(repo.Forks),
		"{period_stars}", strconv.Itoa(repo.PeriodStars),
		"{description}", repo.Description,
		"{language}", repo.Language,
	)
	return r.Replace(c.UserPromptTemplate)
}

// EmailConfig 邮件投递配置
type EmailConfig struct {
	SMTPHost   string
	SMTPPort   int // 465 走 SSL 直连，其他端口走 STARTTLS
	Sender     string
	SenderName string
	Password   string
	Recipients []string
	Subject    string // 主题主体，周期前缀在发送时拼接
}

// ScheduleConfig 调度配置，进程启动时加载一次，之后只读
type ScheduleConfig struct {
	Hour     int
	Minute   int
	Timezone string
	Periods  []domain.Period // 启用的周期集合
}

// AppConfig 应用级配置
type AppConfig struct {
	LogLevel    string
	ReportsDir  string
	Overwrite   bool // 同一 (周期, 日期) 槽位重复生成时是否覆盖
	SaveHistory bool // 关闭后跳过报告落盘，只发邮件
}

// Config 进程级配置，启动时构造一次并显式传给各组件
type Config struct {
	Source   SourceConfig
	AI       AIConfig
	Email    EmailConfig
	Schedule ScheduleConfig
	App      AppConfig
}

// Load 从环境变量 (可选 .env 文件) 加载并校验配置。
// 校验失败的错误信息包含缺失的变量名和设置方式，方便排查。
func Load() (*Config, error) {
	// .env 不存在不算错误，生产环境通常直接注入环境变量
	_ = godotenv.Load()

	cfg := &Config{
		Source: SourceConfig{
			BaseURL:     getEnv("TRENDING_BASE_URL", "https://github.com/trending"),
			Language:    getEnv("GITHUB_LANGUAGE", ""),
			MaxRepos:    getEnvInt("MAX_REPOSITORIES", 10),
			Timeout:     getEnvSeconds("FETCH_TIMEOUT", 12),
			GitHubToken: getEnv("GITHUB_TOKEN", ""),
			Enrich:      getEnvBool("GITHUB_ENRICH", false),
		},
		AI: AIConfig{
			Provider:           strings.ToLower(getEnv("AI_PROVIDER", "openai")),
			BaseURL:            strings.TrimRight(getEnv("AI_BASE_URL", ""), "/"),
			APIKey:             getEnv("AI_API_KEY", ""),
			Model:              getEnv("AI_MODEL", ""),
			Temperature:        getEnvFloat("AI_TEMPERATURE", 0.7),
			Timeout:            getEnvSeconds("AI_TIMEOUT", 60),
			MaxAttempts:        getEnvInt("AI_MAX_RETRIES", 3),
			InitialDelay:       getEnvSeconds("AI_RETRY_DELAY", 1),
			Stream:             getEnvBool("AI_STREAM", false),
			RequestDelay:       getEnvSeconds("AI_REQUEST_DELAY", 1),
			SystemPrompt:       getEnv("AI_SYSTEM_PROMPT", defaultSystemPrompt),
			UserPromptTemplate: getEnv("AI_USER_PROMPT_TEMPLATE", defaultUserPromptTemplate),
		},
		Email: EmailConfig{
			SMTPHost:   getEnv("EMAIL_SMTP_SERVER", "smtp.qq.com"),
			SMTPPort:   getEnvInt("EMAIL_SMTP_PORT", 465),
			Sender:     getEnv("EMAIL_SENDER", ""),
			SenderName: getEnv("EMAIL_SENDER_NAME", "GitHub Trending Bot"),
			Password:   getEnv("EMAIL_PASSWORD", ""),
			Recipients: splitList(getEnv("EMAIL_RECIPIENTS", "")),
			Subject:    getEnv("EMAIL_SUBJECT", "GitHub 流行仓库报告"),
		},
		Schedule: ScheduleConfig{
			Hour:     getEnvInt("SCHEDULE_HOUR", 10),
			Minute:   getEnvInt("SCHEDULE_MINUTE", 0),
			Timezone: getEnv("TIMEZONE", "Asia/Shanghai"),
			Periods:  parsePeriods(getEnv("SCHEDULE_PERIODS", "daily")),
		},
		App: AppConfig{
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			ReportsDir:  getEnv("REPORTS_DIR", "./reports"),
			Overwrite:   getEnvBool("REPORTS_OVERWRITE", true),
			SaveHistory: getEnvBool("SAVE_HISTORY", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验必填项和取值范围
func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return common.NewError(common.ErrCodeConfig,
			"AI_API_KEY 未设置，请在 .env 或环境变量中配置 AI 提供方的 API Key")
	}
	switch c.AI.Provider {
	case "openai":
		if c.AI.BaseURL == "" {
			return common.NewError(common.ErrCodeConfig,
				"AI_BASE_URL 未设置，请配置 OpenAI 兼容端点地址 (例如 https://api.openai.com/v1)")
		}
	case "gemini":
		// Gemini 走官方 SDK，不需要 BaseURL
	default:
		return common.NewError(common.ErrCodeConfig,
			fmt.Sprintf("AI_PROVIDER 取值不合法: %q，支持 openai 或 gemini", c.AI.Provider))
	}
	if c.AI.Model == "" {
		return common.NewError(common.ErrCodeConfig,
			"AI_MODEL 未设置，请配置模型名称 (例如 gpt-4o-mini)")
	}
	if c.AI.MaxAttempts < 1 {
		return common.NewError(common.ErrCodeConfig, "AI_MAX_RETRIES 必须不小于 1")
	}

	if c.Email.Sender == "" || c.Email.Password == "" {
		return common.NewError(common.ErrCodeConfig,
			"邮件配置不完整，请设置 EMAIL_SENDER 和 EMAIL_PASSWORD (发件邮箱和授权码)")
	}
	if len(c.Email.Recipients) == 0 {
		return common.NewError(common.ErrCodeConfig,
			"EMAIL_RECIPIENTS 未设置，请配置收件人列表 (多个用逗号分隔)")
	}
	if c.Email.SMTPPort <= 0 || c.Email.SMTPPort > 65535 {
		return common.NewError(common.ErrCodeConfig,
			fmt.Sprintf("EMAIL_SMTP_PORT 取值不合法: %d", c.Email.SMTPPort))
	}

	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		return common.NewError(common.ErrCodeConfig,
			fmt.Sprintf("SCHEDULE_HOUR 取值不合法: %d，应在 0-23 之间", c.Schedule.Hour))
	}
	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		return common.NewError(common.ErrCodeConfig,
			fmt.Sprintf("SCHEDULE_MINUTE 取值不合法: %d，应在 0-59 之间", c.Schedule.Minute))
	}
	if len(c.Schedule.Periods) == 0 {
		return common.NewError(common.ErrCodeConfig,
			"SCHEDULE_PERIODS 未包含任何合法周期，支持 daily/weekly/monthly")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return common.WrapError(common.ErrCodeConfig,
			fmt.Sprintf("TIMEZONE 取值不合法: %q", c.Schedule.Timezone), err)
	}

	if c.Source.MaxRepos < 1 {
		return common.NewError(common.ErrCodeConfig, "MAX_REPOSITORIES 必须不小于 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return fallback
}

// getEnvSeconds 按秒读取时长配置，和原有部署保持同一单位
func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parsePeriods(s string) []domain.Period {
	var out []domain.Period
	seen := map[domain.Period]bool{}
	for _, part := range strings.Split(s, ",") {
		p := domain.Period(strings.ToLower(strings.TrimSpace(part)))
		if p.Valid() && !seen[p] {
			out = append(out, p)
			seen[p] = true
		}
	}
	return out
}
