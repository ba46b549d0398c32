package mail

import (
	"context"
	"log/slog"

	"github-trending-digest/internal/common"
	"github-trending-digest/internal/config"
	"github-trending-digest/internal/domain"
	"github-trending-digest/internal/render"

	"gopkg.in/gomail.v2"
)

// Notifier 实现了 port.Notifier 接口，通过 SMTP 投递报告邮件
type Notifier struct {
	cfg  config.EmailConfig
	send func(*gomail.Message) error // 便于测试注入
}

// NewNotifier 创建邮件投递器
// 465 端口走 SSL 直连，587 等其他端口走 STARTTLS
func NewNotifier(cfg config.EmailConfig) *Notifier {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Sender, cfg.Password)
	dialer.SSL = cfg.SMTPPort == 465

	return &Notifier{
		cfg:  cfg,
		send: func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

// Notify 把报告渲染成多部分邮件 (纯文本 + HTML) 并一次性发给全部收件人。
// 任何连接、认证或投递错误都包装为投递错误返回，
// 由调用方决定降级，绝不影响已经落盘的报告
func (n *Notifier) Notify(_ context.Context, report *domain.Report) error {
	msg, err := n.buildMessage(report)
	if err != nil {
		return err
	}

	slog.Info("正在发送报告邮件",
		"period", report.Period, "recipients", len(n.cfg.Recipients))
	if err := n.send(msg); err != nil {
		return common.WrapError(common.ErrCodeDelivery, "邮件发送失败", err)
	}
	slog.Info("邮件发送成功", "period", report.Period)
	return nil
}

func (n *Notifier) buildMessage(report *domain.Report) (*gomail.Message, error) {
	html, err := render.HTML(report, n.cfg.Subject)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDelivery, "渲染邮件正文失败", err)
	}
	text := render.Text(report, n.cfg.Subject)
	subject := render.Title(report, n.cfg.Subject) + " - " + report.DisplayDate()

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(n.cfg.Sender, n.cfg.SenderName))
	msg.SetHeader("To", n.cfg.Recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("X-Mailer", "github-trending-digest/1.0")
	msg.SetBody("text/plain", text)
	msg.AddAlternative("text/html", html)
	return msg, nil
}
