package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github-trending-digest/internal/common"
	"github-trending-digest/internal/config"
	"github-trending-digest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func testEmailConfig() config.EmailConfig {
	return config.EmailConfig{
		SMTPHost:   "smtp.example.com",
		SMTPPort:   465,
		Sender:     "bot@example.com",
		SenderName: "GitHub Trending Bot",
		Password:   "secret",
		Recipients: []string{"alice@example.com", "bob@example.com"},
		Subject:    "GitHub 流行仓库报告",
	}
}

func testReport() *domain.Report {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	return domain.NewReport(domain.PeriodDaily, now, []*domain.Repo{
		{Rank: 1, Name: "gohugoio/hugo", URL: "https://github.com/gohugoio/hugo", Stars: 100, Forks: 10},
	})
}

func TestNotifier_Notify(t *testing.T) {
	var sent *gomail.Message
	n := NewNotifier(testEmailConfig())
	n.send = func(m *gomail.Message) error {
		sent = m
		return nil
	}

	err := n.Notify(context.Background(), testReport())
	require.NoError(t, err)
	require.NotNil(t, sent)

	assert.Equal(t, []string{`"GitHub Trending Bot" <bot@example.com>`}, sent.GetHeader("From"))
	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, sent.GetHeader("To"))

	subject := sent.GetHeader("Subject")
	require.Len(t, subject, 1)
	assert.Contains(t, subject[0], "每日 GitHub 流行仓库报告")
	assert.Contains(t, subject[0], "2026年08月28日")
}

func TestNotifier_Notify_投递失败返回投递错误(t *testing.T) {
	n := NewNotifier(testEmailConfig())
	n.send = func(*gomail.Message) error {
		return errors.New("535 authentication failed")
	}

	err := n.Notify(context.Background(), testReport())
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeDelivery))
}

func TestNewNotifier_端口决定加密方式(t *testing.T) {
	// 465 走 SSL 直连；587 在拨号后升级，不能提前开 SSL
	implicit := gomail.NewDialer("smtp.example.com", 465, "a", "b")
	implicit.SSL = true
	explicit := gomail.NewDialer("smtp.example.com", 587, "a", "b")

	assert.True(t, implicit.SSL)
	assert.False(t, explicit.SSL)
}
