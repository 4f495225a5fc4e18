package telegram

import (
	"net/http"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Telegram 运行事件通知器，只发消息，不处理入站指令
type Telegram struct {
	logger   *zap.Logger
	settings Settings
	client   *tele.Bot
}

// Settings 连接参数
type Settings struct {
	Token  string
	ChatID string
	Client *http.Client
}

// Option 构造选项
type Option func(telegram *Telegram)

// NewTelegram 创建通知器
func NewTelegram(logger *zap.Logger, settings Settings, options ...Option) (*Telegram, error) {
	client, err := tele.NewBot(tele.Settings{
		ParseMode: tele.ModeMarkdown,
		Token:     settings.Token,
		Client:    settings.Client,
		Poller:    &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}

	bot := &Telegram{
		logger:   logger,
		settings: settings,
		client:   client,
	}

	for _, option := range options {
		option(bot)
	}

	return bot, nil
}

// Notify 向配置的会话发送通知，失败只记日志，不影响调用方
func (r *Telegram) Notify(msg string) {
	chatID := cast.ToInt64(r.settings.ChatID)
	_, err := r.client.Send(tele.ChatID(chatID), msg, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	if err != nil {
		r.logger.Warn("failed to send telegram notification", zap.Error(err))
	}
}
