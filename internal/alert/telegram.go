package alert

import (
	"context"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"
)

// Notifier pushes operational alerts to a Telegram chat. A nil Notifier or
// one built without a token drops alerts silently, so callers never need to
// guard the call site.
type Notifier struct {
	bot    *telego.Bot
	chatID int64
	logger *zap.Logger
}

func NewNotifier(token string, chatID int64, logger *zap.Logger) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := telego.NewBot(token, telego.WithDefaultLogger(false, false))
	if err != nil {
		return nil, err
	}
	return &Notifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// Send delivers one alert, best effort. Failures are logged and swallowed;
// alerting must never take the pipeline down with it.
func (n *Notifier) Send(ctx context.Context, text string) {
	if n == nil || n.bot == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(n.chatID), text)); err != nil {
		if n.logger != nil {
			n.logger.Warn("failed to send telegram alert", zap.Error(err))
		}
	}
}
