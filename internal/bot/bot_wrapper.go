package bot

import (
	"fmt"

	"backoffice/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotWrapper adapts *tgbotapi.BotAPI to domain.TelegramSender.
type BotWrapper struct {
	*tgbotapi.BotAPI
}

func (w *BotWrapper) GetSelf() tgbotapi.User {
	return w.Self
}

func NewBotWrapper(api *tgbotapi.BotAPI) *BotWrapper {
	return &BotWrapper{BotAPI: api}
}

// Connect authorizes against the Bot API with the configured token.
func Connect(cfg config.TelegramConfig) (*BotWrapper, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = cfg.Debug
	return NewBotWrapper(api), nil
}
