package service

import (
	"context"
	"fmt"

	"backoffice/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramService implements domain.ChatGateway on top of the Bot API.
type TelegramService struct {
	bot domain.TelegramSender
}

func NewTelegramService(bot domain.TelegramSender) *TelegramService {
	return &TelegramService{
		bot: bot,
	}
}

func (s *TelegramService) SendText(ctx context.Context, chatID int64, text, parseMode string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	sent, err := s.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

func (s *TelegramService) SendChoices(ctx context.Context, chatID int64, text string, rows [][]domain.Choice) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = inlineKeyboard(rows)
	sent, err := s.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send choices to %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

// DeleteMessage goes through Request: the API answers true, not a Message.
func (s *TelegramService) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

func (s *TelegramService) SendDocument(ctx context.Context, chatID int64, fileName string, data []byte, caption string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	doc.Caption = caption
	sent, err := s.bot.Send(doc)
	if err != nil {
		return 0, fmt.Errorf("send document to %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

func (s *TelegramService) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (s *TelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return s.bot.GetUpdatesChan(config)
}

func (s *TelegramService) GetSelf() tgbotapi.User {
	return s.bot.GetSelf()
}

func (s *TelegramService) StopReceivingUpdates() {
	s.bot.StopReceivingUpdates()
}

func inlineKeyboard(rows [][]domain.Choice) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, c := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Token))
		}
		keyboard = append(keyboard, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}
