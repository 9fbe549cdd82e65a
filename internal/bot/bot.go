package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/domain"
	"backoffice/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	updateTimeout = 30 * time.Second
	queueSize     = 64
	msgSlowDown   = "⚠️ You are sending messages too fast. Please wait a moment."
)

// Transport is the Telegram side of the bot: the outbound gateway plus the
// long-polling update feed.
type Transport interface {
	domain.ChatGateway
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type Bot struct {
	transport Transport
	engine    *Engine
	limiter   domain.RateLimiter
	cfg       config.BotConfig
	poll      int
	logger    *zerolog.Logger
}

func NewBot(transport Transport, engine *Engine, limiter domain.RateLimiter, cfg *config.Config, logger *zerolog.Logger) *Bot {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Bot{
		transport: transport,
		engine:    engine,
		limiter:   limiter,
		cfg:       cfg.Bot,
		poll:      cfg.Telegram.PollTimeout,
		logger:    logger,
	}
}

// Start consumes updates until ctx is done or the feed closes. Updates of one
// chat always land on the same worker, so they are handled in arrival order.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.poll

	updates := b.transport.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.transport.GetSelf().UserName).Msg("Authorized on account")

	workers := b.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queues := make([]chan tgbotapi.Update, workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan tgbotapi.Update, queueSize)
		wg.Add(1)
		go func(q <-chan tgbotapi.Update) {
			defer wg.Done()
			for update := range q {
				b.processUpdate(ctx, update)
			}
		}(queues[i])
	}

	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			chatID := chatOf(update)
			if chatID == 0 {
				continue
			}
			idx := int(uint64(chatID) % uint64(len(queues)))
			select {
			case queues[idx] <- update:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.transport == nil {
		return
	}
	b.transport.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()

	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	chatID := chatOf(update)
	ev, ok := eventOf(update)
	if chatID == 0 || !ok {
		return
	}
	defer func() { metrics.ObserveUpdate(ev.Kind.String(), time.Since(start)) }()

	b.withRecovery(updateCtx, func() {
		if update.CallbackQuery != nil {
			if err := b.transport.AnswerCallback(updateCtx, update.CallbackQuery.ID, ""); err != nil {
				l.Debug().Err(err).Msg("Failed to answer callback")
			}
		}

		if !b.allowed(updateCtx, chatID) {
			if ev.Kind != EventChoice {
				if _, err := b.transport.SendText(updateCtx, chatID, msgSlowDown, ""); err != nil {
					l.Debug().Err(err).Msg("Failed to send rate limit notice")
				}
			}
			return
		}

		if err := b.engine.HandleEvent(updateCtx, chatID, ev); err != nil {
			l.Error().Err(err).Int64("chat_id", chatID).Str("event", ev.Kind.String()).Msg("Update handling failed")
		}
	})
}

func (b *Bot) allowed(ctx context.Context, chatID int64) bool {
	if b.limiter == nil {
		return true
	}
	ok, err := b.limiter.CheckRateLimit(ctx, chatID, b.cfg.RateLimitMessages, b.cfg.RateLimitWindow)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("Rate limit check failed")
		return true
	}
	if !ok {
		zerolog.Ctx(ctx).Warn().Int64("chat_id", chatID).Msg("Rate limit exceeded")
	}
	return ok
}

func chatOf(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

// eventOf reduces a Telegram update to an engine event.
func eventOf(update tgbotapi.Update) (Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		ev := Event{Kind: EventChoice, Token: cq.Data}
		if cq.Message != nil {
			ev.MessageID = cq.Message.MessageID
		}
		return ev, true
	}

	msg := update.Message
	if msg == nil {
		return Event{}, false
	}
	if msg.IsCommand() && strings.EqualFold(msg.Command(), "start") {
		return Event{Kind: EventStart, MessageID: msg.MessageID}, true
	}
	return Event{Kind: EventText, Body: msg.Text, MessageID: msg.MessageID}, true
}
