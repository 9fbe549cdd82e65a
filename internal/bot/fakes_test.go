package bot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"backoffice/internal/database"
	"backoffice/internal/domain"
	"backoffice/internal/events"
	"backoffice/internal/models"
	"backoffice/internal/service"
	"backoffice/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testChat     = int64(777)
	receiverChat = int64(-100500)
)

type outMessage struct {
	ChatID    int64
	ID        int
	Text      string
	ParseMode string
	Rows      [][]domain.Choice
	Document  string
}

// Tokens flattens the inline keyboard of the message.
func (m outMessage) Tokens() []string {
	var out []string
	for _, row := range m.Rows {
		for _, c := range row {
			out = append(out, c.Token)
		}
	}
	return out
}

type fakeGateway struct {
	mu       sync.Mutex
	nextID   int
	sent     []outMessage
	deleted  []int
	answered []string
	failSend bool
	updates  chan tgbotapi.Update
}

func (g *fakeGateway) record(m outMessage) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSend {
		return 0, errors.New("chat not found")
	}
	g.nextID++
	m.ID = g.nextID
	g.sent = append(g.sent, m)
	return m.ID, nil
}

func (g *fakeGateway) SendText(_ context.Context, chatID int64, text, parseMode string) (int, error) {
	return g.record(outMessage{ChatID: chatID, Text: text, ParseMode: parseMode})
}

func (g *fakeGateway) SendChoices(_ context.Context, chatID int64, text string, rows [][]domain.Choice) (int, error) {
	return g.record(outMessage{ChatID: chatID, Text: text, Rows: rows})
}

func (g *fakeGateway) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, messageID)
	return nil
}

func (g *fakeGateway) SendDocument(_ context.Context, chatID int64, fileName string, _ []byte, caption string) (int, error) {
	return g.record(outMessage{ChatID: chatID, Text: caption, Document: fileName})
}

func (g *fakeGateway) AnswerCallback(_ context.Context, callbackID, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answered = append(g.answered, callbackID)
	return nil
}

func (g *fakeGateway) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return g.updates
}

func (g *fakeGateway) GetSelf() tgbotapi.User { return tgbotapi.User{UserName: "backoffice_test_bot"} }

func (g *fakeGateway) StopReceivingUpdates() {}

func (g *fakeGateway) messagesTo(chatID int64) []outMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []outMessage
	for _, m := range g.sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (g *fakeGateway) deletedIDs() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int(nil), g.deleted...)
}

type engineFixture struct {
	t        *testing.T
	db       *database.DB
	gw       *fakeGateway
	sessions *session.Store
	bookings *service.BookingService
	engine   *Engine

	mu     sync.Mutex
	events []string
	userID int
}

func newEngineFixture(t *testing.T, opts ...func(*Settings)) *engineFixture {
	t.Helper()

	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &engineFixture{t: t, db: db, gw: &fakeGateway{}, userID: 10000}

	f.sessions = session.NewStore(f.gw, &logger)
	t.Cleanup(f.sessions.Close)

	bus := events.NewEventBus(&logger)
	for _, et := range []string{events.EventBookingCreated, events.EventBookingUpdated, events.EventBookingDeleted} {
		bus.Subscribe(et, func(e *events.Event) error {
			f.mu.Lock()
			f.events = append(f.events, e.Type)
			f.mu.Unlock()
			return nil
		})
	}

	mirror := service.NewMirrorPublisher(db, db, f.gw, receiverChat, &logger)
	f.bookings = service.NewBookingService(db, mirror, bus, &logger)

	settings := Settings{
		CleanupDelay:       time.Hour,
		ReportCleanupDelay: time.Hour,
		Location:           time.UTC,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	f.engine = NewEngine(f.gw, f.sessions, db, f.bookings, service.NewReportService(db), nil, settings, &logger)
	f.engine.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func (f *engineFixture) handle(ev Event) error {
	return f.engine.HandleEvent(context.Background(), testChat, ev)
}

func (f *engineFixture) start() {
	f.userID++
	require.NoError(f.t, f.handle(Event{Kind: EventStart, MessageID: f.userID}))
}

func (f *engineFixture) press(token string) {
	f.t.Helper()
	require.NoError(f.t, f.handle(Event{Kind: EventChoice, Token: token}), token)
}

func (f *engineFixture) say(text string) {
	f.t.Helper()
	f.userID++
	require.NoError(f.t, f.handle(Event{Kind: EventText, Body: text, MessageID: f.userID}), text)
}

// last returns the newest message sent to the test chat.
func (f *engineFixture) last() outMessage {
	f.t.Helper()
	msgs := f.gw.messagesTo(testChat)
	require.NotEmpty(f.t, msgs)
	return msgs[len(msgs)-1]
}

func (f *engineFixture) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *engineFixture) seedClient(phone, name, address string) *models.Client {
	f.t.Helper()
	c := &models.Client{Phone: phone, Name: name, Address: address}
	require.NoError(f.t, f.db.CreateClient(context.Background(), c))
	return c
}

func (f *engineFixture) seedBooking(phone, source string, start time.Time) *models.Booking {
	f.t.Helper()
	b, err := f.bookings.Create(context.Background(), service.BookingRequest{
		Amount:        300,
		Duration:      90,
		PaymentMethod: models.PaymentCash,
		ProfitShare:   models.ProfitShared,
		Staff:         "Praw",
		Service:       "Thai",
		Start:         start,
		ClientPhone:   phone,
		Source:        source,
		ChatID:        testChat,
	}, func(b *models.Booking) string { return "mirror " + b.BookingID })
	require.NoError(f.t, err)
	return b
}
