package domain

import (
	"context"
	"time"

	"backoffice/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Choice is one inline button: Label is shown, Token comes back on press.
type Choice struct {
	Label string
	Token string
}

// ChatGateway is the outbound side of the chat transport.
type ChatGateway interface {
	SendText(ctx context.Context, chatID int64, text, parseMode string) (int, error)
	SendChoices(ctx context.Context, chatID int64, text string, rows [][]Choice) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendDocument(ctx context.Context, chatID int64, fileName string, data []byte, caption string) (int, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	SetBookingMirror(ctx context.Context, bookingID string, chatID int64, messageID int) error
	DeleteBooking(ctx context.Context, bookingID string) error
	ListRecentBookings(ctx context.Context, limit int) ([]*models.Booking, error)
	ListBookingsByStatus(ctx context.Context, status string, limit int) ([]*models.Booking, error)
	ListCompletedBookingsSince(ctx context.Context, start time.Time) ([]*models.Booking, error)
	StaffBookingStats(ctx context.Context, staff string, statuses []string, from, to *time.Time) (int, float64, error)
}

type ClientRepository interface {
	CreateClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, phone string) (*models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, phone string) error
	ListClients(ctx context.Context) ([]*models.Client, error)
}

type StaffRepository interface {
	CreateStaff(ctx context.Context, staff *models.Staff) error
	GetStaff(ctx context.Context, phone string) (*models.Staff, error)
	UpdateStaff(ctx context.Context, staff *models.Staff) error
	DeleteStaff(ctx context.Context, phone string) error
	ListStaff(ctx context.Context) ([]*models.Staff, error)
}

type ExpenseRepository interface {
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
	ListExpenses(ctx context.Context, limit int) ([]*models.Expense, error)
}

type ChatLogRepository interface {
	AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error
	ChatHistory(ctx context.Context, phone string, limit int) ([]*models.ChatMessage, error)
}

type SyncQueueRepository interface {
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// Store is the full record store used by the flow engine.
type Store interface {
	BookingRepository
	ClientRepository
	StaffRepository
	ExpenseRepository
}

// MirrorPublisher keeps a summary message in the receiver chat in step with a booking.
type MirrorPublisher interface {
	Publish(ctx context.Context, booking *models.Booking, text string) error
	Republish(ctx context.Context, bookingID string) error
	Retract(ctx context.Context, bookingID string) error
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, chatID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	DeleteBookingRow(ctx context.Context, bookingID string) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType, bookingID string, booking *models.Booking) error
}
