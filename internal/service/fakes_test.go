package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"backoffice/internal/database"
	"backoffice/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	ChatID int64
	ID     int
	Text   string
}

type fakeGateway struct {
	mu       sync.Mutex
	nextID   int
	sent     []sentMessage
	deleted  []int
	failSend bool
	failDel  bool
}

func (g *fakeGateway) SendText(_ context.Context, chatID int64, text, _ string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSend {
		return 0, errors.New("chat not found")
	}
	g.nextID++
	g.sent = append(g.sent, sentMessage{ChatID: chatID, ID: g.nextID, Text: text})
	return g.nextID, nil
}

func (g *fakeGateway) SendChoices(ctx context.Context, chatID int64, text string, _ [][]domain.Choice) (int, error) {
	return g.SendText(ctx, chatID, text, "")
}

func (g *fakeGateway) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failDel {
		return errors.New("message to delete not found")
	}
	g.deleted = append(g.deleted, messageID)
	return nil
}

func (g *fakeGateway) SendDocument(ctx context.Context, chatID int64, fileName string, _ []byte, _ string) (int, error) {
	return g.SendText(ctx, chatID, fileName, "")
}

func (g *fakeGateway) AnswerCallback(context.Context, string, string) error { return nil }

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
