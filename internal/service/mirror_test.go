package service

import (
	"context"
	"testing"
	"time"

	"backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const receiverChat = int64(-100500)

func seedBooking(t *testing.T, ctx context.Context, repo interface {
	CreateBooking(context.Context, *models.Booking) error
}, id string) *models.Booking {
	t.Helper()
	start := time.Date(2025, 5, 20, 15, 0, 0, 0, time.Local)
	b := &models.Booking{
		BookingID:     id,
		ClientPhone:   "971500000001",
		ServiceType:   "Thai",
		Duration:      60,
		RequestedDate: start,
		SlotStart:     start,
		SlotEnd:       start.Add(time.Hour),
		Amount:        250,
		Status:        models.StatusPending,
		Source:        models.SourceClient,
	}
	require.NoError(t, repo.CreateBooking(ctx, b))
	return b
}

func TestMirrorPublish(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	gw := &fakeGateway{}
	p := NewMirrorPublisher(db, db, gw, receiverChat, nopLogger())

	b := seedBooking(t, ctx, db, "MIR001")
	require.NoError(t, p.Publish(ctx, b, "✅ *Booking Confirmed!*"))

	require.Len(t, gw.sent, 1)
	assert.Equal(t, receiverChat, gw.sent[0].ChatID)

	stored, err := db.GetBooking(ctx, "MIR001")
	require.NoError(t, err)
	assert.Equal(t, receiverChat, stored.GroupChatID)
	assert.Equal(t, gw.sent[0].ID, stored.GroupMessageID)
}

func TestMirrorPublishSendFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	gw := &fakeGateway{failSend: true}
	p := NewMirrorPublisher(db, db, gw, receiverChat, nopLogger())

	b := seedBooking(t, ctx, db, "MIR002")
	require.NoError(t, p.Publish(ctx, b, "text"))

	stored, err := db.GetBooking(ctx, "MIR002")
	require.NoError(t, err)
	assert.False(t, stored.HasMirror())
}

func TestMirrorRepublish(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	gw := &fakeGateway{}
	p := NewMirrorPublisher(db, db, gw, receiverChat, nopLogger())

	require.NoError(t, db.CreateClient(ctx, &models.Client{Phone: "971500000001", Name: "Ann", Address: "Marina"}))
	b := seedBooking(t, ctx, db, "MIR003")
	require.NoError(t, p.Publish(ctx, b, "first"))
	oldID := gw.sent[0].ID

	require.NoError(t, p.Republish(ctx, "MIR003"))

	assert.Equal(t, []int{oldID}, gw.deleted)
	require.Len(t, gw.sent, 2)
	text := gw.sent[1].Text
	assert.Contains(t, text, "🔄 *Updated Booking:*")
	assert.Contains(t, text, "*Booking ID:* MIR003")
	assert.Contains(t, text, "*Date:* 20-05-2025")
	assert.Contains(t, text, "*Time:* 3:00 PM")
	assert.Contains(t, text, "*Staff:* Not Assigned")
	assert.Contains(t, text, "*Name:* Ann")
	assert.Contains(t, text, "*Gender:* Not provided")
	assert.Contains(t, text, "*Map Link:* Not provided")

	stored, err := db.GetBooking(ctx, "MIR003")
	require.NoError(t, err)
	assert.Equal(t, gw.sent[1].ID, stored.GroupMessageID)
}

func TestMirrorRepublishTwiceKeepsOneMirror(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	gw := &fakeGateway{}
	p := NewMirrorPublisher(db, db, gw, receiverChat, nopLogger())

	b := seedBooking(t, ctx, db, "MIR007")
	b.AssignedStaff = "Jenny"
	require.NoError(t, db.UpdateBooking(ctx, b))
	require.NoError(t, p.Publish(ctx, b, "first"))

	require.NoError(t, p.Republish(ctx, "MIR007"))
	require.NoError(t, p.Republish(ctx, "MIR007"))

	require.Len(t, gw.sent, 3)
	first, second, third := gw.sent[0].ID, gw.sent[1].ID, gw.sent[2].ID
	assert.NotEqual(t, first, second)
	assert.NotEqual(t, first, third)
	assert.NotEqual(t, second, third)
	assert.Equal(t, []int{first, second}, gw.deleted)
	assert.Contains(t, gw.sent[2].Text, "*Staff:* Jenny")

	stored, err := db.GetBooking(ctx, "MIR007")
	require.NoError(t, err)
	assert.Equal(t, receiverChat, stored.GroupChatID)
	assert.Equal(t, third, stored.GroupMessageID)
}

func TestMirrorRepublishWithoutClientOrMirror(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	gw := &fakeGateway{failDel: true}
	p := NewMirrorPublisher(db, db, gw, receiverChat, nopLogger())

	seedBooking(t, ctx, db, "MIR004")
	require.NoError(t, p.Republish(ctx, "MIR004"))

	assert.Empty(t, gw.deleted)
	require.Len(t, gw.sent, 1)
	assert.Contains(t, gw.sent[0].Text, "*Name:* Not provided")
	assert.Contains(t, gw.sent[0].Text, "*Address:* Not provided")
}

func TestMirrorRepublishSendFailureClearsReference(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	gw := &fakeGateway{}
	p := NewMirrorPublisher(db, db, gw, receiverChat, nopLogger())

	b := seedBooking(t, ctx, db, "MIR005")
	require.NoError(t, p.Publish(ctx, b, "first"))

	gw.failSend = true
	require.NoError(t, p.Republish(ctx, "MIR005"))

	stored, err := db.GetBooking(ctx, "MIR005")
	require.NoError(t, err)
	assert.False(t, stored.HasMirror())
}

func TestMirrorRetract(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	gw := &fakeGateway{}
	p := NewMirrorPublisher(db, db, gw, receiverChat, nopLogger())

	b := seedBooking(t, ctx, db, "MIR006")
	require.NoError(t, p.Publish(ctx, b, "first"))

	require.NoError(t, p.Retract(ctx, "MIR006"))
	assert.Equal(t, []int{gw.sent[0].ID}, gw.deleted)
	assert.Len(t, gw.sent, 1)

	assert.Error(t, p.Retract(ctx, "NOPE00"))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `maps.app/a\_b\*c`, EscapeMarkdown("maps.app/a_b*c"))
	assert.Equal(t, "plain", EscapeMarkdown("plain"))
}
