package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backoffice/internal/database"
	"backoffice/internal/events"
	"backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	db     *database.DB
	gw     *fakeGateway
	svc    *BookingService
	events []string
}

func newBookingFixture(t *testing.T) *bookingFixture {
	f := &bookingFixture{db: newTestDB(t), gw: &fakeGateway{}}
	bus := events.NewEventBus(nil)
	for _, et := range []string{events.EventBookingCreated, events.EventBookingUpdated, events.EventBookingDeleted} {
		bus.Subscribe(et, func(e *events.Event) error {
			f.events = append(f.events, e.Type)
			return nil
		})
	}
	mirror := NewMirrorPublisher(f.db, f.db, f.gw, receiverChat, nopLogger())
	f.svc = NewBookingService(f.db, mirror, bus, nopLogger())
	return f
}

func sampleRequest() BookingRequest {
	return BookingRequest{
		Amount:        300,
		Duration:      90,
		PaymentMethod: models.PaymentCash,
		ProfitShare:   models.ProfitShared,
		Staff:         "Praw",
		Service:       "Thai",
		Start:         time.Date(2025, 6, 1, 16, 30, 0, 0, time.Local),
		ClientPhone:   "971500000001",
		Source:        models.SourceStaff,
		ChatID:        42,
	}
}

func TestGenerateBookingID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateBookingID()
		require.NoError(t, err)
		assert.Regexp(t, `^[A-Z0-9]{6}$`, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 90)
}

func TestBookingCreate(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, sampleRequest(), func(b *models.Booking) string {
		return "Confirmed " + b.BookingID
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, b.Status)
	assert.True(t, b.Shared)
	assert.True(t, b.SlotEnd.Equal(b.SlotStart.Add(90*time.Minute)))

	stored, err := f.db.GetBooking(ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, "Praw", stored.AssignedStaff)
	assert.True(t, stored.HasMirror())

	require.Len(t, f.gw.sent, 1)
	assert.Equal(t, "Confirmed "+b.BookingID, f.gw.sent[0].Text)
	assert.Equal(t, []string{events.EventBookingCreated}, f.events)
}

func TestBookingCreateClientSourceIsPending(t *testing.T) {
	f := newBookingFixture(t)
	req := sampleRequest()
	req.Source = models.SourceClient
	req.ProfitShare = models.ProfitOnlyRanjeet
	req.Staff = ""

	b, err := f.svc.Create(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.False(t, b.Shared)
	assert.Empty(t, b.AssignedStaff)
	assert.Empty(t, f.gw.sent)
}

func TestBookingCreateRetriesOnCollision(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	ids := []string{"TAKEN1", "TAKEN1", "FRESH1"}
	f.svc.newID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	_, err := f.svc.Create(ctx, sampleRequest(), nil)
	require.NoError(t, err)

	b, err := f.svc.Create(ctx, sampleRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "FRESH1", b.BookingID)
}

func TestBookingCreateGivesUpAfterFiveCollisions(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	calls := 0
	f.svc.newID = func() (string, error) {
		calls++
		return "SAME01", nil
	}

	_, err := f.svc.Create(ctx, sampleRequest(), nil)
	require.NoError(t, err)
	calls = 0

	_, err = f.svc.Create(ctx, sampleRequest(), nil)
	assert.ErrorIs(t, err, ErrBookingIDExhausted)
	assert.Equal(t, maxIDAttempts, calls)
}

func TestBookingCreateIDError(t *testing.T) {
	f := newBookingFixture(t)
	f.svc.newID = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err := f.svc.Create(context.Background(), sampleRequest(), nil)
	assert.Error(t, err)
}

func TestBookingUpdateRepublishesOnce(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, sampleRequest(), func(*models.Booking) string { return "first" })
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, b.BookingID, 42, func(b *models.Booking) error {
		b.AssignedStaff = "Jenny"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Jenny", updated.AssignedStaff)

	require.Len(t, f.gw.sent, 2)
	assert.Contains(t, f.gw.sent[1].Text, "Updated Booking")
	assert.Equal(t, []int{f.gw.sent[0].ID}, f.gw.deleted)
	assert.Equal(t, []string{events.EventBookingCreated, events.EventBookingUpdated}, f.events)

	_, err = f.svc.Update(ctx, "NOPE00", 42, func(*models.Booking) error { return nil })
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestBookingUpdateRejectsInvalidStatus(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, sampleRequest(), nil)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, b.BookingID, 42, func(b *models.Booking) error {
		b.Status = "Lost"
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestBookingCancel(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, sampleRequest(), func(*models.Booking) string { return "first" })
	require.NoError(t, err)

	canceled, err := f.svc.Cancel(ctx, b.BookingID, 42)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, canceled.Status)

	stored, err := f.db.GetBooking(ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, stored.Status)
	assert.False(t, stored.HasMirror())
	assert.Equal(t, []int{f.gw.sent[0].ID}, f.gw.deleted)
	assert.Len(t, f.gw.sent, 1, "cancel must not republish")
}

func TestBookingDelete(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, sampleRequest(), func(*models.Booking) string { return "first" })
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, b.BookingID, 42))
	_, err = f.db.GetBooking(ctx, b.BookingID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.Equal(t, []int{f.gw.sent[0].ID}, f.gw.deleted)
	assert.Equal(t, []string{events.EventBookingCreated, events.EventBookingDeleted}, f.events)

	assert.ErrorIs(t, f.svc.Delete(ctx, b.BookingID, 42), database.ErrNotFound)
}

func TestBookingLists(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	req := sampleRequest()
	_, err := f.svc.Create(ctx, req, nil)
	require.NoError(t, err)
	req.Source = models.SourceClient
	pending, err := f.svc.Create(ctx, req, nil)
	require.NoError(t, err)

	recent, err := f.svc.Recent(ctx)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	onlyPending, err := f.svc.PendingBookings(ctx)
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, pending.BookingID, onlyPending[0].BookingID)

	got, err := f.svc.Get(ctx, pending.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}
