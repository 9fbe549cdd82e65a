package database

import (
	"context"
	"testing"
	"time"

	"backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	c := &models.Client{Phone: "971501234567", Name: "Ann", Address: "Marina 1"}
	require.NoError(t, db.CreateClient(ctx, c))
	assert.ErrorIs(t, db.CreateClient(ctx, &models.Client{Phone: "971501234567", Address: "x"}), ErrDuplicate)

	got, err := db.GetClient(ctx, "971501234567")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Empty(t, got.MapLink)

	got.Phone = "971509999999"
	got.MapLink = "https://maps.example/1"
	require.NoError(t, db.UpdateClient(ctx, got))

	_, err = db.GetClient(ctx, "971501234567")
	assert.ErrorIs(t, err, ErrNotFound)
	moved, err := db.GetClient(ctx, "971509999999")
	require.NoError(t, err)
	assert.Equal(t, "https://maps.example/1", moved.MapLink)

	require.NoError(t, db.CreateClient(ctx, &models.Client{Phone: "111", Address: "Downtown"}))
	list, err := db.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, db.DeleteClient(ctx, "971509999999"))
	assert.ErrorIs(t, db.DeleteClient(ctx, "971509999999"), ErrNotFound)
}

func TestDeleteClientKeepsBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateClient(ctx, &models.Client{Phone: "971500000001", Address: "JLT"}))
	require.NoError(t, db.CreateBooking(ctx, newTestBooking("KEEP01", time.Now())))

	require.NoError(t, db.DeleteClient(ctx, "971500000001"))

	b, err := db.GetBooking(ctx, "KEEP01")
	require.NoError(t, err)
	assert.Equal(t, "971500000001", b.ClientPhone)
}

func TestStaffCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := &models.Staff{Name: "Praw", Phone: "971551112233", Salary: 3000}
	require.NoError(t, db.CreateStaff(ctx, s))
	assert.Equal(t, models.AvailabilityFree, s.AvailabilityStatus)
	assert.False(t, s.JoiningDate.IsZero())

	assert.ErrorIs(t, db.CreateStaff(ctx, &models.Staff{Name: "Copy", Phone: "971551112233"}), ErrDuplicate)

	got, err := db.GetStaff(ctx, "971551112233")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityFree, got.AvailabilityStatus)

	got.AvailabilityStatus = models.AvailabilityBusy
	got.Documents.Passport = "file-123"
	require.NoError(t, db.UpdateStaff(ctx, got))

	again, err := db.GetStaff(ctx, "971551112233")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityBusy, again.AvailabilityStatus)
	assert.Equal(t, "file-123", again.Documents.Passport)

	list, err := db.ListStaff(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, db.DeleteStaff(ctx, "971551112233"))
	_, err = db.GetStaff(ctx, "971551112233")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpenseCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	date := time.Date(2025, 2, 14, 0, 0, 0, 0, time.Local)

	e := &models.Expense{Category: "Fuel", Description: "Van", Amount: 120.5, Date: date}
	require.NoError(t, db.CreateExpense(ctx, e))
	require.NotZero(t, e.ID)

	got, err := db.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Van", got.Description)
	assert.True(t, got.Date.Equal(date))

	got.Amount = 99
	require.NoError(t, db.UpdateExpense(ctx, got))
	again, err := db.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.InDelta(t, 99.0, again.Amount, 0.001)

	for i := 0; i < 11; i++ {
		require.NoError(t, db.CreateExpense(ctx, &models.Expense{Category: "Oil", Amount: float64(i)}))
	}
	recent, err := db.ListExpenses(ctx, models.RecentLimit)
	require.NoError(t, err)
	assert.Len(t, recent, 10)
	all, err := db.ListExpenses(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 12)

	require.NoError(t, db.DeleteExpense(ctx, e.ID))
	_, err = db.GetExpense(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChatLog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, text := range []string{"hi", "need a booking", "tomorrow 5pm"} {
		require.NoError(t, db.AppendChatMessage(ctx, &models.ChatMessage{
			Phone:     "971500000001",
			Sender:    models.SenderClient,
			Message:   text,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, db.AppendChatMessage(ctx, &models.ChatMessage{Phone: "other", Sender: models.SenderClient, Message: "x"}))

	history, err := db.ChatHistory(ctx, "971500000001", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "need a booking", history[0].Message)
	assert.Equal(t, "tomorrow 5pm", history[1].Message)
}

func TestSyncQueueCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{
		TaskType:  models.SyncTaskUpsert,
		BookingID: "ABC123",
		Payload:   `{"booking_id":"ABC123"}`,
	}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	assert.Equal(t, models.SyncStatusPending, task.Status)

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "ABC123", tasks[0].BookingID)

	future := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, tasks[0].ID, "retry", "boom", &future))
	tasks, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusFailed, "gave up", nil))
	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].RetryCount)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "gave up", *failed[0].LastError)
	assert.NotNil(t, failed[0].ProcessedAt)
}
