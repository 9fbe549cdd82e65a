package worker

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"backoffice/internal/database"
	"backoffice/internal/events"
	"backoffice/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	mu       sync.Mutex
	err      error
	upserted []string
	deleted  []string
}

func (f *fakeSheets) UpsertBooking(ctx context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, b.BookingID)
	return f.err
}

func (f *fakeSheets) DeleteBookingRow(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeSheets) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserted), len(f.deleted)
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (status string, retryCount int, nextRetry sql.NullTime) {
	t.Helper()
	row := db.QueryRowContext(context.Background(), `SELECT status, retry_count, next_retry_at FROM sync_queue WHERE id = ?`, id)
	require.NoError(t, row.Scan(&status, &retryCount, &nextRetry))
	return status, retryCount, nextRetry
}

func sampleBooking(id string) *models.Booking {
	now := time.Now()
	return &models.Booking{
		BookingID:     id,
		ClientPhone:   "0501234567",
		ServiceType:   "Thai",
		Duration:      90,
		RequestedDate: now,
		SlotStart:     now,
		SlotEnd:       now.Add(90 * time.Minute),
		Amount:        300,
		Status:        models.StatusPending,
		Source:        models.SourceClient,
	}
}

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := NewLedgerWorker(db, sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, models.SyncTaskUpsert, "", sampleBooking("AB12CD")))

	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	assert.Equal(t, "AB12CD", task.BookingID)
	w.processTask(ctx, &task)

	status, retries, next := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusCompleted, status)
	assert.Zero(t, retries)
	assert.False(t, next.Valid)
	assert.Equal(t, []string{"AB12CD"}, sheets.upserted)
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("boom")}
	w := NewLedgerWorker(db, sheets, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Minute}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, models.SyncTaskDelete, "AB12CD", nil))
	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	w.processTask(ctx, &task)

	status, retries, next := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, retryStatus, status)
	assert.Equal(t, 1, retries)
	require.True(t, next.Valid)
	assert.True(t, next.Time.After(time.Now()))

	// Not due yet, so polling must skip it.
	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessTaskFailGoesToDeadLetter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("fatal")}
	w := NewLedgerWorker(db, sheets, rdb, RetryPolicy{MaxRetries: 1}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, models.SyncTaskUpsert, "AB12CD", sampleBooking("AB12CD")))
	task, ok := w.tryRedis(ctx)
	require.True(t, ok)
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusFailed, status)

	dead, err := rdb.LLen(ctx, deadLetterKey).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, dead)

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "fatal", *failed[0].LastError)
}

func TestProcessTaskBadPayload(t *testing.T) {
	db := newTestDB(t)
	w := NewLedgerWorker(db, &fakeSheets{}, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	task := models.SyncTask{TaskType: models.SyncTaskUpsert, BookingID: "AB12CD", Payload: "not json"}
	require.NoError(t, db.CreateSyncTask(ctx, &task))
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusFailed, status)
}

func TestEnqueueTaskValidation(t *testing.T) {
	db := newTestDB(t)
	w := NewLedgerWorker(db, &fakeSheets{}, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	assert.Error(t, w.EnqueueTask(ctx, "", "AB12CD", nil))
	assert.Error(t, w.EnqueueTask(ctx, models.SyncTaskDelete, "", nil))
	assert.Error(t, w.EnqueueTask(ctx, models.SyncTaskUpsert, "AB12CD", nil))
	assert.NoError(t, w.EnqueueTask(ctx, models.SyncTaskDelete, "AB12CD", nil))
}

func TestEnqueueTaskRedisDownFallsBackToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	db := newTestDB(t)
	w := NewLedgerWorker(db, &fakeSheets{}, rdb, RetryPolicy{}, nil)

	require.NoError(t, w.EnqueueTask(context.Background(), models.SyncTaskDelete, "AB12CD", nil))
	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	assert.Equal(t, "AB12CD", task.BookingID)
}

func TestApplyUnknownType(t *testing.T) {
	w := NewLedgerWorker(nil, &fakeSheets{}, nil, RetryPolicy{}, nil)
	err := w.apply(context.Background(), "rename", ledgerPayload{BookingID: "AB12CD"})
	assert.ErrorContains(t, err, "unknown task type")
}

func TestDecodePayload(t *testing.T) {
	p, err := decodePayload(`{"booking_id":"AB12CD"}`)
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", p.BookingID)
	assert.Nil(t, p.Booking)

	_, err = decodePayload("invalid json")
	assert.Error(t, err)
}

func TestStartDrainsQueue(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := NewLedgerWorker(db, sheets, nil, RetryPolicy{}, nil)
	w.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, w.EnqueueTask(ctx, models.SyncTaskUpsert, "AB12CD", sampleBooking("AB12CD")))
	require.NoError(t, w.EnqueueTask(ctx, models.SyncTaskDelete, "ZZ99ZZ", nil))

	assert.Eventually(t, func() bool {
		up, del := sheets.calls()
		return up >= 1 && del >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

type recordingSync struct {
	tasks []string
}

func (r *recordingSync) EnqueueTask(ctx context.Context, taskType, bookingID string, booking *models.Booking) error {
	if taskType == models.SyncTaskUpsert && booking == nil {
		return errors.New("missing snapshot")
	}
	r.tasks = append(r.tasks, taskType+":"+bookingID)
	return nil
}

func TestSubscribeBookingEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.CreateBooking(ctx, sampleBooking("AB12CD")))

	bus := events.NewEventBus(nil)
	rec := &recordingSync{}
	SubscribeBookingEvents(ctx, bus, db, rec, nil)

	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{BookingID: "AB12CD"}))
	require.NoError(t, bus.PublishJSON(events.EventBookingUpdated, events.BookingEventPayload{BookingID: "AB12CD"}))
	require.NoError(t, bus.PublishJSON(events.EventBookingUpdated, events.BookingEventPayload{BookingID: "GONE00"}))
	require.NoError(t, bus.PublishJSON(events.EventBookingDeleted, events.BookingEventPayload{BookingID: "AB12CD"}))

	assert.Equal(t, []string{"upsert:AB12CD", "upsert:AB12CD", "delete:AB12CD"}, rec.tasks)
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 5*time.Second, policy.NextDelay(5))
	assert.Equal(t, time.Second, policy.NextDelay(0))
}

func TestRetryPolicyDefaults(t *testing.T) {
	var zero RetryPolicy

	assert.Equal(t, DefaultRetryPolicy.InitialDelay, zero.NextDelay(1))
	assert.Equal(t, DefaultRetryPolicy.MaxDelay, zero.NextDelay(100))
	assert.False(t, zero.Exhausted(DefaultRetryPolicy.MaxRetries-1))
	assert.True(t, zero.Exhausted(DefaultRetryPolicy.MaxRetries))

	assert.True(t, RetryPolicy{MaxRetries: 1}.Exhausted(1))
}
