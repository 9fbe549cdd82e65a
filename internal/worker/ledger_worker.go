package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/metrics"
	"backoffice/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	queueKey      = "ledger:queue"
	deadLetterKey = "ledger:deadletter"
	retryStatus   = "retry"
)

// ledgerPayload is persisted in SyncTask.Payload as JSON.
type ledgerPayload struct {
	BookingID string          `json:"booking_id"`
	Booking   *models.Booking `json:"booking,omitempty"`
}

// LedgerWorker consumes sync_queue tasks and applies them to the bookings spreadsheet.
type LedgerWorker struct {
	store        domain.SyncQueueRepository
	sheets       domain.SheetsWriter
	redis        *redis.Client
	retryPolicy  RetryPolicy
	queue        chan models.SyncTask
	pollInterval time.Duration
	batchSize    int
	logger       *zerolog.Logger
}

// NewLedgerWorker builds a worker. A nil redis client keeps tasks in memory and the database.
func NewLedgerWorker(store domain.SyncQueueRepository, sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *LedgerWorker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	l := logger.With().Str("component", "ledger_worker").Logger()
	return &LedgerWorker{
		store:        store,
		sheets:       sheets,
		redis:        redisClient,
		retryPolicy:  retry.withDefaults(),
		queue:        make(chan models.SyncTask, 128),
		pollInterval: 2 * time.Second,
		batchSize:    20,
		logger:       &l,
	}
}

// EnqueueTask persists the task and schedules it via redis or the in-memory queue.
func (w *LedgerWorker) EnqueueTask(ctx context.Context, taskType, bookingID string, booking *models.Booking) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if bookingID == "" && booking != nil {
		bookingID = booking.BookingID
	}
	if bookingID == "" {
		return errors.New("booking id is required")
	}
	if taskType == models.SyncTaskUpsert && booking == nil {
		return errors.New("upsert requires a booking snapshot")
	}

	raw, err := json.Marshal(ledgerPayload{BookingID: bookingID, Booking: booking})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.SyncTask{
		TaskType:  taskType,
		BookingID: bookingID,
		Payload:   string(raw),
		Status:    models.SyncStatusPending,
	}
	if err := w.store.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	if w.redis != nil {
		err := w.pushRedis(ctx, queueKey, &task)
		if err == nil {
			return nil
		}
		w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, using memory queue")
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("memory queue full, task left to polling")
	}
	return nil
}

// Start runs the consume loop until ctx is done.
func (w *LedgerWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("ledger worker started")
	defer w.logger.Info().Msg("ledger worker stopped")

	for ctx.Err() == nil {
		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}
		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.store.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("fetch pending tasks")
			}
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}
		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *LedgerWorker) sleep(ctx context.Context) {
	t := time.NewTimer(w.pollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (w *LedgerWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *LedgerWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("redis BRPOP")
		}
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *LedgerWorker) processTask(ctx context.Context, task *models.SyncTask) {
	log := w.logger.With().Int64("task_id", task.ID).Str("booking_id", task.BookingID).Str("type", task.TaskType).Logger()

	payload, err := decodePayload(task.Payload)
	if err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.apply(ctx, task.TaskType, payload); err != nil {
		log.Warn().Err(err).Int("attempt", task.RetryCount+1).Msg("ledger task failed")
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusCompleted, "", nil); err != nil {
		log.Error().Err(err).Msg("mark completed")
	}
	metrics.IncLedgerTask(task.TaskType, models.SyncStatusCompleted)
}

func (w *LedgerWorker) apply(ctx context.Context, taskType string, payload ledgerPayload) error {
	switch taskType {
	case models.SyncTaskUpsert:
		if payload.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.sheets.UpsertBooking(ctx, payload.Booking)
	case models.SyncTaskDelete:
		if payload.BookingID == "" {
			return errors.New("booking id missing")
		}
		return w.sheets.DeleteBookingRow(ctx, payload.BookingID)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *LedgerWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		w.failTask(ctx, task, cause)
		return
	}

	next := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, retryStatus, cause.Error(), &next); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark retry")
	}
	metrics.IncLedgerTask(task.TaskType, retryStatus)
}

func (w *LedgerWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark failed")
	}
	metrics.IncLedgerTask(task.TaskType, models.SyncStatusFailed)

	if w.redis == nil {
		return
	}
	if err := w.pushRedis(ctx, deadLetterKey, task); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("dead letter push")
	}
}

func (w *LedgerWorker) pushRedis(ctx context.Context, key string, task *models.SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}

func decodePayload(raw string) (ledgerPayload, error) {
	var payload ledgerPayload
	err := json.Unmarshal([]byte(raw), &payload)
	return payload, err
}
