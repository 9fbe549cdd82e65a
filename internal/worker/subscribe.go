package worker

import (
	"context"
	"errors"

	"backoffice/internal/database"
	"backoffice/internal/domain"
	"backoffice/internal/events"
	"backoffice/internal/models"

	"github.com/rs/zerolog"
)

// BookingLoader fetches the current booking snapshot for upsert tasks.
type BookingLoader interface {
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
}

// SubscribeBookingEvents turns booking events into ledger sync tasks.
// Created and updated bookings are upserted; deleted bookings lose their row.
func SubscribeBookingEvents(ctx context.Context, bus *events.EventBus, bookings BookingLoader, sync domain.SyncWorker, logger *zerolog.Logger) {
	if bus == nil || bookings == nil || sync == nil {
		return
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	upsert := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := ev.Decode(&payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("decode booking event")
			return nil
		}

		booking, err := bookings.GetBooking(ctx, payload.BookingID)
		if errors.Is(err, database.ErrNotFound) {
			// Deleted before the event got here; the delete event clears the row.
			return nil
		}
		if err != nil {
			logger.Error().Err(err).Str("booking_id", payload.BookingID).Msg("load booking for ledger")
			return nil
		}

		if err := sync.EnqueueTask(ctx, models.SyncTaskUpsert, booking.BookingID, booking); err != nil {
			logger.Error().Err(err).Str("booking_id", booking.BookingID).Msg("enqueue ledger upsert")
		}
		return nil
	}

	remove := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := ev.Decode(&payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("decode booking event")
			return nil
		}
		if err := sync.EnqueueTask(ctx, models.SyncTaskDelete, payload.BookingID, nil); err != nil {
			logger.Error().Err(err).Str("booking_id", payload.BookingID).Msg("enqueue ledger delete")
		}
		return nil
	}

	bus.Subscribe(events.EventBookingCreated, upsert)
	bus.Subscribe(events.EventBookingUpdated, upsert)
	bus.Subscribe(events.EventBookingDeleted, remove)
}
