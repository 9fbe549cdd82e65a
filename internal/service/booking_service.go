package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"backoffice/internal/database"
	"backoffice/internal/domain"
	"backoffice/internal/events"
	"backoffice/internal/metrics"
	"backoffice/internal/models"

	"github.com/rs/zerolog"
)

const (
	bookingIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	bookingIDLength   = 6
	maxIDAttempts     = 5
)

// ErrBookingIDExhausted is returned when every generated id collided.
var ErrBookingIDExhausted = errors.New("could not allocate a unique booking id")

// BookingRequest is a confirmed booking draft.
type BookingRequest struct {
	Amount        float64
	Duration      int
	PaymentMethod string
	ProfitShare   string
	Staff         string
	Service       string
	Start         time.Time
	ClientPhone   string
	Source        string
	ChatID        int64
}

type BookingService struct {
	repo     domain.BookingRepository
	mirror   domain.MirrorPublisher
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	newID    func() (string, error)
}

func NewBookingService(repo domain.BookingRepository, mirror domain.MirrorPublisher, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		mirror:   mirror,
		eventBus: eventBus,
		logger:   logger,
		newID:    GenerateBookingID,
	}
}

// GenerateBookingID returns 6 random characters from [A-Z0-9].
func GenerateBookingID() (string, error) {
	buf := make([]byte, bookingIDLength)
	max := big.NewInt(int64(len(bookingIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate booking id: %w", err)
		}
		buf[i] = bookingIDAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// Create persists the booking, publishes its mirror with the text render
// returns and emits booking.created.
func (s *BookingService) Create(ctx context.Context, req BookingRequest, render func(*models.Booking) string) (*models.Booking, error) {
	source := req.Source
	if source == "" {
		source = models.SourceStaff
	}

	booking := &models.Booking{
		ClientPhone:   req.ClientPhone,
		ServiceType:   req.Service,
		Duration:      req.Duration,
		RequestedDate: req.Start,
		SlotStart:     req.Start,
		SlotEnd:       req.Start.Add(time.Duration(req.Duration) * time.Minute),
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		ProfitShare:   req.ProfitShare,
		Shared:        req.ProfitShare == models.ProfitShared,
		Status:        models.StatusForSource(source),
		AssignedStaff: req.Staff,
		Source:        source,
	}

	if err := s.insertWithFreshID(ctx, booking); err != nil {
		return nil, err
	}

	metrics.IncBookingCreated(booking.ServiceType)
	s.logger.Info().Str("booking_id", booking.BookingID).Str("client_phone", booking.ClientPhone).Msg("Booking created")

	if s.mirror != nil && render != nil {
		if err := s.mirror.Publish(ctx, booking, render(booking)); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.BookingID).Msg("Failed to record mirror")
		}
	}

	s.publishEvent(events.EventBookingCreated, booking, req.ChatID)
	return booking, nil
}

func (s *BookingService) insertWithFreshID(ctx context.Context, booking *models.Booking) error {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return err
		}
		booking.BookingID = id

		if err := ValidateRecord(booking); err != nil {
			return err
		}

		err = s.repo.CreateBooking(ctx, booking)
		if err == nil {
			return nil
		}
		if !errors.Is(err, database.ErrDuplicate) {
			return err
		}
		s.logger.Warn().Str("booking_id", id).Int("attempt", attempt).Msg("Booking id collision, regenerating")
	}
	return ErrBookingIDExhausted
}

// Get loads a booking by its public id.
func (s *BookingService) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, bookingID)
}

// Recent lists the newest bookings for the cancel flow.
func (s *BookingService) Recent(ctx context.Context) ([]*models.Booking, error) {
	return s.repo.ListRecentBookings(ctx, models.RecentLimit)
}

// PendingBookings lists the newest Pending bookings for the edit flow.
func (s *BookingService) PendingBookings(ctx context.Context) ([]*models.Booking, error) {
	return s.repo.ListBookingsByStatus(ctx, models.StatusPending, models.RecentLimit)
}

// Update applies mutate to the stored booking, persists it and republishes its mirror once.
func (s *BookingService) Update(ctx context.Context, bookingID string, chatID int64, mutate func(*models.Booking) error) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := mutate(booking); err != nil {
		return nil, err
	}
	if err := ValidateRecord(booking); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.Republish(ctx, bookingID, chatID)
	return booking, nil
}

// Republish refreshes the mirror after the booking or its client changed.
func (s *BookingService) Republish(ctx context.Context, bookingID string, chatID int64) {
	if s.mirror != nil {
		if err := s.mirror.Republish(ctx, bookingID); err != nil {
			s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("Failed to republish booking")
		}
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		s.logger.Warn().Err(err).Str("booking_id", bookingID).Msg("Booking vanished before event publish")
		return
	}
	s.publishEvent(events.EventBookingUpdated, booking, chatID)
}

// Cancel retracts the mirror, marks the booking Canceled and drops the mirror reference.
func (s *BookingService) Cancel(ctx context.Context, bookingID string, chatID int64) (*models.Booking, error) {
	s.retract(ctx, bookingID)

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	booking.Status = models.StatusCanceled
	booking.ClearMirror()
	if err := s.repo.UpdateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingUpdated, booking, chatID)
	return booking, nil
}

// Delete retracts the mirror and hard-deletes the booking.
func (s *BookingService) Delete(ctx context.Context, bookingID string, chatID int64) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	s.retract(ctx, bookingID)

	if err := s.repo.DeleteBooking(ctx, bookingID); err != nil {
		return err
	}

	s.publishEvent(events.EventBookingDeleted, booking, chatID)
	return nil
}

func (s *BookingService) retract(ctx context.Context, bookingID string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Retract(ctx, bookingID); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", bookingID).Msg("Failed to retract mirror")
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, chatID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:     booking.BookingID,
		ClientPhone:   booking.ClientPhone,
		ServiceType:   booking.ServiceType,
		Status:        booking.Status,
		Amount:        booking.Amount,
		AssignedStaff: booking.AssignedStaff,
		RequestedDate: booking.RequestedDate,
		Source:        booking.Source,
		ChangedBy:     chatID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to publish booking event")
	}
}
