package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backoffice/internal/database"
	"backoffice/internal/domain"
	"backoffice/internal/metrics"
	"backoffice/internal/models"

	"github.com/rs/zerolog"
)

const (
	notProvided = "Not provided"
	notAssigned = "Not Assigned"
)

// MirrorPublisher keeps one summary message per booking in the receiver chat.
// The mirror is best-effort: gateway failures are logged, never returned, once
// the booking itself is persisted.
type MirrorPublisher struct {
	bookings   domain.BookingRepository
	clients    domain.ClientRepository
	gateway    domain.ChatGateway
	receiverID int64
	logger     *zerolog.Logger
}

func NewMirrorPublisher(
	bookings domain.BookingRepository,
	clients domain.ClientRepository,
	gateway domain.ChatGateway,
	receiverID int64,
	logger *zerolog.Logger,
) *MirrorPublisher {
	return &MirrorPublisher{
		bookings:   bookings,
		clients:    clients,
		gateway:    gateway,
		receiverID: receiverID,
		logger:     logger,
	}
}

// Publish sends text to the receiver chat and records the message on the booking.
func (p *MirrorPublisher) Publish(ctx context.Context, booking *models.Booking, text string) error {
	msgID, err := p.gateway.SendText(ctx, p.receiverID, text, models.ParseModeMarkdown)
	metrics.IncMirror("publish", err)
	if err != nil {
		p.logger.Error().Err(err).Str("booking_id", booking.BookingID).Msg("Failed to publish booking to receiver chat")
		return nil
	}

	if err := p.bookings.SetBookingMirror(ctx, booking.BookingID, p.receiverID, msgID); err != nil {
		return fmt.Errorf("store mirror reference: %w", err)
	}
	booking.GroupChatID = p.receiverID
	booking.GroupMessageID = msgID
	return nil
}

// Republish replaces the mirror with a fresh "Updated Booking" summary built
// from the stored booking and client.
func (p *MirrorPublisher) Republish(ctx context.Context, bookingID string) error {
	booking, err := p.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("load booking for republish: %w", err)
	}

	p.deleteMirror(ctx, booking)

	client, err := p.clients.GetClient(ctx, booking.ClientPhone)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("load client for republish: %w", err)
	}

	msgID, err := p.gateway.SendText(ctx, p.receiverID, FormatUpdatedBooking(booking, client), models.ParseModeMarkdown)
	metrics.IncMirror("republish", err)
	if err != nil {
		p.logger.Error().Err(err).Str("booking_id", bookingID).Msg("Failed to republish booking to receiver chat")
		// the old message is gone either way
		if err := p.bookings.SetBookingMirror(ctx, bookingID, 0, 0); err != nil {
			return fmt.Errorf("clear mirror reference: %w", err)
		}
		return nil
	}

	if err := p.bookings.SetBookingMirror(ctx, bookingID, p.receiverID, msgID); err != nil {
		return fmt.Errorf("store mirror reference: %w", err)
	}
	return nil
}

// Retract deletes the mirror message. The stored reference is left to the caller.
func (p *MirrorPublisher) Retract(ctx context.Context, bookingID string) error {
	booking, err := p.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("load booking for retract: %w", err)
	}
	p.deleteMirror(ctx, booking)
	return nil
}

func (p *MirrorPublisher) deleteMirror(ctx context.Context, booking *models.Booking) {
	if !booking.HasMirror() {
		return
	}
	err := p.gateway.DeleteMessage(ctx, booking.GroupChatID, booking.GroupMessageID)
	metrics.IncMirror("delete", err)
	if err != nil {
		p.logger.Debug().Err(err).Str("booking_id", booking.BookingID).Msg("Failed to delete mirror message")
	}
}

// FormatUpdatedBooking renders the receiver chat summary of a changed booking.
// client may be nil.
func FormatUpdatedBooking(b *models.Booking, client *models.Client) string {
	name, gender, address, mapLink := notProvided, notProvided, notProvided, notProvided
	if client != nil {
		name = orNotProvided(client.Name)
		gender = orNotProvided(client.Gender)
		address = orNotProvided(client.Address)
		mapLink = orNotProvided(client.MapLink)
	}
	staff := notAssigned
	if strings.TrimSpace(b.AssignedStaff) != "" {
		staff = EscapeMarkdown(b.AssignedStaff)
	}

	var sb strings.Builder
	sb.WriteString("🔄 *Updated Booking:*\n\n")
	fmt.Fprintf(&sb, "*Booking ID:* %s\n", b.BookingID)
	fmt.Fprintf(&sb, "*Service:* %s\n", b.ServiceType)
	fmt.Fprintf(&sb, "*Duration:* %d mins\n", b.Duration)
	fmt.Fprintf(&sb, "*Status:* %s\n", b.Status)
	fmt.Fprintf(&sb, "*Staff:* %s\n", staff)
	fmt.Fprintf(&sb, "*Date:* %s\n", b.RequestedDate.Format(models.DisplayDateLayout))
	fmt.Fprintf(&sb, "*Time:* %s\n", b.SlotStart.Format(models.ClockLayout))
	fmt.Fprintf(&sb, "*Phone:* %s\n", b.ClientPhone)
	fmt.Fprintf(&sb, "*Name:* %s\n", name)
	fmt.Fprintf(&sb, "*Gender:* %s\n", gender)
	fmt.Fprintf(&sb, "*Address:* %s\n", address)
	fmt.Fprintf(&sb, "*Map Link:* %s", mapLink)
	return sb.String()
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return EscapeMarkdown(s)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes user text for the legacy Markdown parse mode.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
