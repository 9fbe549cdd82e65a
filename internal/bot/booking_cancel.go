package bot

import (
	"context"
	"fmt"

	"backoffice/internal/domain"
	"backoffice/internal/models"
	"backoffice/internal/session"
)

const (
	stepCancelSelect = iota + 1
	stepCancelConfirm
)

func (e *Engine) startCancel(ctx context.Context, chatID int64) error {
	recent, err := e.bookings.Recent(ctx)
	if err != nil {
		return fmt.Errorf("list recent bookings: %w", err)
	}
	if len(recent) == 0 {
		return e.finish(ctx, chatID, "No recent bookings found.")
	}

	e.sessions.Create(chatID, session.FlowBookingCancel)
	e.update(chatID, func(s *session.Session) { s.Step = stepCancelSelect })

	rows := make([][]domain.Choice, 0, len(recent)+1)
	for _, b := range recent {
		rows = append(rows, []domain.Choice{choice(b.BookingID+" - "+b.ClientPhone, "cancel_select_"+b.BookingID)})
	}
	rows = append(rows, clearChatRow()...)
	return e.ask(ctx, chatID, "Select a booking to cancel:", rows)
}

func (e *Engine) cancelChoice(ctx context.Context, sess session.Session, tok Token) error {
	switch tok.Kind {
	case TokCancelSelect:
		if sess.Step != stepCancelSelect {
			return errStaleChoice
		}
		booking, err := e.loadBooking(ctx, tok.Value)
		if err != nil {
			return err
		}
		e.update(sess.ChatID, func(s *session.Session) {
			s.Target = booking.BookingID
			s.Step = stepCancelConfirm
		})
		text := fmt.Sprintf("You selected booking %s for cancellation.\n\nDetails:\n- Service: %s\n- Duration: %d mins\n- Date: %s\n- Status: %s\n\nConfirm cancellation?",
			booking.BookingID, booking.ServiceType, booking.Duration, booking.RequestedDate.In(e.settings.Location).Format(models.DisplayDateLayout), booking.Status)
		return e.ask(ctx, sess.ChatID, text, [][]domain.Choice{{
			choice("Confirm", "cancel_confirm"),
			choice("Abort", "cancel_abort"),
		}})

	case TokCancelConfirm:
		if sess.Step != stepCancelConfirm {
			return errStaleChoice
		}
		if err := e.bookings.Delete(ctx, sess.Target, sess.ChatID); err != nil {
			return e.notFoundOr(err, "delete booking")
		}
		return e.done(ctx, sess, "completed", fmt.Sprintf("Booking %s has been deleted.", sess.Target))

	case TokCancelAbort:
		return e.done(ctx, sess, "canceled", "Cancellation aborted.")
	}
	return errStaleChoice
}
