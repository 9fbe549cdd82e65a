package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/database"
	"backoffice/internal/domain"
	"backoffice/internal/models"
	"backoffice/internal/session"
)

const (
	stepEditSelect = iota + 1
	stepEditAction
	stepEditField
	stepEditStaff
	stepEditDate
	stepEditTime
	stepEditStatus
)

func (e *Engine) startEdit(ctx context.Context, chatID int64) error {
	pending, err := e.bookings.PendingBookings(ctx)
	if err != nil {
		return fmt.Errorf("list pending bookings: %w", err)
	}
	if len(pending) == 0 {
		return e.finish(ctx, chatID, "No pending bookings found.")
	}

	e.sessions.Create(chatID, session.FlowBookingEdit)
	e.update(chatID, func(s *session.Session) { s.Step = stepEditSelect })

	rows := make([][]domain.Choice, 0, len(pending)+1)
	for _, b := range pending {
		rows = append(rows, []domain.Choice{choice(b.BookingID+" - "+b.ClientPhone, "edit_"+b.BookingID)})
	}
	rows = append(rows, clearChatRow()...)
	return e.ask(ctx, chatID, "Select a booking to update/cancel:", rows)
}

func (e *Engine) editChoice(ctx context.Context, sess session.Session, tok Token) error {
	chatID := sess.ChatID
	expect := func(step int) error {
		if sess.Step != step {
			return errStaleChoice
		}
		return nil
	}

	switch tok.Kind {
	case TokEditSelect:
		if err := expect(stepEditSelect); err != nil {
			return err
		}
		booking, err := e.loadBooking(ctx, tok.Value)
		if err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Target = booking.BookingID
			s.Step = stepEditAction
		})
		return e.ask(ctx, chatID, fmt.Sprintf("Booking %s selected.", booking.BookingID), [][]domain.Choice{{
			choice("Cancel Booking", "cancel_booking"),
			choice("Update Booking", "update_booking"),
		}})

	case TokEditCancelBooking:
		if err := expect(stepEditAction); err != nil {
			return err
		}
		if _, err := e.bookings.Cancel(ctx, sess.Target, chatID); err != nil {
			return e.notFoundOr(err, "cancel booking")
		}
		return e.done(ctx, sess, "completed", fmt.Sprintf("Booking %s is now canceled.", sess.Target))

	case TokEditUpdateBooking:
		if err := expect(stepEditAction); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) { s.Step = stepEditField })
		return e.ask(ctx, chatID, "What would you like to update?", column(
			choice("Change Staff", "upd_staff"),
			choice("Change Timeslot", "upd_timeslot"),
			choice("Change Address", "upd_address"),
			choice("Change Map Link", "upd_map"),
			choice("Change Status", "upd_status"),
		))

	case TokUpdStaff:
		if err := expect(stepEditField); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) { s.Step = stepEditStaff })
		rows := make([][]domain.Choice, 0, len(e.catalog.StaffOptions))
		for _, name := range e.catalog.StaffOptions {
			rows = append(rows, []domain.Choice{choice(name, "staffsel_"+name)})
		}
		return e.ask(ctx, chatID, "Select new staff:", rows)

	case TokStaffSel:
		if err := expect(stepEditStaff); err != nil {
			return err
		}
		name, ok := e.catalog.StaffName(tok.Value)
		if !ok {
			return errStaleChoice
		}
		if _, err := e.bookings.Update(ctx, sess.Target, chatID, func(b *models.Booking) error {
			b.AssignedStaff = name
			return nil
		}); err != nil {
			return e.notFoundOr(err, "change staff")
		}
		return e.done(ctx, sess, "completed", fmt.Sprintf("Booking %s staff changed to %s.", sess.Target, name))

	case TokUpdTimeslot:
		if err := expect(stepEditField); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) { s.Step = stepEditDate })
		return e.ask(ctx, chatID, "Select new date:", e.dateRows("upd_timeslot_date_"))

	case TokUpdTimeslotDate:
		if err := expect(stepEditDate); err != nil {
			return err
		}
		return e.setEditDate(ctx, chatID, tok.Value)

	case TokUpdTimeslotDateCustom:
		if err := expect(stepEditDate); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) { s.Await(session.PendingNewDate) })
		return e.say(ctx, chatID, "Enter new date (YYYY-MM-DD):")

	case TokUpdTimeslotTime:
		if err := expect(stepEditTime); err != nil {
			return err
		}
		return e.setEditTime(ctx, sess, tok.Value)

	case TokUpdTimeslotTimeCustom:
		if err := expect(stepEditTime); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) { s.Await(session.PendingNewTime) })
		return e.say(ctx, chatID, "Enter new time (e.g. 4:30 PM):")

	case TokUpdAddress:
		if err := expect(stepEditField); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) { s.Await(session.PendingNewAddress) })
		return e.say(ctx, chatID, "Enter new address:")

	case TokUpdMap:
		if err := expect(stepEditField); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) { s.Await(session.PendingNewMapLink) })
		return e.say(ctx, chatID, "Enter new map link or type none to clear:")

	case TokUpdStatus:
		if err := expect(stepEditField); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) { s.Step = stepEditStatus })
		rows := make([][]domain.Choice, 0, len(models.BookingStatuses))
		for _, st := range models.BookingStatuses {
			rows = append(rows, []domain.Choice{choice(st, "status_"+strings.ToLower(st))})
		}
		return e.ask(ctx, chatID, "Select new status:", rows)

	case TokStatus:
		if err := expect(stepEditStatus); err != nil {
			return err
		}
		if _, err := e.bookings.Update(ctx, sess.Target, chatID, func(b *models.Booking) error {
			b.Status = tok.Value
			return nil
		}); err != nil {
			return e.notFoundOr(err, "change status")
		}
		return e.done(ctx, sess, "completed", fmt.Sprintf("Booking %s status is now %s.", sess.Target, tok.Value))
	}

	return errStaleChoice
}

func (e *Engine) editText(ctx context.Context, sess session.Session, text string) error {
	switch sess.Pending {
	case session.PendingNewDate:
		return e.setEditDate(ctx, sess.ChatID, text)
	case session.PendingNewTime:
		return e.setEditTime(ctx, sess, text)
	case session.PendingNewAddress:
		if text == "" {
			return e.say(ctx, sess.ChatID, "Enter new address:")
		}
		if err := e.updateBookingClient(ctx, sess, func(c *models.Client) { c.Address = text }); err != nil {
			return err
		}
		return e.done(ctx, sess, "completed", fmt.Sprintf("Booking %s client address updated.", sess.Target))
	case session.PendingNewMapLink:
		link := text
		if strings.EqualFold(link, "none") {
			link = ""
		}
		if err := e.updateBookingClient(ctx, sess, func(c *models.Client) { c.MapLink = link }); err != nil {
			return err
		}
		return e.done(ctx, sess, "completed", fmt.Sprintf("Booking %s map link updated.", sess.Target))
	}
	return nil
}

func (e *Engine) setEditDate(ctx context.Context, chatID int64, date string) error {
	if _, err := parseDate(date, e.settings.Location); err != nil {
		return err
	}
	e.update(chatID, func(s *session.Session) {
		s.NewDate = date
		s.Step = stepEditTime
		s.Await(session.PendingNone)
	})
	return e.ask(ctx, chatID, "Select new time:", e.timeRows("upd_timeslot_time_"))
}

func (e *Engine) setEditTime(ctx context.Context, sess session.Session, clock string) error {
	start, err := parseSlot(sess.NewDate, clock, e.settings.Location)
	if err != nil {
		return err
	}
	if _, err := e.bookings.Update(ctx, sess.Target, sess.ChatID, func(b *models.Booking) error {
		b.RequestedDate = start
		b.SlotStart = start
		b.SlotEnd = start.Add(time.Duration(b.Duration) * time.Minute)
		return nil
	}); err != nil {
		return e.notFoundOr(err, "change timeslot")
	}
	return e.done(ctx, sess, "completed", fmt.Sprintf("Booking %s timeslot updated.", sess.Target))
}

// updateBookingClient edits the client behind the selected booking and
// refreshes the booking's mirror.
func (e *Engine) updateBookingClient(ctx context.Context, sess session.Session, mutate func(*models.Client)) error {
	booking, err := e.loadBooking(ctx, sess.Target)
	if err != nil {
		return err
	}
	client, err := e.store.GetClient(ctx, booking.ClientPhone)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return endFlow("Client not found.", err)
		}
		return fmt.Errorf("load client: %w", err)
	}
	mutate(client)
	if err := e.store.UpdateClient(ctx, client); err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	e.bookings.Republish(ctx, booking.BookingID, sess.ChatID)
	return nil
}

func (e *Engine) loadBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := e.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, e.notFoundOr(err, "load booking")
	}
	return booking, nil
}

func (e *Engine) notFoundOr(err error, op string) error {
	if errors.Is(err, database.ErrNotFound) {
		return endFlow("Booking not found.", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
