package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backoffice/internal/database"
	"backoffice/internal/domain"
	"backoffice/internal/metrics"
	"backoffice/internal/models"
	"backoffice/internal/service"
	"backoffice/internal/session"
)

// Booking flow steps. The first eight are the numbered prompts.
const (
	stepAmount = iota + 1
	stepDuration
	stepPayment
	stepProfit
	stepStaff
	stepService
	stepDate
	stepTime
	stepClientPhone
	stepReuseAddress
	stepName
	stepGender
	stepAddress
	stepMapLink
	stepSummary
)

const (
	notProvided = "Not provided"
	notAssigned = "Not Assigned"
)

func (e *Engine) startBooking(ctx context.Context, chatID int64) error {
	e.sessions.Create(chatID, session.FlowBooking)
	e.update(chatID, func(s *session.Session) {
		s.Step = stepAmount
		s.Draft.Source = models.SourceStaff
	})
	return e.askAmount(ctx, chatID)
}

func (e *Engine) bookingChoice(ctx context.Context, sess session.Session, tok Token) error {
	chatID := sess.ChatID
	expect := func(step int) error {
		if sess.Step != step {
			return errStaleChoice
		}
		return nil
	}

	switch tok.Kind {
	case TokAmount:
		if err := expect(stepAmount); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.Amount = tok.Amount
			s.Await(session.PendingNone)
			s.Step = stepDuration
		})
		return e.askDuration(ctx, chatID)

	case TokAmountCustom:
		if err := expect(stepAmount); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) { s.Await(session.PendingCustomAmount) })
		return e.say(ctx, chatID, "Please enter the booking amount:")

	case TokDuration:
		if err := expect(stepDuration); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.Duration = tok.Minutes
			s.Step = stepPayment
		})
		return e.askPayment(ctx, chatID)

	case TokPayment:
		if err := expect(stepPayment); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.PaymentMethod = tok.Value
			s.Step = stepProfit
		})
		return e.askProfit(ctx, chatID)

	case TokProfit:
		if err := expect(stepProfit); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.ProfitShare = tok.Value
			s.Step = stepStaff
		})
		return e.askStaff(ctx, chatID)

	case TokStaff:
		if err := expect(stepStaff); err != nil {
			return err
		}
		// an unknown staff token resolves to no staff
		name, _ := e.catalog.StaffName(tok.Value)
		e.update(chatID, func(s *session.Session) {
			s.Draft.Staff = name
			s.Step = stepService
		})
		return e.askService(ctx, chatID)

	case TokService:
		if err := expect(stepService); err != nil {
			return err
		}
		name, _ := e.catalog.ServiceName(tok.Value)
		e.update(chatID, func(s *session.Session) {
			s.Draft.Service = name
			s.Step = stepDate
		})
		return e.askDate(ctx, chatID)

	case TokDate:
		if err := expect(stepDate); err != nil {
			return err
		}
		if _, err := parseDate(tok.Value, e.settings.Location); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.Date = tok.Value
			s.Await(session.PendingNone)
			s.Step = stepTime
		})
		return e.askTime(ctx, chatID)

	case TokDateCustom:
		if err := expect(stepDate); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) { s.Await(session.PendingCustomDate) })
		return e.say(ctx, chatID, "Please enter the date (format: YYYY-MM-DD)")

	case TokTime:
		if err := expect(stepTime); err != nil {
			return err
		}
		return e.setBookingTime(ctx, sess, tok.Value)

	case TokTimeCustom:
		if err := expect(stepTime); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) { s.Await(session.PendingCustomTime) })
		return e.say(ctx, chatID, "Please enter the time (e.g. 4:30 PM):")

	case TokUseAddressYes:
		if err := expect(stepReuseAddress); err != nil {
			return err
		}
		return e.showBookingSummary(ctx, chatID)

	case TokUseAddressNo:
		if err := expect(stepReuseAddress); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Step = stepAddress
			s.Await(session.PendingAddress)
		})
		return e.say(ctx, chatID, "Enter new address:")

	case TokNameSkip:
		if err := expect(stepName); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.Name = ""
			s.Await(session.PendingNone)
			s.Step = stepGender
		})
		return e.askGender(ctx, chatID)

	case TokGender:
		if err := expect(stepGender); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.Gender = tok.Value
			s.Step = stepAddress
			s.Await(session.PendingAddress)
		})
		return e.say(ctx, chatID, "Please enter the client's address:")

	case TokMapSkip:
		if err := expect(stepMapLink); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.MapLink = ""
			s.Await(session.PendingNone)
		})
		return e.createDraftClient(ctx, chatID)

	case TokFinalConfirm:
		if err := expect(stepSummary); err != nil {
			return err
		}
		return e.confirmBooking(ctx, sess)

	case TokCancelBookingFlow:
		return e.done(ctx, sess, "canceled", "Booking flow canceled.")
	}

	return errStaleChoice
}

func (e *Engine) bookingText(ctx context.Context, sess session.Session, text string) error {
	chatID := sess.ChatID

	switch sess.Pending {
	case session.PendingCustomAmount:
		amount, err := parseAmount(text)
		if err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.Amount = amount
			s.Await(session.PendingNone)
			s.Step = stepDuration
		})
		return e.askDuration(ctx, chatID)

	case session.PendingCustomDate:
		if _, err := parseDate(text, e.settings.Location); err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.Date = text
			s.Await(session.PendingNone)
			s.Step = stepTime
		})
		return e.askTime(ctx, chatID)

	case session.PendingCustomTime:
		return e.setBookingTime(ctx, sess, text)

	case session.PendingClientPhone:
		return e.lookupClient(ctx, sess, text)

	case session.PendingName:
		e.update(chatID, func(s *session.Session) {
			s.Draft.Name = text
			s.Await(session.PendingNone)
			s.Step = stepGender
		})
		return e.askGender(ctx, chatID)

	case session.PendingAddress:
		if text == "" {
			return e.say(ctx, chatID, "Please enter the client's address:")
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.Address = text
			s.Await(session.PendingNone)
		})
		if sess.Draft.ExistingClient {
			if err := e.updateClientAddress(ctx, sess.Draft.ClientPhone, text); err != nil {
				return err
			}
			return e.showBookingSummary(ctx, chatID)
		}
		e.update(chatID, func(s *session.Session) {
			s.Step = stepMapLink
			s.Await(session.PendingMapLink)
		})
		return e.ask(ctx, chatID, "Does the client have a Google Map location link? Type it or press Skip.",
			column(choice("Skip", "map_skip")))

	case session.PendingMapLink:
		link := text
		if isSkip(link) {
			link = ""
		}
		e.update(chatID, func(s *session.Session) {
			s.Draft.MapLink = link
			s.Await(session.PendingNone)
		})
		return e.createDraftClient(ctx, chatID)
	}
	return nil
}

func (e *Engine) setBookingTime(ctx context.Context, sess session.Session, clock string) error {
	if _, err := parseSlot(sess.Draft.Date, clock, e.settings.Location); err != nil {
		return err
	}
	e.update(sess.ChatID, func(s *session.Session) {
		s.Draft.Time = normalizeClock(clock)
		s.Step = stepClientPhone
		s.Await(session.PendingClientPhone)
	})
	return e.say(ctx, sess.ChatID, "Please type the client's phone number (staff entering):")
}

func (e *Engine) lookupClient(ctx context.Context, sess session.Session, text string) error {
	chatID := sess.ChatID
	phone := models.NormalizePhone(text)
	if phone == "" {
		return e.say(ctx, chatID, "Please type the client's phone number (staff entering):")
	}

	client, err := e.store.GetClient(ctx, phone)
	switch {
	case errors.Is(err, database.ErrNotFound):
		e.update(chatID, func(s *session.Session) {
			s.Draft.ClientPhone = phone
			s.Draft.ExistingClient = false
			s.Step = stepName
			s.Await(session.PendingName)
		})
		return e.ask(ctx, chatID, "What is the client's name? Type the name or click Skip.",
			column(choice("Skip", "name_skip")))
	case err != nil:
		return fmt.Errorf("look up client: %w", err)
	}

	e.update(chatID, func(s *session.Session) {
		s.Draft.ClientPhone = phone
		s.Draft.ExistingClient = true
		s.Draft.Name = client.Name
		s.Draft.Gender = client.Gender
		s.Draft.Address = client.Address
		s.Draft.MapLink = client.MapLink
		s.Step = stepReuseAddress
		s.Await(session.PendingNone)
	})
	return e.ask(ctx, chatID, fmt.Sprintf("Client exists. Current address on file:\n%s\nUse this address?", client.Address),
		[][]domain.Choice{{choice("Yes", "use_existing_address_yes"), choice("No", "use_existing_address_no")}})
}

func (e *Engine) updateClientAddress(ctx context.Context, phone, address string) error {
	client, err := e.store.GetClient(ctx, phone)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return endFlow("Client not found.", err)
		}
		return fmt.Errorf("load client: %w", err)
	}
	client.Address = address
	if err := service.ValidateRecord(client); err != nil {
		return err
	}
	if err := e.store.UpdateClient(ctx, client); err != nil {
		return fmt.Errorf("update client address: %w", err)
	}
	return nil
}

func (e *Engine) createDraftClient(ctx context.Context, chatID int64) error {
	sess, ok := e.sessions.Get(chatID)
	if !ok {
		return nil
	}
	d := sess.Draft
	client := &models.Client{
		Phone:   d.ClientPhone,
		Name:    d.Name,
		Gender:  d.Gender,
		Address: d.Address,
		MapLink: d.MapLink,
	}
	if err := service.ValidateRecord(client); err != nil {
		return err
	}
	if err := e.store.CreateClient(ctx, client); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return e.showBookingSummary(ctx, chatID)
}

func (e *Engine) showBookingSummary(ctx context.Context, chatID int64) error {
	sess, ok := e.sessions.Update(chatID, func(s *session.Session) {
		s.Step = stepSummary
		s.Await(session.PendingNone)
	})
	if !ok {
		return nil
	}
	return e.ask(ctx, chatID, bookingSummaryText(sess.Draft),
		[][]domain.Choice{{choice("Confirm", "final_confirm"), choice("Cancel", "cancel_booking_flow")}})
}

func (e *Engine) confirmBooking(ctx context.Context, sess session.Session) error {
	d := sess.Draft
	start, err := parseSlot(d.Date, d.Time, e.settings.Location)
	if err != nil {
		return err
	}

	req := service.BookingRequest{
		Amount:        d.Amount,
		Duration:      d.Duration,
		PaymentMethod: d.PaymentMethod,
		ProfitShare:   d.ProfitShare,
		Staff:         d.Staff,
		Service:       d.Service,
		Start:         start,
		ClientPhone:   d.ClientPhone,
		Source:        d.Source,
		ChatID:        sess.ChatID,
	}

	var confirmation string
	booking, err := e.bookings.Create(ctx, req, func(b *models.Booking) string {
		confirmation = bookingConfirmationText(b.BookingID, d)
		return confirmation
	})
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	e.log(ctx).Info().Str("booking_id", booking.BookingID).Int64("chat_id", sess.ChatID).Msg("Booking flow completed")
	if confirmation == "" {
		confirmation = bookingConfirmationText(booking.BookingID, d)
	}
	metrics.IncFlow(sess.Flow.String(), "completed")
	return e.finishWith(ctx, sess.ChatID, confirmation, models.ParseModeMarkdown, e.settings.CleanupDelay)
}

func (e *Engine) askAmount(ctx context.Context, chatID int64) error {
	rows := make([][]domain.Choice, 0, len(e.catalog.PresetAmounts)+1)
	for _, a := range e.catalog.PresetAmounts {
		v := models.FormatAmount(a)
		rows = append(rows, []domain.Choice{choice(v, "amount_"+v)})
	}
	rows = append(rows, []domain.Choice{choice("Custom", "amount_custom")})
	return e.ask(ctx, chatID, "Step 1/8: Please select or enter the booking amount.", rows)
}

func (e *Engine) askDuration(ctx context.Context, chatID int64) error {
	rows := make([][]domain.Choice, 0, len(e.catalog.Durations))
	for _, d := range e.catalog.Durations {
		label := fmt.Sprintf("%d mins", d)
		rows = append(rows, []domain.Choice{choice(label, "duration_"+label)})
	}
	return e.ask(ctx, chatID, "Step 2/8: Choose a duration.", rows)
}

func (e *Engine) askPayment(ctx context.Context, chatID int64) error {
	rows := make([][]domain.Choice, 0, len(e.catalog.PaymentOptions))
	for _, p := range e.catalog.PaymentOptions {
		rows = append(rows, []domain.Choice{choice(p, "payment_"+strings.ToLower(p))})
	}
	return e.ask(ctx, chatID, "Step 3/8: Choose a payment method.", rows)
}

func (e *Engine) askProfit(ctx context.Context, chatID int64) error {
	rows := make([][]domain.Choice, 0, len(e.catalog.ProfitOptions))
	for _, p := range e.catalog.ProfitOptions {
		token := "profit_" + strings.ToLower(strings.Replace(p, " ", "_", 1))
		rows = append(rows, []domain.Choice{choice(p, token)})
	}
	return e.ask(ctx, chatID, "Step 4/8: Choose profit sharing option.", rows)
}

func (e *Engine) askStaff(ctx context.Context, chatID int64) error {
	rows := make([][]domain.Choice, 0, len(e.catalog.StaffOptions))
	for _, s := range e.catalog.StaffOptions {
		rows = append(rows, []domain.Choice{choice(s, "staff_"+strings.ToLower(s))})
	}
	return e.ask(ctx, chatID, "Step 5/8: Select staff.", rows)
}

func (e *Engine) askService(ctx context.Context, chatID int64) error {
	rows := make([][]domain.Choice, 0, len(e.catalog.Services))
	for _, s := range e.catalog.Services {
		rows = append(rows, []domain.Choice{choice(s.Name, "service_"+s.ID)})
	}
	return e.ask(ctx, chatID, "Step 6/8: Select a service.", rows)
}

func (e *Engine) askDate(ctx context.Context, chatID int64) error {
	return e.ask(ctx, chatID, "Step 7/8: Choose a date", e.dateRows("date_"))
}

func (e *Engine) askTime(ctx context.Context, chatID int64) error {
	return e.ask(ctx, chatID, "Step 8/8: Select a time", e.timeRows("time_"))
}

func (e *Engine) askGender(ctx context.Context, chatID int64) error {
	return e.ask(ctx, chatID, "Select client's gender or skip:", [][]domain.Choice{{
		choice("Male", "gender_male"),
		choice("Female", "gender_female"),
		choice("Skip", "gender_skip"),
	}})
}

// dateRows offers today, tomorrow and a custom date under the token prefix.
func (e *Engine) dateRows(prefix string) [][]domain.Choice {
	today := e.today()
	return [][]domain.Choice{
		{
			choice("Today", prefix+today.Format(models.InputDateLayout)),
			choice("Tomorrow", prefix+today.AddDate(0, 0, 1).Format(models.InputDateLayout)),
		},
		{choice("Custom Date", prefix+"custom")},
	}
}

func (e *Engine) timeRows(prefix string) [][]domain.Choice {
	rows := make([][]domain.Choice, 0, len(e.catalog.PresetTimes)+1)
	for _, t := range e.catalog.PresetTimes {
		rows = append(rows, []domain.Choice{choice(t, prefix+strings.ReplaceAll(t, " ", "_"))})
	}
	rows = append(rows, []domain.Choice{choice("Custom Time", prefix+"custom")})
	return rows
}

func bookingSummaryText(d session.BookingDraft) string {
	return strings.Join([]string{
		"Booking Summary:",
		"",
		fmt.Sprintf("Amount: %s AED", models.FormatAmount(d.Amount)),
		fmt.Sprintf("Duration: %d minutes", d.Duration),
		"Payment: " + d.PaymentMethod,
		"Profit: " + d.ProfitShare,
		"Staff: " + orDefault(d.Staff, notAssigned),
		"Service: " + orDefault(d.Service, "Not selected"),
		"Date: " + displayDate(d.Date),
		"Time: " + d.Time,
		"Phone: " + d.ClientPhone,
		"Name: " + orDefault(d.Name, notProvided),
		"Gender: " + orDefault(d.Gender, notProvided),
		"Address: " + d.Address,
		"Map Link: " + orDefault(d.MapLink, notProvided),
		"",
		"Confirm this booking?",
	}, "\n")
}

func bookingConfirmationText(bookingID string, d session.BookingDraft) string {
	return strings.Join([]string{
		"✅ *Booking Confirmed!*",
		"",
		"*Booking ID:* " + bookingID,
		fmt.Sprintf("*Amount:* %s AED", models.FormatAmount(d.Amount)),
		fmt.Sprintf("*Duration:* %d mins", d.Duration),
		"*Payment:* " + d.PaymentMethod,
		"*Profit:* " + d.ProfitShare,
		"*Staff:* " + orDefault(d.Staff, notAssigned),
		"*Service:* " + service.EscapeMarkdown(orDefault(d.Service, "Not selected")),
		"*Date:* " + displayDate(d.Date),
		"*Time:* " + d.Time,
		"*Phone:* " + d.ClientPhone,
		"*Address:* " + service.EscapeMarkdown(d.Address),
	}, "\n")
}
