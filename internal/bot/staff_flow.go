package bot

import (
	"context"
	"fmt"
	"strings"

	"backoffice/internal/domain"
	"backoffice/internal/metrics"
	"backoffice/internal/models"
	"backoffice/internal/service"
	"backoffice/internal/session"
)

var staffFields = []struct{ label, key string }{
	{"Name", "name"},
	{"Phone", "phone"},
	{"Role", "role"},
	{"Salary", "salary"},
	{"Availability Status", "availabilityStatus"},
}

func (e *Engine) viewStaff(ctx context.Context, chatID int64) error {
	staff, err := e.store.ListStaff(ctx)
	if err != nil {
		return fmt.Errorf("list staff: %w", err)
	}
	if len(staff) == 0 {
		return e.ask(ctx, chatID, "No staff found.", clearChatRow())
	}

	var sb strings.Builder
	sb.WriteString("All Staff:")
	for i, s := range staff {
		fmt.Fprintf(&sb, "\n%d. %s - %s", i+1, s.Name, s.Phone)
	}
	return e.ask(ctx, chatID, sb.String(), clearChatRow())
}

func (e *Engine) startStaffAdd(ctx context.Context, chatID int64) error {
	e.sessions.Create(chatID, session.FlowStaffAdd)
	e.update(chatID, func(s *session.Session) { s.Await(session.PendingStaffName) })
	return e.say(ctx, chatID, "Enter Staff Name:")
}

func (e *Engine) staffAddText(ctx context.Context, sess session.Session, text string) error {
	chatID := sess.ChatID
	switch sess.Pending {
	case session.PendingStaffName:
		if text == "" {
			return e.say(ctx, chatID, "Enter Staff Name:")
		}
		e.update(chatID, func(s *session.Session) {
			s.Record.Name = text
			s.Await(session.PendingStaffPhone)
		})
		return e.say(ctx, chatID, "Enter Staff Phone:")

	case session.PendingStaffPhone:
		phone := models.NormalizePhone(text)
		if phone == "" {
			return e.say(ctx, chatID, "Enter Staff Phone:")
		}
		e.update(chatID, func(s *session.Session) {
			s.Record.Phone = phone
			s.Await(session.PendingStaffRole)
		})
		return e.say(ctx, chatID, "Enter Staff Role (optional, 'skip' to ignore):")

	case session.PendingStaffRole:
		role := text
		if isSkip(role) {
			role = ""
		}
		e.update(chatID, func(s *session.Session) {
			s.Record.Role = role
			s.Await(session.PendingStaffSalary)
		})
		return e.say(ctx, chatID, "Enter Staff Salary (optional, 'skip' to ignore):")

	case session.PendingStaffSalary:
		var salary float64
		if !isSkip(text) {
			v, err := parseAmount(text)
			if err != nil {
				return err
			}
			salary = v
		}
		staff := &models.Staff{
			Name:               sess.Record.Name,
			Phone:              sess.Record.Phone,
			Role:               sess.Record.Role,
			Salary:             salary,
			AvailabilityStatus: models.AvailabilityFree,
		}
		if err := service.ValidateRecord(staff); err != nil {
			return err
		}
		if err := e.store.CreateStaff(ctx, staff); err != nil {
			return fmt.Errorf("create staff: %w", err)
		}
		return e.done(ctx, sess, "completed", "Staff added successfully!")
	}
	return nil
}

func (e *Engine) startStaffDelete(ctx context.Context, chatID int64) error {
	return e.pickStaff(ctx, chatID, session.FlowStaffDelete, "No staff to delete.", "Select a staff to delete:", "delete_staff_")
}

func (e *Engine) startStaffUpdate(ctx context.Context, chatID int64) error {
	return e.pickStaff(ctx, chatID, session.FlowStaffUpdate, "No staff to update.", "Select a staff to update:", "select_update_staff_")
}

func (e *Engine) startStaffPerformance(ctx context.Context, chatID int64) error {
	return e.pickStaff(ctx, chatID, session.FlowStaffPerformance, "No staff available.", "Select a staff to view performance:", "select_performance_staff_")
}

func (e *Engine) pickStaff(ctx context.Context, chatID int64, flow session.FlowKind, empty, prompt, prefix string) error {
	staff, err := e.store.ListStaff(ctx)
	if err != nil {
		return fmt.Errorf("list staff: %w", err)
	}
	if len(staff) == 0 {
		return e.finish(ctx, chatID, empty)
	}

	e.sessions.Create(chatID, flow)
	e.update(chatID, func(s *session.Session) { s.Step = stepRecordSelect })

	rows := make([][]domain.Choice, 0, len(staff)+1)
	for _, s := range staff {
		rows = append(rows, []domain.Choice{choice(fmt.Sprintf("%s - %s", s.Name, s.Phone), prefix+s.Phone)})
	}
	rows = append(rows, clearChatRow()...)
	return e.ask(ctx, chatID, prompt, rows)
}

func (e *Engine) staffDeleteChoice(ctx context.Context, sess session.Session, tok Token) error {
	switch tok.Kind {
	case TokDeleteStaff:
		if sess.Step != stepRecordSelect {
			return errStaleChoice
		}
		e.update(sess.ChatID, func(s *session.Session) {
			s.Target = tok.Value
			s.Step = stepRecordConfirm
		})
		return e.ask(ctx, sess.ChatID, fmt.Sprintf("Are you sure you want to delete staff with phone %s?", tok.Value), [][]domain.Choice{{
			choice("Yes", "confirm_delete_staff"),
			choice("No", "cancel_delete_staff"),
		}})

	case TokConfirmDeleteStaff:
		if sess.Step != stepRecordConfirm {
			return errStaleChoice
		}
		if err := e.store.DeleteStaff(ctx, sess.Target); err != nil {
			return recordErr(err, "Staff not found.", "delete staff")
		}
		return e.done(ctx, sess, "completed", "Staff deleted successfully!")

	case TokCancelDeleteStaff:
		return e.done(ctx, sess, "canceled", "Staff deletion canceled.")
	}
	return errStaleChoice
}

func (e *Engine) staffUpdateChoice(ctx context.Context, sess session.Session, tok Token) error {
	switch tok.Kind {
	case TokSelectUpdateStaff:
		if sess.Step != stepRecordSelect {
			return errStaleChoice
		}
		e.update(sess.ChatID, func(s *session.Session) {
			s.Target = tok.Value
			s.Step = stepRecordField
		})
		rows := make([][]domain.Choice, 0, len(staffFields))
		for _, f := range staffFields {
			rows = append(rows, []domain.Choice{choice(f.label, "update_staff_field_"+f.key)})
		}
		return e.ask(ctx, sess.ChatID, "Which field do you want to update?", rows)

	case TokUpdateStaffField:
		if sess.Step != stepRecordField || !knownField(staffFields, tok.Value) {
			return errStaleChoice
		}
		return e.askFieldValue(ctx, sess.ChatID, tok.Value)
	}
	return errStaleChoice
}

func (e *Engine) staffUpdateText(ctx context.Context, sess session.Session, text string) error {
	if sess.Pending != session.PendingFieldValue {
		return nil
	}
	staff, err := e.store.GetStaff(ctx, sess.Target)
	if err != nil {
		return recordErr(err, "Staff not found.", "load staff")
	}

	switch sess.Field {
	case "name":
		staff.Name = text
	case "phone":
		staff.Phone = models.NormalizePhone(text)
	case "role":
		staff.Role = text
	case "salary":
		if staff.Salary, err = parseAmount(text); err != nil {
			return err
		}
	case "availabilityStatus":
		staff.AvailabilityStatus = strings.ToLower(text)
	}

	if err := service.ValidateRecord(staff); err != nil {
		return err
	}
	if err := e.store.UpdateStaff(ctx, staff); err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	return e.done(ctx, sess, "completed", "Staff updated successfully!")
}

func (e *Engine) staffPerformanceChoice(ctx context.Context, sess session.Session, tok Token) error {
	if tok.Kind != TokSelectPerformanceStaff || sess.Step != stepRecordSelect {
		return errStaleChoice
	}
	staff, err := e.store.GetStaff(ctx, tok.Value)
	if err != nil {
		return recordErr(err, "Staff not found.", "load staff")
	}
	report, err := e.reports.Performance(ctx, staff.Name)
	if err != nil {
		return fmt.Errorf("staff performance: %w", err)
	}
	metrics.IncFlow(sess.Flow.String(), "completed")
	return e.finishWith(ctx, sess.ChatID, service.FormatPerformance(report), models.ParseModeMarkdown, e.settings.ReportCleanupDelay)
}
