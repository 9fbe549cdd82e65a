package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/models"
	"backoffice/internal/service"
	"backoffice/internal/session"
)

const stepExpenseDate = 1

var expenseFields = []struct{ label, key string }{
	{"Category", "category"},
	{"Description", "description"},
	{"Amount", "amount"},
	{"Date", "date"},
}

func (e *Engine) viewExpenses(ctx context.Context, chatID int64) error {
	expenses, err := e.store.ListExpenses(ctx, 0)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	if len(expenses) == 0 {
		return e.ask(ctx, chatID, "No expenses found.", clearChatRow())
	}

	var sb strings.Builder
	sb.WriteString("Expenses:")
	for _, x := range expenses {
		fmt.Fprintf(&sb, "\n#%d %s: %s AED on %s - %s", x.ID, x.Category, models.FormatAmount(x.Amount),
			x.Date.In(e.settings.Location).Format(models.DisplayDateLayout), x.Description)
	}
	return e.ask(ctx, chatID, sb.String(), clearChatRow())
}

func (e *Engine) startExpenseAdd(ctx context.Context, chatID int64) error {
	e.sessions.Create(chatID, session.FlowExpenseAdd)
	e.update(chatID, func(s *session.Session) { s.Await(session.PendingExpenseCategory) })
	return e.say(ctx, chatID, "Enter expense category:")
}

func (e *Engine) expenseAddText(ctx context.Context, sess session.Session, text string) error {
	chatID := sess.ChatID
	switch sess.Pending {
	case session.PendingExpenseCategory:
		if text == "" {
			return e.say(ctx, chatID, "Enter expense category:")
		}
		e.update(chatID, func(s *session.Session) {
			s.Record.Category = text
			s.Await(session.PendingExpenseDescription)
		})
		return e.say(ctx, chatID, "Enter expense description:")

	case session.PendingExpenseDescription:
		e.update(chatID, func(s *session.Session) {
			s.Record.Description = text
			s.Await(session.PendingExpenseAmount)
		})
		return e.say(ctx, chatID, "Enter expense amount:")

	case session.PendingExpenseAmount:
		amount, err := parseAmount(text)
		if err != nil {
			return err
		}
		e.update(chatID, func(s *session.Session) {
			s.Record.Amount = amount
			s.Step = stepExpenseDate
			s.Await(session.PendingNone)
		})
		return e.ask(ctx, chatID, "Choose date option:", [][]domain.Choice{{
			choice("Today", "expense_date_today"),
			choice("Custom Date", "expense_date_custom"),
		}})

	case session.PendingExpenseCustomDate:
		date, err := parseDate(text, e.settings.Location)
		if err != nil {
			return err
		}
		return e.createExpense(ctx, sess, date)
	}
	return nil
}

func (e *Engine) expenseAddChoice(ctx context.Context, sess session.Session, tok Token) error {
	if sess.Step != stepExpenseDate {
		return errStaleChoice
	}
	switch tok.Kind {
	case TokExpenseDateToday:
		return e.createExpense(ctx, sess, e.today())
	case TokExpenseDateCustom:
		e.update(sess.ChatID, func(s *session.Session) { s.Await(session.PendingExpenseCustomDate) })
		return e.say(ctx, sess.ChatID, "Enter custom date (YYYY-MM-DD):")
	}
	return errStaleChoice
}

func (e *Engine) createExpense(ctx context.Context, sess session.Session, date time.Time) error {
	expense := &models.Expense{
		Category:    sess.Record.Category,
		Description: sess.Record.Description,
		Amount:      sess.Record.Amount,
		Date:        date,
	}
	if err := service.ValidateRecord(expense); err != nil {
		return err
	}
	if err := e.store.CreateExpense(ctx, expense); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return e.done(ctx, sess, "completed", "Expense added successfully!")
}

func (e *Engine) startExpenseDelete(ctx context.Context, chatID int64) error {
	expenses, err := e.store.ListExpenses(ctx, models.RecentLimit)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	if len(expenses) == 0 {
		return e.finish(ctx, chatID, "No expenses to delete.")
	}

	e.sessions.Create(chatID, session.FlowExpenseDelete)
	e.update(chatID, func(s *session.Session) { s.Step = stepRecordSelect })

	rows := make([][]domain.Choice, 0, len(expenses)+1)
	for _, x := range expenses {
		label := fmt.Sprintf("%s - %s AED", x.Category, models.FormatAmount(x.Amount))
		rows = append(rows, []domain.Choice{choice(label, fmt.Sprintf("delete_expense_%d", x.ID))})
	}
	rows = append(rows, clearChatRow()...)
	return e.ask(ctx, chatID, "Select an expense to delete:", rows)
}

func (e *Engine) expenseDeleteChoice(ctx context.Context, sess session.Session, tok Token) error {
	switch tok.Kind {
	case TokDeleteExpense:
		if sess.Step != stepRecordSelect {
			return errStaleChoice
		}
		e.update(sess.ChatID, func(s *session.Session) {
			s.Target = tok.Value
			s.Step = stepRecordConfirm
		})
		return e.ask(ctx, sess.ChatID, "Are you sure you want to delete this expense?", [][]domain.Choice{{
			choice("Yes", "confirm_delete_expense"),
			choice("No", "cancel_delete_expense"),
		}})

	case TokConfirmDeleteExpense:
		if sess.Step != stepRecordConfirm {
			return errStaleChoice
		}
		id, err := strconv.ParseInt(sess.Target, 10, 64)
		if err != nil {
			return endFlow("Expense not found. Clearing chat.", err)
		}
		if err := e.store.DeleteExpense(ctx, id); err != nil {
			return recordErr(err, "Expense not found. Clearing chat.", "delete expense")
		}
		return e.done(ctx, sess, "completed", "Expense deleted successfully!")

	case TokCancelDeleteExpense:
		return e.done(ctx, sess, "canceled", "Expense deletion canceled.")
	}
	return errStaleChoice
}

func (e *Engine) startExpenseUpdate(ctx context.Context, chatID int64) error {
	e.sessions.Create(chatID, session.FlowExpenseUpdate)
	e.update(chatID, func(s *session.Session) { s.Await(session.PendingExpenseID) })
	return e.say(ctx, chatID, "Enter the ID of the expense you want to update (Get it from view expenses):")
}

func (e *Engine) expenseUpdateChoice(ctx context.Context, sess session.Session, tok Token) error {
	if tok.Kind != TokUpdateExpenseField || sess.Step != stepRecordField || !knownField(expenseFields, tok.Value) {
		return errStaleChoice
	}
	return e.askFieldValue(ctx, sess.ChatID, tok.Value)
}

func (e *Engine) expenseUpdateText(ctx context.Context, sess session.Session, text string) error {
	switch sess.Pending {
	case session.PendingExpenseID:
		expense, err := e.loadExpense(ctx, strings.TrimPrefix(text, "#"))
		if err != nil {
			return err
		}
		e.update(sess.ChatID, func(s *session.Session) {
			s.Target = strconv.FormatInt(expense.ID, 10)
			s.Step = stepRecordField
			s.Await(session.PendingNone)
		})
		rows := make([][]domain.Choice, 0, len(expenseFields))
		for _, f := range expenseFields {
			rows = append(rows, []domain.Choice{choice(f.label, "update_expense_field_"+f.key)})
		}
		return e.ask(ctx, sess.ChatID, "Which field do you want to update?", rows)

	case session.PendingFieldValue:
		expense, err := e.loadExpense(ctx, sess.Target)
		if err != nil {
			return err
		}
		switch sess.Field {
		case "category":
			expense.Category = text
		case "description":
			expense.Description = text
		case "amount":
			if expense.Amount, err = parseAmount(text); err != nil {
				return err
			}
		case "date":
			if expense.Date, err = parseDate(text, e.settings.Location); err != nil {
				return err
			}
		}
		if err := service.ValidateRecord(expense); err != nil {
			return err
		}
		if err := e.store.UpdateExpense(ctx, expense); err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		return e.done(ctx, sess, "completed", "Expense updated successfully!")
	}
	return nil
}

func (e *Engine) loadExpense(ctx context.Context, rawID string) (*models.Expense, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil {
		return nil, endFlow("Expense not found. Clearing chat.", err)
	}
	expense, err := e.store.GetExpense(ctx, id)
	if err != nil {
		return nil, recordErr(err, "Expense not found. Clearing chat.", "load expense")
	}
	return expense, nil
}
