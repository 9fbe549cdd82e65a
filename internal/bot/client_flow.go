package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backoffice/internal/database"
	"backoffice/internal/domain"
	"backoffice/internal/models"
	"backoffice/internal/service"
	"backoffice/internal/session"
)

const (
	stepRecordSelect = iota + 1
	stepRecordConfirm
	stepRecordField
)

var clientFields = []struct{ label, key string }{
	{"Name", "name"},
	{"Email", "email"},
	{"Phone", "phone"},
	{"Address", "address"},
	{"Map Link", "mapLink"},
}

func (e *Engine) viewClients(ctx context.Context, chatID int64) error {
	clients, err := e.store.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	if len(clients) == 0 {
		return e.ask(ctx, chatID, "No clients found.", clearChatRow())
	}

	var sb strings.Builder
	sb.WriteString("All Clients:")
	for i, c := range clients {
		fmt.Fprintf(&sb, "\n%d. %s - %s", i+1, c.DisplayName(), c.Phone)
	}
	return e.ask(ctx, chatID, sb.String(), clearChatRow())
}

func (e *Engine) startClientAdd(ctx context.Context, chatID int64) error {
	e.sessions.Create(chatID, session.FlowClientAdd)
	e.update(chatID, func(s *session.Session) { s.Await(session.PendingClientAddPhone) })
	return e.say(ctx, chatID, "Enter Client Phone Number:")
}

func (e *Engine) clientAddText(ctx context.Context, sess session.Session, text string) error {
	chatID := sess.ChatID
	switch sess.Pending {
	case session.PendingClientAddPhone:
		phone := models.NormalizePhone(text)
		if phone == "" {
			return e.say(ctx, chatID, "Enter Client Phone Number:")
		}
		e.update(chatID, func(s *session.Session) {
			s.Record.Phone = phone
			s.Await(session.PendingClientAddAddress)
		})
		return e.say(ctx, chatID, "Enter Client Address:")

	case session.PendingClientAddAddress:
		if text == "" {
			return e.say(ctx, chatID, "Enter Client Address:")
		}
		e.update(chatID, func(s *session.Session) {
			s.Record.Address = text
			s.Await(session.PendingClientAddName)
		})
		return e.say(ctx, chatID, "Enter Client Name (optional, or type 'skip'):")

	case session.PendingClientAddName:
		name := text
		if isSkip(name) {
			name = ""
		}
		client := &models.Client{Phone: sess.Record.Phone, Address: sess.Record.Address, Name: name}
		if err := service.ValidateRecord(client); err != nil {
			return err
		}
		if err := e.store.CreateClient(ctx, client); err != nil {
			return fmt.Errorf("create client: %w", err)
		}
		return e.done(ctx, sess, "completed", "Client added successfully!")
	}
	return nil
}

func (e *Engine) startClientDelete(ctx context.Context, chatID int64) error {
	return e.pickClient(ctx, chatID, session.FlowClientDelete, "No clients to delete.", "Select a client to delete:", "delete_client_")
}

func (e *Engine) startClientUpdate(ctx context.Context, chatID int64) error {
	return e.pickClient(ctx, chatID, session.FlowClientUpdate, "No clients to update.", "Select a client to update:", "select_update_client_")
}

func (e *Engine) pickClient(ctx context.Context, chatID int64, flow session.FlowKind, empty, prompt, prefix string) error {
	clients, err := e.store.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	if len(clients) == 0 {
		return e.finish(ctx, chatID, empty)
	}

	e.sessions.Create(chatID, flow)
	e.update(chatID, func(s *session.Session) { s.Step = stepRecordSelect })

	rows := make([][]domain.Choice, 0, len(clients)+1)
	for i, c := range clients {
		rows = append(rows, []domain.Choice{choice(fmt.Sprintf("%d. %s - %s", i+1, c.DisplayName(), c.Phone), prefix+c.Phone)})
	}
	rows = append(rows, clearChatRow()...)
	return e.ask(ctx, chatID, prompt, rows)
}

func (e *Engine) clientDeleteChoice(ctx context.Context, sess session.Session, tok Token) error {
	switch tok.Kind {
	case TokDeleteClient:
		if sess.Step != stepRecordSelect {
			return errStaleChoice
		}
		e.update(sess.ChatID, func(s *session.Session) {
			s.Target = tok.Value
			s.Step = stepRecordConfirm
		})
		return e.ask(ctx, sess.ChatID, fmt.Sprintf("Are you sure you want to delete client %s?", tok.Value), [][]domain.Choice{{
			choice("Yes", "confirm_delete_client"),
			choice("No", "cancel_delete_client"),
		}})

	case TokConfirmDeleteClient:
		if sess.Step != stepRecordConfirm {
			return errStaleChoice
		}
		if err := e.store.DeleteClient(ctx, sess.Target); err != nil {
			return recordErr(err, "Client not found.", "delete client")
		}
		return e.done(ctx, sess, "completed", "Client deleted successfully!")

	case TokCancelDeleteClient:
		return e.done(ctx, sess, "canceled", "Client deletion canceled.")
	}
	return errStaleChoice
}

func (e *Engine) clientUpdateChoice(ctx context.Context, sess session.Session, tok Token) error {
	switch tok.Kind {
	case TokSelectUpdateClient:
		if sess.Step != stepRecordSelect {
			return errStaleChoice
		}
		e.update(sess.ChatID, func(s *session.Session) {
			s.Target = tok.Value
			s.Step = stepRecordField
		})
		rows := make([][]domain.Choice, 0, len(clientFields))
		for _, f := range clientFields {
			rows = append(rows, []domain.Choice{choice(f.label, "update_client_field_"+f.key)})
		}
		return e.ask(ctx, sess.ChatID, "Which field do you want to update?", rows)

	case TokUpdateClientField:
		if sess.Step != stepRecordField || !knownField(clientFields, tok.Value) {
			return errStaleChoice
		}
		return e.askFieldValue(ctx, sess.ChatID, tok.Value)
	}
	return errStaleChoice
}

func (e *Engine) clientUpdateText(ctx context.Context, sess session.Session, text string) error {
	if sess.Pending != session.PendingFieldValue {
		return nil
	}
	client, err := e.store.GetClient(ctx, sess.Target)
	if err != nil {
		return recordErr(err, "Client not found.", "load client")
	}

	switch sess.Field {
	case "name":
		client.Name = text
	case "email":
		client.Email = text
	case "phone":
		client.Phone = models.NormalizePhone(text)
	case "address":
		client.Address = text
	case "mapLink":
		client.MapLink = text
	}

	if err := service.ValidateRecord(client); err != nil {
		return err
	}
	if err := e.store.UpdateClient(ctx, client); err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return e.done(ctx, sess, "completed", "Client updated successfully!")
}

// askFieldValue arms the free-text prompt of the generic update flows.
func (e *Engine) askFieldValue(ctx context.Context, chatID int64, field string) error {
	e.update(chatID, func(s *session.Session) {
		s.Field = field
		s.Await(session.PendingFieldValue)
	})
	return e.say(ctx, chatID, fmt.Sprintf("Enter new value for %s:", field))
}

func knownField(fields []struct{ label, key string }, key string) bool {
	for _, f := range fields {
		if f.key == key {
			return true
		}
	}
	return false
}

// recordErr turns a missing record into a terminal reply.
func recordErr(err error, notFound, op string) error {
	if errors.Is(err, database.ErrNotFound) {
		return endFlow(notFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
