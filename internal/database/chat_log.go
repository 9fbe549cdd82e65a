package database

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/models"
)

func (db *DB) AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO chat_messages (phone, sender, message, timestamp) VALUES (?, ?, ?, ?)`,
		msg.Phone, msg.Sender, msg.Message, utc(msg.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// ChatHistory returns up to limit messages of a phone in chronological order.
func (db *DB) ChatHistory(ctx context.Context, phone string, limit int) ([]*models.ChatMessage, error) {
	query := `SELECT id, phone, sender, message, timestamp FROM chat_messages
              WHERE phone = ? ORDER BY timestamp DESC, id DESC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}
	defer rows.Close()

	var history []*models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.Phone, &m.Sender, &m.Message, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		history = append(history, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}

	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}
