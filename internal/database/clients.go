package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backoffice/internal/models"
)

const clientColumns = `id, phone, name, email, gender, address, map_link, created_at, updated_at`

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		c                              models.Client
		name, email, gender, mapLink sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Phone, &name, &email, &gender, &c.Address, &mapLink, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Name = name.String
	c.Email = email.String
	c.Gender = gender.String
	c.MapLink = mapLink.String
	return &c, nil
}

// CreateClient inserts a client. A taken phone yields ErrDuplicate.
func (db *DB) CreateClient(ctx context.Context, client *models.Client) error {
	query := `INSERT INTO clients (phone, name, email, gender, address, map_link, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		client.Phone,
		nullString(client.Name),
		nullString(client.Email),
		nullString(client.Gender),
		client.Address,
		nullString(client.MapLink),
		utc(now),
		utc(now),
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", mapError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	client.ID = id
	client.CreatedAt = now
	client.UpdatedAt = now
	return nil
}

func (db *DB) GetClient(ctx context.Context, phone string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE phone = ?`
	c, err := scanClient(db.QueryRowContext(ctx, query, phone))
	if err != nil {
		return nil, fmt.Errorf("failed to get client %s: %w", phone, mapError(err))
	}
	return c, nil
}

// UpdateClient rewrites the client identified by ID, phone included.
func (db *DB) UpdateClient(ctx context.Context, client *models.Client) error {
	query := `UPDATE clients SET phone = ?, name = ?, email = ?, gender = ?, address = ?, map_link = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now()
	res, err := db.ExecContext(ctx, query,
		client.Phone,
		nullString(client.Name),
		nullString(client.Email),
		nullString(client.Gender),
		client.Address,
		nullString(client.MapLink),
		utc(now),
		client.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client %d: %w", client.ID, mapError(err))
	}
	if err := ensureAffected(res); err != nil {
		return fmt.Errorf("failed to update client %d: %w", client.ID, err)
	}
	client.UpdatedAt = now
	return nil
}

// DeleteClient removes the client only; bookings keep their client_phone.
func (db *DB) DeleteClient(ctx context.Context, phone string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM clients WHERE phone = ?`, phone)
	if err != nil {
		return fmt.Errorf("failed to delete client %s: %w", phone, err)
	}
	if err := ensureAffected(res); err != nil {
		return fmt.Errorf("failed to delete client %s: %w", phone, err)
	}
	return nil
}

func (db *DB) ListClients(ctx context.Context) ([]*models.Client, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
