package models

import (
	"strings"
	"time"
	"unicode"
)

type Client struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone" validate:"required"`
	Name      string    `json:"name"`
	Email     string    `json:"email" validate:"omitempty,email"`
	Gender    string    `json:"gender"`
	Address   string    `json:"address" validate:"required"`
	MapLink   string    `json:"map_link"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the client's name or a placeholder.
func (c *Client) DisplayName() string {
	if c.Name == "" {
		return "No Name"
	}
	return c.Name
}

// NormalizePhone strips whitespace, '+' and '-' from a phone number.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '+' || r == '-' {
			return -1
		}
		return r
	}, phone)
}
