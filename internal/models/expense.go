package models

import "time"

type Expense struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category" validate:"required"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount" validate:"gte=0"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
