package models

import "time"

// ChatMessage is one line of the inbound messaging log.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	Sender    string    `json:"sender"` // client, bot
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
