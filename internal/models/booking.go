package models

import "time"

type Booking struct {
	ID             int64     `json:"id"`
	BookingID      string    `json:"booking_id" validate:"required,len=6,alphanum"`
	ClientPhone    string    `json:"client_phone" validate:"required"`
	ServiceType    string    `json:"service_type"`
	Duration       int       `json:"duration" validate:"gte=0"` // minutes
	RequestedDate  time.Time `json:"requested_date"`
	SlotStart      time.Time `json:"slot_start"`
	SlotEnd        time.Time `json:"slot_end"`
	Amount         float64   `json:"amount" validate:"gte=0"`
	PaymentMethod  string    `json:"payment_method"`
	ProfitShare    string    `json:"profit_share"`
	Shared         bool      `json:"shared"`
	Status         string    `json:"status" validate:"oneof=Pending Confirmed Completed Canceled"`
	AssignedStaff  string    `json:"assigned_staff,omitempty"` // empty when not assigned
	Source         string    `json:"source" validate:"oneof=staff client"`
	GroupChatID    int64     `json:"group_chat_id,omitempty"`
	GroupMessageID int       `json:"group_message_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasMirror reports whether a receiver chat message is linked to the booking.
func (b *Booking) HasMirror() bool {
	return b.GroupChatID != 0 && b.GroupMessageID != 0
}

// ClearMirror drops the receiver chat reference.
func (b *Booking) ClearMirror() {
	b.GroupChatID = 0
	b.GroupMessageID = 0
}

// StatusForSource returns the initial status of a booking created from the given source.
func StatusForSource(source string) string {
	if source == SourceStaff {
		return StatusCompleted
	}
	return StatusPending
}
