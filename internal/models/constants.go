package models

import (
	"strconv"
	"time"
)

const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCompleted = "Completed"
	StatusCanceled  = "Canceled"
)

const (
	SourceStaff  = "staff"
	SourceClient = "client"
)

const (
	AvailabilityFree = "free"
	AvailabilityBusy = "busy"
)

const (
	SenderClient = "client"
	SenderBot    = "bot"
)

const (
	PaymentCash   = "Cash"
	PaymentOnline = "Online/Bank"

	ProfitShared      = "Shared"
	ProfitOnlyRanjeet = "Only Ranjeet"
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// DisplayDateLayout is the DD-MM-YYYY format used in chat replies.
	DisplayDateLayout = "02-01-2006"
	// InputDateLayout is what users type for custom dates.
	InputDateLayout = "2006-01-02"
	// ClockLayout is the h:mm AM time of day shown in chat.
	ClockLayout = "3:04 PM"
	// SlotLayout parses "<date> <h:mm AM>".
	SlotLayout = "2006-01-02 3:04 PM"
)

const (
	// RecentLimit caps the selection lists of cancel, edit and delete flows.
	RecentLimit = 10

	// RanjeetSalaryDeduction covers Jenny and Praw salaries.
	RanjeetSalaryDeduction = 6000.0
	// NoraSalaryDeduction covers the driver salary.
	NoraSalaryDeduction = 4000.0

	// WorkerQueueSize is the in-memory ledger queue capacity.
	WorkerQueueSize = 1000

	// SheetsCacheTTL is how long a ledger row number stays cached.
	SheetsCacheTTL = time.Hour
)

// BookingStatuses lists statuses in the order offered by the edit flow.
var BookingStatuses = []string{StatusPending, StatusConfirmed, StatusCompleted, StatusCanceled}

// FormatAmount renders money without trailing zeros: 300, 150.5.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
