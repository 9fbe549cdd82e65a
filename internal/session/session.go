// Package session keeps per-chat conversation state in process memory.
//
// State is not persisted: a restart drops every in-flight flow and the user
// starts again from /start. Tracked message ids are kept per chat, beside the
// session, so menus sent before a flow began are still purged on teardown.
package session

// FlowKind names the multi-step process a chat is in.
type FlowKind int

const (
	FlowNone FlowKind = iota
	FlowBooking
	FlowClientAdd
	FlowClientUpdate
	FlowClientDelete
	FlowExpenseAdd
	FlowExpenseUpdate
	FlowExpenseDelete
	FlowStaffAdd
	FlowStaffUpdate
	FlowStaffDelete
	FlowStaffPerformance
	FlowBookingCancel
	FlowBookingEdit
)

var flowNames = map[FlowKind]string{
	FlowNone:             "none",
	FlowBooking:          "booking",
	FlowClientAdd:        "client_add",
	FlowClientUpdate:     "client_update",
	FlowClientDelete:     "client_delete",
	FlowExpenseAdd:       "expense_add",
	FlowExpenseUpdate:    "expense_update",
	FlowExpenseDelete:    "expense_delete",
	FlowStaffAdd:         "staff_add",
	FlowStaffUpdate:      "staff_update",
	FlowStaffDelete:      "staff_delete",
	FlowStaffPerformance: "staff_performance",
	FlowBookingCancel:    "booking_cancel",
	FlowBookingEdit:      "booking_edit",
}

func (f FlowKind) String() string {
	if name, ok := flowNames[f]; ok {
		return name
	}
	return "unknown"
}

// PendingInput names the free text the flow expects next. Only one prompt
// can be armed at a time.
type PendingInput int

const (
	PendingNone PendingInput = iota

	// booking flow
	PendingCustomAmount
	PendingCustomDate
	PendingCustomTime
	PendingClientPhone
	PendingName
	PendingAddress
	PendingMapLink

	// booking edit flow
	PendingNewDate
	PendingNewTime
	PendingNewAddress
	PendingNewMapLink

	// generic update flows
	PendingFieldValue
	PendingExpenseID
	PendingExpenseCustomDate

	// add flows
	PendingClientAddPhone
	PendingClientAddAddress
	PendingClientAddName
	PendingStaffName
	PendingStaffPhone
	PendingStaffRole
	PendingStaffSalary
	PendingExpenseCategory
	PendingExpenseDescription
	PendingExpenseAmount
)

// BookingDraft accumulates booking flow answers until final confirmation.
type BookingDraft struct {
	Amount         float64
	Duration       int
	PaymentMethod  string
	ProfitShare    string
	Staff          string
	Service        string
	Date           string // YYYY-MM-DD
	Time           string // h:mm AM
	ClientPhone    string
	Name           string
	Gender         string
	Address        string
	MapLink        string
	ExistingClient bool
	Source         string
}

// RecordDraft holds the answers of the client, staff and expense add flows.
type RecordDraft struct {
	Phone       string
	Name        string
	Address     string
	Role        string
	Salary      float64
	Category    string
	Description string
	Amount      float64
}

// Session is one chat's position in a flow together with the answers collected so far.
type Session struct {
	ChatID  int64
	Flow    FlowKind
	Step    int
	Pending PendingInput
	Draft   BookingDraft
	Record  RecordDraft

	// Target is the record key picked in update or delete flows: booking id,
	// client or staff phone, or expense id.
	Target string
	// Field is the field token picked in generic update flows.
	Field string
	// NewDate holds the edit flow's chosen date until the time arrives.
	NewDate string

	gen uint64
}

// Await arms a single free-text prompt.
func (s *Session) Await(p PendingInput) {
	s.Pending = p
}
