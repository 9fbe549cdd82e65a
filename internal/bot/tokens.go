package bot

import (
	"strconv"
	"strings"

	"backoffice/internal/models"
)

// TokenKind identifies a decoded button token.
type TokenKind int

const (
	TokUnknown TokenKind = iota

	// global commands
	TokClearChat
	TokMainBookings
	TokMainClients
	TokMainExpenses
	TokMainStaff
	TokBookingNew
	TokBookingUpdate
	TokBookingCancel
	TokBookingEarnings
	TokBookingExport
	TokEarningsCurrentMonth
	TokEarningsPrev15
	TokClientViewAll
	TokClientAdd
	TokClientDelete
	TokClientUpdate
	TokExpenseView
	TokExpenseAdd
	TokExpenseDelete
	TokExpenseUpdate
	TokExpenseExport
	TokStaffView
	TokStaffAdd
	TokStaffDelete
	TokStaffUpdate
	TokStaffPerformance
	lastGlobal

	// booking flow
	TokAmount
	TokAmountCustom
	TokDuration
	TokPayment
	TokProfit
	TokStaff
	TokService
	TokDate
	TokDateCustom
	TokTime
	TokTimeCustom
	TokUseAddressYes
	TokUseAddressNo
	TokNameSkip
	TokGender
	TokMapSkip
	TokFinalConfirm
	TokCancelBookingFlow

	// cancel-selection flow
	TokCancelSelect
	TokCancelConfirm
	TokCancelAbort

	// edit flow
	TokEditSelect
	TokEditCancelBooking
	TokEditUpdateBooking
	TokUpdStaff
	TokStaffSel
	TokUpdTimeslot
	TokUpdTimeslotDate
	TokUpdTimeslotDateCustom
	TokUpdTimeslotTime
	TokUpdTimeslotTimeCustom
	TokUpdAddress
	TokUpdMap
	TokUpdStatus
	TokStatus

	// client flows
	TokDeleteClient
	TokConfirmDeleteClient
	TokCancelDeleteClient
	TokSelectUpdateClient
	TokUpdateClientField

	// expense flows
	TokDeleteExpense
	TokConfirmDeleteExpense
	TokCancelDeleteExpense
	TokUpdateExpenseField
	TokExpenseDateToday
	TokExpenseDateCustom

	// staff flows
	TokDeleteStaff
	TokConfirmDeleteStaff
	TokCancelDeleteStaff
	TokSelectUpdateStaff
	TokUpdateStaffField
	TokSelectPerformanceStaff
)

// Token is a button token decoded once at the boundary. Value carries the
// payload of parameterised tokens (booking id, phone, field, date, time,
// payment method, ...); Amount and Minutes carry numeric payloads.
type Token struct {
	Kind    TokenKind
	Raw     string
	Value   string
	Amount  float64
	Minutes int
}

// Global reports whether the token is a menu command that acts regardless of session.
func (t Token) Global() bool {
	return t.Kind > TokUnknown && t.Kind < lastGlobal
}

var exactTokens = map[string]TokenKind{
	"clear_chat":             TokClearChat,
	"main_bookings":          TokMainBookings,
	"main_clients":           TokMainClients,
	"main_expenses":          TokMainExpenses,
	"main_staff":             TokMainStaff,
	"booking_new":            TokBookingNew,
	"booking_update":         TokBookingUpdate,
	"booking_cancel":         TokBookingCancel,
	"booking_earnings":       TokBookingEarnings,
	"booking_export":         TokBookingExport,
	"earnings_current_month": TokEarningsCurrentMonth,
	"earnings_prev_15":       TokEarningsPrev15,
	"client_viewall":         TokClientViewAll,
	"client_add":             TokClientAdd,
	"client_delete":          TokClientDelete,
	"client_update":          TokClientUpdate,
	"expense_view":           TokExpenseView,
	"expense_add":            TokExpenseAdd,
	"expense_delete":         TokExpenseDelete,
	"expense_update":         TokExpenseUpdate,
	"expense_export":         TokExpenseExport,
	"staff_view":             TokStaffView,
	"staff_add":              TokStaffAdd,
	"staff_delete":           TokStaffDelete,
	"staff_update":           TokStaffUpdate,
	"staff_performance":      TokStaffPerformance,

	"amount_custom":            TokAmountCustom,
	"date_custom":              TokDateCustom,
	"time_custom":              TokTimeCustom,
	"use_existing_address_yes": TokUseAddressYes,
	"use_existing_address_no":  TokUseAddressNo,
	"name_skip":                TokNameSkip,
	"map_skip":                 TokMapSkip,
	"final_confirm":            TokFinalConfirm,
	"cancel_booking_flow":      TokCancelBookingFlow,

	"cancel_confirm": TokCancelConfirm,
	"cancel_abort":   TokCancelAbort,

	"cancel_booking":           TokEditCancelBooking,
	"update_booking":           TokEditUpdateBooking,
	"upd_staff":                TokUpdStaff,
	"upd_timeslot":             TokUpdTimeslot,
	"upd_timeslot_date_custom": TokUpdTimeslotDateCustom,
	"upd_timeslot_time_custom": TokUpdTimeslotTimeCustom,
	"upd_address":              TokUpdAddress,
	"upd_map":                  TokUpdMap,
	"upd_status":               TokUpdStatus,

	"confirm_delete_client":  TokConfirmDeleteClient,
	"cancel_delete_client":   TokCancelDeleteClient,
	"confirm_delete_expense": TokConfirmDeleteExpense,
	"cancel_delete_expense":  TokCancelDeleteExpense,
	"expense_date_today":     TokExpenseDateToday,
	"expense_date_custom":    TokExpenseDateCustom,
	"confirm_delete_staff":   TokConfirmDeleteStaff,
	"cancel_delete_staff":    TokCancelDeleteStaff,
}

// Longer prefixes first: "upd_timeslot_date_" must win over shorter ones and
// "staffsel_" over "staff_".
var prefixTokens = []struct {
	prefix string
	kind   TokenKind
}{
	{"select_performance_staff_", TokSelectPerformanceStaff},
	{"update_expense_field_", TokUpdateExpenseField},
	{"select_update_client_", TokSelectUpdateClient},
	{"select_update_staff_", TokSelectUpdateStaff},
	{"update_client_field_", TokUpdateClientField},
	{"update_staff_field_", TokUpdateStaffField},
	{"upd_timeslot_date_", TokUpdTimeslotDate},
	{"upd_timeslot_time_", TokUpdTimeslotTime},
	{"delete_expense_", TokDeleteExpense},
	{"cancel_select_", TokCancelSelect},
	{"delete_client_", TokDeleteClient},
	{"delete_staff_", TokDeleteStaff},
	{"duration_", TokDuration},
	{"staffsel_", TokStaffSel},
	{"payment_", TokPayment},
	{"service_", TokService},
	{"amount_", TokAmount},
	{"profit_", TokProfit},
	{"status_", TokStatus},
	{"gender_", TokGender},
	{"staff_", TokStaff},
	{"date_", TokDate},
	{"time_", TokTime},
	{"edit_", TokEditSelect},
}

// DecodeToken parses a raw callback token. Tokens that do not match the
// vocabulary, or whose payload is malformed, decode to TokUnknown.
func DecodeToken(raw string) Token {
	if kind, ok := exactTokens[raw]; ok {
		return Token{Kind: kind, Raw: raw}
	}

	for _, p := range prefixTokens {
		if !strings.HasPrefix(raw, p.prefix) {
			continue
		}
		tok := Token{Kind: p.kind, Raw: raw, Value: strings.TrimPrefix(raw, p.prefix)}
		if !decodePayload(&tok) {
			return Token{Kind: TokUnknown, Raw: raw}
		}
		return tok
	}

	return Token{Kind: TokUnknown, Raw: raw}
}

func decodePayload(tok *Token) bool {
	switch tok.Kind {
	case TokAmount:
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil || v < 0 {
			return false
		}
		tok.Amount = v
	case TokDuration:
		// "duration_90 mins"; the unit suffix is optional
		fields := strings.Fields(tok.Value)
		if len(fields) == 0 {
			return false
		}
		m, err := strconv.Atoi(fields[0])
		if err != nil || m <= 0 {
			return false
		}
		tok.Minutes = m
	case TokPayment:
		if tok.Value == "cash" {
			tok.Value = models.PaymentCash
		} else {
			tok.Value = models.PaymentOnline
		}
	case TokProfit:
		if tok.Value == "shared" {
			tok.Value = models.ProfitShared
		} else {
			tok.Value = models.ProfitOnlyRanjeet
		}
	case TokGender:
		switch tok.Value {
		case "male":
			tok.Value = "Male"
		case "female":
			tok.Value = "Female"
		case "skip":
			tok.Value = ""
		default:
			return false
		}
	case TokTime, TokUpdTimeslotTime:
		tok.Value = strings.ReplaceAll(tok.Value, "_", " ")
	case TokStatus:
		status, ok := statusFromToken(tok.Value)
		if !ok {
			return false
		}
		tok.Value = status
	}
	return tok.Value != "" || tok.Kind == TokGender
}

func statusFromToken(v string) (string, bool) {
	for _, s := range models.BookingStatuses {
		if strings.EqualFold(s, v) {
			return s, true
		}
	}
	return "", false
}
