package bot

import (
	"testing"

	"backoffice/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDecodeToken(t *testing.T) {
	tests := []struct {
		raw  string
		want Token
	}{
		{"clear_chat", Token{Kind: TokClearChat, Raw: "clear_chat"}},
		{"booking_cancel", Token{Kind: TokBookingCancel, Raw: "booking_cancel"}},
		{"amount_250", Token{Kind: TokAmount, Raw: "amount_250", Value: "250", Amount: 250}},
		{"amount_custom", Token{Kind: TokAmountCustom, Raw: "amount_custom"}},
		{"duration_90 mins", Token{Kind: TokDuration, Raw: "duration_90 mins", Value: "90 mins", Minutes: 90}},
		{"duration_120", Token{Kind: TokDuration, Raw: "duration_120", Value: "120", Minutes: 120}},
		{"payment_cash", Token{Kind: TokPayment, Raw: "payment_cash", Value: models.PaymentCash}},
		{"payment_online/bank", Token{Kind: TokPayment, Raw: "payment_online/bank", Value: models.PaymentOnline}},
		{"profit_shared", Token{Kind: TokProfit, Raw: "profit_shared", Value: models.ProfitShared}},
		{"profit_only_ranjeet", Token{Kind: TokProfit, Raw: "profit_only_ranjeet", Value: models.ProfitOnlyRanjeet}},
		{"staff_praw", Token{Kind: TokStaff, Raw: "staff_praw", Value: "praw"}},
		{"staffsel_Jenny", Token{Kind: TokStaffSel, Raw: "staffsel_Jenny", Value: "Jenny"}},
		{"service_deep_tissue", Token{Kind: TokService, Raw: "service_deep_tissue", Value: "deep_tissue"}},
		{"date_2025-06-01", Token{Kind: TokDate, Raw: "date_2025-06-01", Value: "2025-06-01"}},
		{"date_custom", Token{Kind: TokDateCustom, Raw: "date_custom"}},
		{"time_4:30_PM", Token{Kind: TokTime, Raw: "time_4:30_PM", Value: "4:30 PM"}},
		{"gender_female", Token{Kind: TokGender, Raw: "gender_female", Value: "Female"}},
		{"gender_skip", Token{Kind: TokGender, Raw: "gender_skip"}},
		{"cancel_select_AB12CD", Token{Kind: TokCancelSelect, Raw: "cancel_select_AB12CD", Value: "AB12CD"}},
		{"cancel_booking", Token{Kind: TokEditCancelBooking, Raw: "cancel_booking"}},
		{"cancel_booking_flow", Token{Kind: TokCancelBookingFlow, Raw: "cancel_booking_flow"}},
		{"edit_AB12CD", Token{Kind: TokEditSelect, Raw: "edit_AB12CD", Value: "AB12CD"}},
		{"upd_timeslot", Token{Kind: TokUpdTimeslot, Raw: "upd_timeslot"}},
		{"upd_timeslot_date_custom", Token{Kind: TokUpdTimeslotDateCustom, Raw: "upd_timeslot_date_custom"}},
		{"upd_timeslot_date_2025-06-02", Token{Kind: TokUpdTimeslotDate, Raw: "upd_timeslot_date_2025-06-02", Value: "2025-06-02"}},
		{"upd_timeslot_time_10:00_AM", Token{Kind: TokUpdTimeslotTime, Raw: "upd_timeslot_time_10:00_AM", Value: "10:00 AM"}},
		{"status_confirmed", Token{Kind: TokStatus, Raw: "status_confirmed", Value: models.StatusConfirmed}},
		{"update_client_field_mapLink", Token{Kind: TokUpdateClientField, Raw: "update_client_field_mapLink", Value: "mapLink"}},
		{"delete_expense_7", Token{Kind: TokDeleteExpense, Raw: "delete_expense_7", Value: "7"}},
		{"select_performance_staff_971501", Token{Kind: TokSelectPerformanceStaff, Raw: "select_performance_staff_971501", Value: "971501"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeToken(tt.raw))
		})
	}
}

func TestDecodeTokenRejectsMalformedPayloads(t *testing.T) {
	for _, raw := range []string{
		"",
		"nonsense",
		"amount_abc",
		"amount_-5",
		"duration_mins",
		"duration_0 mins",
		"gender_other",
		"status_archived",
		"edit_",
	} {
		assert.Equal(t, TokUnknown, DecodeToken(raw).Kind, raw)
	}
}

func TestTokenGlobal(t *testing.T) {
	assert.True(t, DecodeToken("main_staff").Global())
	assert.True(t, DecodeToken("earnings_prev_15").Global())
	assert.True(t, DecodeToken("staff_performance").Global())
	assert.False(t, DecodeToken("amount_200").Global())
	assert.False(t, DecodeToken("final_confirm").Global())
	assert.False(t, DecodeToken("nonsense").Global())
}
