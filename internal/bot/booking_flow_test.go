package bot

import (
	"context"
	"testing"
	"time"

	"backoffice/internal/events"
	"backoffice/internal/models"
	"backoffice/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walkToPhone drives the booking flow through the eight numbered steps.
func walkToPhone(f *engineFixture) {
	f.press("booking_new")
	assert.Equal(f.t, "Step 1/8: Please select or enter the booking amount.", f.last().Text)
	f.press("amount_300")
	assert.Contains(f.t, f.last().Tokens(), "duration_90 mins")
	f.press("duration_90 mins")
	f.press("payment_cash")
	assert.Equal(f.t, []string{"profit_shared", "profit_only_ranjeet"}, f.last().Tokens())
	f.press("profit_shared")
	f.press("staff_praw")
	f.press("service_thai")
	assert.Equal(f.t, "Step 7/8: Choose a date", f.last().Text)
	assert.Equal(f.t, []string{"date_2025-06-01", "date_2025-06-02", "date_custom"}, f.last().Tokens())
	f.press("date_2025-06-01")
	assert.Contains(f.t, f.last().Tokens(), "time_4:00_PM")
	f.press("time_4:00_PM")
	assert.Equal(f.t, "Please type the client's phone number (staff entering):", f.last().Text)
}

func TestBookingFlowNewClient(t *testing.T) {
	f := newEngineFixture(t)
	f.start()
	assert.Equal(t, "Please choose an option:", f.last().Text)

	walkToPhone(f)
	f.say("+971 50 000-0001")
	assert.Equal(t, "What is the client's name? Type the name or click Skip.", f.last().Text)
	f.press("name_skip")
	f.press("gender_female")
	assert.Equal(t, "Please enter the client's address:", f.last().Text)
	f.say("Villa 12, Jumeirah")
	assert.Equal(t, []string{"map_skip"}, f.last().Tokens())
	f.say("skip")

	summary := f.last()
	assert.Equal(t, []string{"final_confirm", "cancel_booking_flow"}, summary.Tokens())
	for _, line := range []string{
		"Amount: 300 AED",
		"Duration: 90 minutes",
		"Payment: Cash",
		"Profit: Shared",
		"Staff: Praw",
		"Service: Thai",
		"Date: 01-06-2025",
		"Time: 4:00 PM",
		"Phone: 971500000001",
		"Name: Not provided",
		"Gender: Female",
		"Address: Villa 12, Jumeirah",
		"Map Link: Not provided",
	} {
		assert.Contains(t, summary.Text, line)
	}

	client, err := f.db.GetClient(context.Background(), "971500000001")
	require.NoError(t, err)
	assert.Equal(t, "Female", client.Gender)
	assert.Empty(t, client.MapLink)

	f.press("final_confirm")

	reply := f.last()
	assert.Equal(t, models.ParseModeMarkdown, reply.ParseMode)
	assert.Contains(t, reply.Text, "✅ *Booking Confirmed!*")

	bookings, err := f.db.ListRecentBookings(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	b := bookings[0]
	assert.Contains(t, reply.Text, "*Booking ID:* "+b.BookingID)
	assert.Equal(t, models.StatusCompleted, b.Status)
	assert.Equal(t, "Praw", b.AssignedStaff)
	assert.Equal(t, "Thai", b.ServiceType)
	assert.True(t, b.Shared)
	assert.True(t, time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC).Equal(b.SlotStart))
	assert.True(t, time.Date(2025, 6, 1, 17, 30, 0, 0, time.UTC).Equal(b.SlotEnd))
	assert.Equal(t, receiverChat, b.GroupChatID)

	mirror := f.gw.messagesTo(receiverChat)
	require.Len(t, mirror, 1)
	assert.Equal(t, reply.Text, mirror[0].Text)
	assert.Equal(t, []string{events.EventBookingCreated}, f.eventTypes())
	assert.True(t, f.sessions.Pending(testChat))
}

func TestBookingFinalConfirmTwiceCreatesOneBooking(t *testing.T) {
	f := newEngineFixture(t)

	walkToPhone(f)
	f.say("971500000001")
	f.press("name_skip")
	f.press("gender_female")
	f.say("Villa 12")
	f.say("skip")

	f.press("final_confirm")
	sent := len(f.gw.messagesTo(testChat))
	f.press("final_confirm")

	bookings, err := f.db.ListRecentBookings(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Len(t, f.gw.messagesTo(receiverChat), 1)
	assert.Len(t, f.gw.messagesTo(testChat), sent)
	assert.Equal(t, []string{events.EventBookingCreated}, f.eventTypes())

	sess, ok := f.sessions.Get(testChat)
	require.True(t, ok)
	assert.Equal(t, session.FlowNone, sess.Flow)
	assert.True(t, f.sessions.Pending(testChat))
}

func TestBookingFlowExistingClientNewAddress(t *testing.T) {
	f := newEngineFixture(t)
	f.seedClient("971500000002", "Ann", "Old street")

	walkToPhone(f)
	f.say("971500000002")
	prompt := f.last()
	assert.Equal(t, "Client exists. Current address on file:\nOld street\nUse this address?", prompt.Text)
	assert.Equal(t, []string{"use_existing_address_yes", "use_existing_address_no"}, prompt.Tokens())

	f.press("use_existing_address_no")
	assert.Equal(t, "Enter new address:", f.last().Text)
	f.say("New street 5")

	summary := f.last().Text
	assert.Contains(t, summary, "Name: Ann")
	assert.Contains(t, summary, "Address: New street 5")

	client, err := f.db.GetClient(context.Background(), "971500000002")
	require.NoError(t, err)
	assert.Equal(t, "New street 5", client.Address)

	f.press("final_confirm")
	bookings, err := f.db.ListRecentBookings(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestBookingFlowExistingClientKeepsAddress(t *testing.T) {
	f := newEngineFixture(t)
	f.seedClient("971500000003", "", "Marina 1")

	walkToPhone(f)
	f.say("971500000003")
	f.press("use_existing_address_yes")
	assert.Contains(t, f.last().Text, "Address: Marina 1")
	assert.Contains(t, f.last().Text, "Name: Not provided")
}

func TestBookingFlowCustomInputs(t *testing.T) {
	f := newEngineFixture(t)

	f.press("booking_new")
	f.press("amount_custom")
	f.say("375.5")
	assert.Equal(t, "Step 2/8: Choose a duration.", f.last().Text)
	f.press("duration_60 mins")
	f.press("payment_online/bank")
	f.press("profit_only_ranjeet")
	f.press("staff_nobody")
	assert.Equal(t, "Step 6/8: Select a service.", f.last().Text)
	f.press("service_unknown")
	f.press("date_custom")
	f.say("2025-06-10")
	f.press("time_custom")
	f.say("18:45")
	f.say("971500000004")
	f.say("Bob")
	f.press("gender_skip")
	f.say("Downtown")
	f.say("https://maps.example/abc")

	summary := f.last().Text
	assert.Contains(t, summary, "Amount: 375.5 AED")
	assert.Contains(t, summary, "Payment: Online/Bank")
	assert.Contains(t, summary, "Profit: Only Ranjeet")
	assert.Contains(t, summary, "Staff: Not Assigned")
	assert.Contains(t, summary, "Date: 10-06-2025")
	assert.Contains(t, summary, "Time: 18:45")
	assert.Contains(t, summary, "Gender: Not provided")
	assert.Contains(t, summary, "Map Link: https://maps.example/abc")

	f.press("final_confirm")
	bookings, err := f.db.ListRecentBookings(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.False(t, bookings[0].Shared)
	assert.Empty(t, bookings[0].AssignedStaff)
	assert.True(t, time.Date(2025, 6, 10, 18, 45, 0, 0, time.UTC).Equal(bookings[0].SlotStart))
}

func TestBookingFlowInvalidAmountEndsFlow(t *testing.T) {
	f := newEngineFixture(t)

	f.press("booking_new")
	f.press("amount_custom")
	f.say("lots")

	assert.Equal(t, "Invalid amount. Please use /start to begin again.", f.last().Text)
	assert.True(t, f.sessions.Pending(testChat))
}

func TestBookingFlowInvalidDateEndsFlow(t *testing.T) {
	f := newEngineFixture(t)

	f.press("booking_new")
	f.press("amount_200")
	f.press("duration_60 mins")
	f.press("payment_cash")
	f.press("profit_shared")
	f.press("staff_jenny")
	f.press("service_thai")
	f.press("date_custom")
	f.say("10/06/2025")

	assert.Equal(t, "Invalid date. Please use the YYYY-MM-DD format and /start again.", f.last().Text)
}

func TestBookingFlowCancel(t *testing.T) {
	f := newEngineFixture(t)

	f.press("booking_new")
	f.press("cancel_booking_flow")

	assert.Equal(t, "Booking flow canceled.", f.last().Text)
	assert.True(t, f.sessions.Pending(testChat))
}

func TestStaleChoiceIsIgnored(t *testing.T) {
	f := newEngineFixture(t)

	f.press("booking_new")
	before := len(f.gw.messagesTo(testChat))

	f.press("payment_cash")
	f.press("final_confirm")
	f.press("nonsense_token")

	assert.Len(t, f.gw.messagesTo(testChat), before)
	sess, ok := f.sessions.Get(testChat)
	require.True(t, ok)
	assert.Equal(t, stepAmount, sess.Step)
}

func TestChoiceWithoutSession(t *testing.T) {
	f := newEngineFixture(t)

	f.press("final_confirm")
	assert.Equal(t, msgNoActiveProcess, f.last().Text)
}

func TestFreeTextWithoutSessionIsOnlyTracked(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.handle(Event{Kind: EventText, Body: "hello", MessageID: 555}))

	assert.Empty(t, f.gw.messagesTo(testChat))
	assert.Contains(t, f.sessions.Tracked(testChat), 555)
	_, ok := f.sessions.Get(testChat)
	assert.False(t, ok)
}

func TestClearChatPurgesTrackedMessages(t *testing.T) {
	f := newEngineFixture(t, func(s *Settings) { s.CleanupDelay = 20 * time.Millisecond })

	f.start()
	startID := f.userID
	f.press("main_bookings")
	f.press("booking_new")
	f.press("clear_chat")

	want := []int{startID}
	for _, m := range f.gw.messagesTo(testChat) {
		want = append(want, m.ID)
	}

	require.Eventually(t, func() bool {
		_, ok := f.sessions.Get(testChat)
		return !ok && len(f.gw.deletedIDs()) == len(want)
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, want, f.gw.deletedIDs())
	assert.Empty(t, f.sessions.Tracked(testChat))
}

func TestNewFlowCancelsPendingTeardown(t *testing.T) {
	f := newEngineFixture(t)

	f.press("booking_new")
	f.press("cancel_booking_flow")
	require.True(t, f.sessions.Pending(testChat))

	f.press("booking_new")
	assert.False(t, f.sessions.Pending(testChat))
	sess, ok := f.sessions.Get(testChat)
	require.True(t, ok)
	assert.Equal(t, session.FlowBooking, sess.Flow)
}

func TestSendFailureKeepsSession(t *testing.T) {
	f := newEngineFixture(t)

	f.press("booking_new")
	f.gw.failSend = true
	err := f.handle(Event{Kind: EventChoice, Token: "amount_200"})
	assert.Error(t, err)

	_, ok := f.sessions.Get(testChat)
	assert.True(t, ok)
	assert.False(t, f.sessions.Pending(testChat))
}
