package bot

import (
	"context"

	"backoffice/internal/domain"
)

func (e *Engine) showMainMenu(ctx context.Context, chatID int64) error {
	return e.ask(ctx, chatID, "Please choose an option:", column(
		choice("Bookings", "main_bookings"),
		choice("Clients", "main_clients"),
		choice("Expenses", "main_expenses"),
		choice("Staff", "main_staff"),
	))
}

func (e *Engine) showBookingMenu(ctx context.Context, chatID int64) error {
	return e.ask(ctx, chatID, "Booking Options:", column(
		choice("Create New Booking", "booking_new"),
		choice("Update Booking", "booking_update"),
		choice("Cancel Booking", "booking_cancel"),
		choice("Earnings/Profits", "booking_earnings"),
		choice("Export Bookings", "booking_export"),
	))
}

func (e *Engine) showClientMenu(ctx context.Context, chatID int64) error {
	return e.ask(ctx, chatID, "Client Options:", column(
		choice("View All Clients", "client_viewall"),
		choice("Add New Client", "client_add"),
		choice("Delete Client", "client_delete"),
		choice("Update Client", "client_update"),
	))
}

func (e *Engine) showExpenseMenu(ctx context.Context, chatID int64) error {
	return e.ask(ctx, chatID, "Expense Options:", column(
		choice("View Expenses", "expense_view"),
		choice("Add Expense", "expense_add"),
		choice("Delete Expense", "expense_delete"),
		choice("Update Expense", "expense_update"),
		choice("Export Expenses", "expense_export"),
	))
}

func (e *Engine) showStaffMenu(ctx context.Context, chatID int64) error {
	return e.ask(ctx, chatID, "Staff Options:", column(
		choice("View Staff", "staff_view"),
		choice("Add Staff", "staff_add"),
		choice("Delete Staff", "staff_delete"),
		choice("Update Staff", "staff_update"),
		choice("Performance", "staff_performance"),
	))
}

func clearChatRow() [][]domain.Choice {
	return column(choice("Clear Chat", "clear_chat"))
}
