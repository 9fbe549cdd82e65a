package bot

import (
	"context"
	"fmt"

	"backoffice/internal/export"
	"backoffice/internal/metrics"
)

func (e *Engine) exportBookings(ctx context.Context, chatID int64) error {
	bookings, err := e.store.ListRecentBookings(ctx, 0)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	data, err := export.Bookings(bookings)
	if err != nil {
		return fmt.Errorf("render bookings export: %w", err)
	}
	return e.sendExport(ctx, chatID, "bookings", data, fmt.Sprintf("Bookings export (%d rows)", len(bookings)))
}

func (e *Engine) exportExpenses(ctx context.Context, chatID int64) error {
	expenses, err := e.store.ListExpenses(ctx, 0)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	data, err := export.Expenses(expenses)
	if err != nil {
		return fmt.Errorf("render expenses export: %w", err)
	}
	return e.sendExport(ctx, chatID, "expenses", data, fmt.Sprintf("Expenses export (%d rows)", len(expenses)))
}

// sendExport delivers the workbook to the chat and keeps a copy in the export
// directory when one is configured. A failed copy does not fail the export.
func (e *Engine) sendExport(ctx context.Context, chatID int64, kind string, data []byte, caption string) error {
	name := export.FileName(kind, e.today())

	if e.settings.ExportDir != "" {
		if path, err := export.Save(e.settings.ExportDir, name, data); err != nil {
			e.log(ctx).Warn().Err(err).Str("file", name).Msg("Failed to save export copy")
		} else {
			e.log(ctx).Info().Str("path", path).Msg("Export saved")
		}
	}

	id, err := e.gateway.SendDocument(ctx, chatID, name, data, caption)
	if err != nil {
		return fmt.Errorf("send export: %w", err)
	}
	e.sessions.Track(chatID, id)
	metrics.IncFlow("export_"+kind, "completed")
	return nil
}
