package bot

import (
	"context"
	"fmt"

	"backoffice/internal/metrics"
	"backoffice/internal/models"
	"backoffice/internal/service"
)

func (e *Engine) askEarningsRange(ctx context.Context, chatID int64) error {
	return e.ask(ctx, chatID, "Select date range:", column(
		choice("Start of Current Month", "earnings_current_month"),
		choice("From 15th of Previous Month", "earnings_prev_15"),
	))
}

func (e *Engine) showEarnings(ctx context.Context, chatID int64, rng service.EarningsRange) error {
	report, err := e.reports.Earnings(ctx, rng)
	if err != nil {
		return fmt.Errorf("earnings report: %w", err)
	}
	metrics.IncFlow("earnings", "completed")
	return e.finishWith(ctx, chatID, service.FormatEarnings(report), models.ParseModeMarkdown, e.settings.ReportCleanupDelay)
}
