// Package export renders records into xlsx workbooks sent as chat documents.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"backoffice/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet = "Bookings"
	expensesSheet = "Expenses"
)

var (
	bookingHeaders = []string{"Booking ID", "Date", "Time", "Service", "Duration (mins)", "Amount (AED)",
		"Payment", "Profit", "Staff", "Status", "Client Phone", "Source"}
	expenseHeaders = []string{"ID", "Date", "Category", "Description", "Amount (AED)"}
)

// Bookings builds a workbook with one row per booking.
func Bookings(bookings []*models.Booking) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := newSheet(f, bookingsSheet, bookingHeaders); err != nil {
		return nil, err
	}

	for i, b := range bookings {
		row := []interface{}{
			b.BookingID,
			b.RequestedDate.Format(models.DisplayDateLayout),
			b.SlotStart.Format(models.ClockLayout),
			b.ServiceType,
			b.Duration,
			b.Amount,
			b.PaymentMethod,
			b.ProfitShare,
			b.AssignedStaff,
			b.Status,
			b.ClientPhone,
			b.Source,
		}
		if err := writeRow(f, bookingsSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "L", 16)
	return finish(f)
}

// Expenses builds a workbook with one row per expense and a total line.
func Expenses(expenses []*models.Expense) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := newSheet(f, expensesSheet, expenseHeaders); err != nil {
		return nil, err
	}

	var total float64
	for i, e := range expenses {
		row := []interface{}{e.ID, e.Date.Format(models.DisplayDateLayout), e.Category, e.Description, e.Amount}
		if err := writeRow(f, expensesSheet, i+2, row); err != nil {
			return nil, err
		}
		total += e.Amount
	}

	totalRow := len(expenses) + 2
	if err := writeRow(f, expensesSheet, totalRow, []interface{}{"", "", "", "Total", total}); err != nil {
		return nil, err
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		from, _ := excelize.CoordinatesToCellName(4, totalRow)
		to, _ := excelize.CoordinatesToCellName(5, totalRow)
		_ = f.SetCellStyle(expensesSheet, from, to, bold)
	}

	_ = f.SetColWidth(expensesSheet, "A", "B", 12)
	_ = f.SetColWidth(expensesSheet, "C", "D", 30)
	_ = f.SetColWidth(expensesSheet, "E", "E", 14)
	return finish(f)
}

// FileName returns a dated workbook name such as bookings_2025-01-31.xlsx.
func FileName(kind string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", kind, now.Format(models.InputDateLayout))
}

// Save writes a copy of the workbook under dir and returns its path.
func Save(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

func newSheet(f *excelize.File, name string, headers []string) error {
	index, err := f.NewSheet(name)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(name, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func finish(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
