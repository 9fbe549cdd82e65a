package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"backoffice/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	bookingsSheet  = "Bookings"
	lastColumn     = "N"
	timestampStyle = "2006-01-02 15:04:05"
)

// ErrRowNotFound is returned when a booking has no row in the ledger.
var ErrRowNotFound = errors.New("booking row not found")

var bookingHeaders = []interface{}{
	"Booking ID", "Client Phone", "Service", "Duration (min)", "Date", "Slot",
	"Amount (AED)", "Payment", "Profit Share", "Status", "Staff", "Source", "Created At", "Updated At",
}

// SheetsService mirrors bookings into one row each of the ledger spreadsheet.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[string]int
	cacheMu       sync.RWMutex
	logger        *zerolog.Logger
}

// NewSheetsService authenticates with a service account key file.
func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID string, logger *zerolog.Logger) (*SheetsService, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return newSheetsService(srv, spreadsheetID, logger), nil
}

func newSheetsService(srv *sheets.Service, spreadsheetID string, logger *zerolog.Logger) *SheetsService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "sheets").Logger()
	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[string]int),
		logger:        &l,
	}
}

// TestConnection reads the header cell of the ledger.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// ServiceAccountEmail returns the client_email of a key file, the address the sheet must be shared with.
func ServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// EnsureHeader writes the column titles into row 1.
func (s *SheetsService) EnsureHeader(ctx context.Context) error {
	rangeData := fmt.Sprintf("%s!A1:%s1", bookingsSheet, lastColumn)
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
		Values: [][]interface{}{bookingHeaders},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// WarmUpCache rebuilds the booking id to row index cache from column A.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	cache := make(map[string]int, len(resp.Values))
	for i, row := range resp.Values {
		if id := cellID(row); id != "" && i > 0 {
			cache[id] = i + 1
		}
	}

	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()
	return nil
}

// RefreshCache warms the cache now and then every interval until ctx is done.
func (s *SheetsService) RefreshCache(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.warm(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("row cache refresh failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *SheetsService) warm(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return s.WarmUpCache(ctx)
}

// AppendBooking adds a row for a booking not yet in the ledger.
func (s *SheetsService) AppendBooking(ctx context.Context, booking *models.Booking) error {
	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, bookingsSheet+"!A:A", &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return err
	}

	if resp.Updates != nil {
		if row := rowFromRange(resp.Updates.UpdatedRange); row > 0 {
			s.setCachedRow(booking.BookingID, row)
		}
	}
	return nil
}

// UpsertBooking rewrites the booking's row or appends one when missing.
func (s *SheetsService) UpsertBooking(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return errors.New("booking is nil")
	}

	rowIdx, err := s.FindBookingRow(ctx, booking.BookingID)
	if errors.Is(err, ErrRowNotFound) {
		return s.AppendBooking(ctx, booking)
	}
	if err != nil {
		return err
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rowRange(rowIdx), &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// DeleteBookingRow clears the booking's row. A booking without a row is already gone.
func (s *SheetsService) DeleteBookingRow(ctx context.Context, bookingID string) error {
	rowIdx, err := s.FindBookingRow(ctx, bookingID)
	if errors.Is(err, ErrRowNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.service.Spreadsheets.Values.Clear(s.spreadsheetID, rowRange(rowIdx), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err == nil {
		s.deleteCachedRow(bookingID)
	}
	return err
}

// FindBookingRow returns the 1-based row of bookingID, scanning column A on a cache miss.
func (s *SheetsService) FindBookingRow(ctx context.Context, bookingID string) (int, error) {
	if bookingID == "" {
		return 0, errors.New("booking id is required")
	}
	if row, ok := s.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for i, row := range resp.Values {
		if cellID(row) == bookingID {
			s.setCachedRow(bookingID, i+1)
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func (s *SheetsService) deleteCachedRow(id string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.rowCache, id)
}

func bookingRowValues(b *models.Booking) []interface{} {
	return []interface{}{
		b.BookingID,
		b.ClientPhone,
		b.ServiceType,
		b.Duration,
		b.RequestedDate.Format(models.InputDateLayout),
		b.SlotStart.Format("15:04") + "-" + b.SlotEnd.Format("15:04"),
		b.Amount,
		b.PaymentMethod,
		b.ProfitShare,
		b.Status,
		b.AssignedStaff,
		b.Source,
		b.CreatedAt.Format(timestampStyle),
		b.UpdatedAt.Format(timestampStyle),
	}
}

func rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", bookingsSheet, row, lastColumn, row)
}

func cellID(row []interface{}) string {
	if len(row) == 0 {
		return ""
	}
	v, ok := row[0].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

var updatedRowRe = regexp.MustCompile(`![A-Z]+(\d+)`)

// rowFromRange extracts the first row number of an A1 range such as "Bookings!A10:N10".
func rowFromRange(a1 string) int {
	m := updatedRowRe.FindStringSubmatch(a1)
	if len(m) != 2 {
		return 0
	}
	row, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return row
}
