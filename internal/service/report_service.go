package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/models"
)

// EarningsRange selects where the earnings report starts.
type EarningsRange int

const (
	RangeCurrentMonth EarningsRange = iota
	RangePrevious15th
)

func (r EarningsRange) Label() string {
	if r == RangePrevious15th {
		return "From 15th of Previous Month"
	}
	return "Start of Current Month"
}

// Start returns the first instant covered by the range.
func (r EarningsRange) Start(now time.Time) time.Time {
	y, m, _ := now.Date()
	if r == RangePrevious15th {
		return time.Date(y, m-1, 15, 0, 0, 0, 0, now.Location())
	}
	return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
}

type StaffEarnings struct {
	Name     string
	Bookings int
	Earnings float64
}

type EarningsReport struct {
	Range    EarningsRange
	Total    float64
	Ranjeet  float64
	Nora     float64
	Staff    []StaffEarnings
	Bookings int
}

type PeriodStats struct {
	Count  int
	Amount float64
}

type PerformanceReport struct {
	Staff   string
	Today   PeriodStats
	Week    PeriodStats
	Month   PeriodStats
	Year    PeriodStats
	AllTime PeriodStats
}

type ReportService struct {
	repo domain.BookingRepository
	now  func() time.Time
}

func NewReportService(repo domain.BookingRepository) *ReportService {
	return &ReportService{repo: repo, now: time.Now}
}

// Earnings splits Completed bookings since the range start between the owners.
// Shared bookings go half to each, the rest to Ranjeet; fixed salaries are
// deducted afterwards.
func (s *ReportService) Earnings(ctx context.Context, rng EarningsRange) (*EarningsReport, error) {
	bookings, err := s.repo.ListCompletedBookingsSince(ctx, rng.Start(s.now()))
	if err != nil {
		return nil, fmt.Errorf("load completed bookings: %w", err)
	}

	report := &EarningsReport{Range: rng, Bookings: len(bookings)}
	index := make(map[string]int)

	for _, b := range bookings {
		report.Total += b.Amount
		if b.Shared {
			report.Ranjeet += b.Amount / 2
			report.Nora += b.Amount / 2
		} else {
			report.Ranjeet += b.Amount
		}

		if b.AssignedStaff == "" {
			continue
		}
		i, ok := index[b.AssignedStaff]
		if !ok {
			i = len(report.Staff)
			index[b.AssignedStaff] = i
			report.Staff = append(report.Staff, StaffEarnings{Name: b.AssignedStaff})
		}
		report.Staff[i].Bookings++
		report.Staff[i].Earnings += b.Amount
	}

	report.Ranjeet -= models.RanjeetSalaryDeduction
	report.Nora -= models.NoraSalaryDeduction
	return report, nil
}

// Performance counts Completed and Confirmed bookings of a staff member for
// today, this week (from Sunday), this month, this year and all time.
func (s *ReportService) Performance(ctx context.Context, staffName string) (*PerformanceReport, error) {
	now := s.now()
	y, m, d := now.Date()
	loc := now.Location()

	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, loc)
	startOfWeek := startOfDay.AddDate(0, 0, -int(now.Weekday()))
	startOfMonth := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	startOfYear := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)

	statuses := []string{models.StatusCompleted, models.StatusConfirmed}
	report := &PerformanceReport{Staff: staffName}

	windows := []struct {
		from *time.Time
		dst  *PeriodStats
	}{
		{&startOfDay, &report.Today},
		{&startOfWeek, &report.Week},
		{&startOfMonth, &report.Month},
		{&startOfYear, &report.Year},
		{nil, &report.AllTime},
	}

	for _, w := range windows {
		var to *time.Time
		if w.from != nil {
			to = &now
		}
		count, sum, err := s.repo.StaffBookingStats(ctx, staffName, statuses, w.from, to)
		if err != nil {
			return nil, err
		}
		*w.dst = PeriodStats{Count: count, Amount: sum}
	}
	return report, nil
}

func FormatEarnings(r *EarningsReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Earnings Report (%s)*\n\n", r.Range.Label())
	fmt.Fprintf(&sb, "*Total Bookings Amount:* %s AED\n", models.FormatAmount(r.Total))
	fmt.Fprintf(&sb, "*Ranjeet's Earnings:* %s AED (after deducting Jenny & Praw salary: %s AED)\n",
		models.FormatAmount(r.Ranjeet), models.FormatAmount(models.RanjeetSalaryDeduction))
	fmt.Fprintf(&sb, "*Nora's Earnings:* %s AED (after deducting driver salary: %s AED)\n\n",
		models.FormatAmount(r.Nora), models.FormatAmount(models.NoraSalaryDeduction))
	sb.WriteString("*Staff Performance:*")
	for _, st := range r.Staff {
		fmt.Fprintf(&sb, "\n%s: %d bookings, %s AED", st.Name, st.Bookings, models.FormatAmount(st.Earnings))
	}
	return sb.String()
}

func FormatPerformance(r *PerformanceReport) string {
	line := func(label string, p PeriodStats) string {
		return fmt.Sprintf("*%s:* %d bookings, %s AED", label, p.Count, models.FormatAmount(p.Amount))
	}
	return strings.Join([]string{
		fmt.Sprintf("*Performance of %s:*", r.Staff),
		"",
		line("Today", r.Today),
		line("This Week", r.Week),
		line("This Month", r.Month),
		line("This Year", r.Year),
		line("All Time", r.AllTime),
	}, "\n")
}
