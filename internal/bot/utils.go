package bot

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/models"
)

var (
	errInvalidAmount = errors.New("invalid amount")
	errInvalidDate   = errors.New("invalid date")
	errInvalidTime   = errors.New("invalid time")
)

func parseAmount(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", errInvalidAmount, text)
	}
	return v, nil
}

func parseDate(text string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(models.InputDateLayout, strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errInvalidDate, text)
	}
	return d, nil
}

// parseSlot combines a YYYY-MM-DD date with a clock time such as "4:30 PM",
// "4:30pm" or "16:30".
func parseSlot(date, clock string, loc *time.Location) (time.Time, error) {
	if _, err := parseDate(date, loc); err != nil {
		return time.Time{}, err
	}

	value := strings.TrimSpace(date) + " " + normalizeClock(clock)
	if t, err := time.ParseInLocation(models.SlotLayout, value, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", errInvalidTime, clock)
}

func normalizeClock(clock string) string {
	c := strings.ToUpper(strings.TrimSpace(clock))
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(c, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(c, suffix)) + " " + suffix
		}
	}
	return c
}

// displayDate turns YYYY-MM-DD into DD-MM-YYYY, leaving unparsable input as is.
func displayDate(date string) string {
	d, err := time.Parse(models.InputDateLayout, strings.TrimSpace(date))
	if err != nil {
		return date
	}
	return d.Format(models.DisplayDateLayout)
}

func isSkip(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "skip")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
