package utils

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// MonthKey returns the calendar month bucket for t, e.g. "2026-08".
func MonthKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// CurrentMonthKey returns the month bucket for the current UTC time.
func CurrentMonthKey() string {
	return MonthKey(time.Now())
}

// MonthBounds returns the [start, end) UTC range of t's calendar month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

const orderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderID generates a human-readable order id: YYMMDD date prefix plus a
// random letter suffix. Callers retry with a longer suffix on collision.
func NewOrderID(t time.Time, suffixLen int) string {
	b := make([]byte, suffixLen)
	for i := range b {
		b[i] = orderIDAlphabet[rand.Intn(len(orderIDAlphabet))]
	}
	return t.UTC().Format("060102") + string(b)
}

// Round2 rounds a money amount to the smallest currency unit.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
