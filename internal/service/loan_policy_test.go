package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLateFee(t *testing.T) {
	policy := DefaultLoanPolicy()
	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		returned time.Time
		want     string
	}{
		{"early", due.AddDate(0, 0, -5), "0"},
		{"on due date", due, "0"},
		{"one day late", due.AddDate(0, 0, 1), "10"},
		{"three days late", due.AddDate(0, 0, 3), "30"},
		{"late in the evening", due.AddDate(0, 0, 2).Add(23 * time.Hour), "20"},
		{"across a month end", time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), "180"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.LateFee(due, tt.returned)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestLateFeeFractionalRate(t *testing.T) {
	policy := LoanPolicy{LoanPeriodDays: 7, LateFeePerDay: decimal.RequireFromString("2.50")}
	due := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "7.50", policy.LateFee(due, due.AddDate(0, 0, 3)).StringFixed(2))
}

func TestDueDate(t *testing.T) {
	policy := DefaultLoanPolicy()
	borrowed := time.Date(2026, 12, 25, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "2027-01-08", policy.DueDate(borrowed).Format("2006-01-02"))

	short := LoanPolicy{LoanPeriodDays: 1, LateFeePerDay: decimal.Zero}
	assert.Equal(t, "2026-12-26", short.DueDate(borrowed).Format("2006-01-02"))
}

func TestSystemClockReturnsMidnight(t *testing.T) {
	today := SystemClock{Location: time.UTC}.Today()
	assert.Equal(t, time.UTC, today.Location())
	assert.Zero(t, today.Hour())
	assert.Zero(t, today.Minute())
}
