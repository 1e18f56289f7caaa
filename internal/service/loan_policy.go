package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

// Clock supplies the current calendar date
type Clock interface {
	Today() time.Time
}

// SystemClock reads the wall clock and takes the calendar date in Location
// (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

// Today returns the current date as UTC midnight
func (c SystemClock) Today() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return domain.DateOf(time.Now().In(loc))
}

// LoanPolicy holds the tunable lending rules
type LoanPolicy struct {
	LoanPeriodDays int
	LateFeePerDay  decimal.Decimal
}

// DefaultLoanPolicy lends for 14 days and charges 10 per day late
func DefaultLoanPolicy() LoanPolicy {
	return LoanPolicy{
		LoanPeriodDays: 14,
		LateFeePerDay:  decimal.NewFromInt(10),
	}
}

// DueDate returns the date a loan starting on borrowed must be back
func (p LoanPolicy) DueDate(borrowed time.Time) time.Time {
	return domain.DateOf(borrowed).AddDate(0, 0, p.LoanPeriodDays)
}

// LateFee charges LateFeePerDay for every whole day returned is after due.
// Returning on or before the due date costs nothing.
func (p LoanPolicy) LateFee(due, returned time.Time) decimal.Decimal {
	daysLate := domain.DaysBetween(due, returned)
	if daysLate <= 0 {
		return decimal.Zero
	}
	return p.LateFeePerDay.Mul(decimal.NewFromInt(int64(daysLate)))
}
