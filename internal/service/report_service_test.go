package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

func TestPreviousMonth(t *testing.T) {
	svc := NewReportService(nil, newFixedClock(2026, 1, 31), nil)
	assert.Equal(t, "2025-12", svc.PreviousMonth())

	svc = NewReportService(nil, newFixedClock(2026, 3, 31), nil)
	assert.Equal(t, "2026-02", svc.PreviousMonth())
}

func TestMonthlyReport(t *testing.T) {
	ctx := context.Background()
	f := newLoanFixture(t)
	alice := f.user(t, "LIB1")
	bob := f.user(t, "LIB2")
	b1 := f.book(t, "B1")
	b2 := f.book(t, "B2")

	// March 1: alice borrows B1, due March 15.
	_, err := f.svc.Borrow(ctx, alice, b1.ID)
	require.NoError(t, err)
	// March 10: bob borrows B2, due March 24, never returned.
	f.clock.advance(9)
	_, err = f.svc.Borrow(ctx, bob, b2.ID)
	require.NoError(t, err)
	// March 20: alice returns five days late.
	f.clock.advance(10)
	_, err = f.svc.ReturnActiveLoan(ctx, alice)
	require.NoError(t, err)

	// Report is generated in April for March.
	f.clock.advance(15)
	svc := NewReportService(f.records, f.clock, nil)

	report, err := svc.Monthly(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03", report.Month)
	assert.True(t, report.Start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, report.End.Equal(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.Len(t, report.BooksBorrowed, 2)
	require.Len(t, report.BooksReturned, 1)
	assert.Equal(t, "50.00", report.BooksReturned[0].LateFee.Decimal.StringFixed(2))
	require.Len(t, report.OverdueBooks, 1)
	assert.Equal(t, bob.ID, report.OverdueBooks[0].UserID)

	require.Len(t, report.UserActivity, 2)
	assert.Equal(t, domain.UserActivitySummary{UserID: alice.ID, Email: alice.Email, BorrowedCount: 1, ReturnedCount: 1}, report.UserActivity[0])
	assert.Equal(t, domain.UserActivitySummary{UserID: bob.ID, Email: bob.Email, BorrowedCount: 1, ReturnedCount: 0}, report.UserActivity[1])

	feb, err := svc.Monthly(ctx, "2026-02")
	require.NoError(t, err)
	assert.Empty(t, feb.BooksBorrowed)
	assert.Empty(t, feb.OverdueBooks)

	_, err = svc.Monthly(ctx, "March")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	active, err := svc.ActiveLoans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	history, err := svc.History(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	all, err := svc.AllRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
