package domain

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// BorrowRecord is one loan of one book to one user.
// A record is active while ReturnDate is invalid.
type BorrowRecord struct {
	ID         int64
	UserID     int64
	BookID     int64
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate sql.NullTime
	LateFee    decimal.NullDecimal

	// Denormalized for listings; zero when loaded by the workflow.
	BookCode  string
	BookTitle string
	UserEmail string
}

// Active reports whether the loan has not been returned yet
func (r *BorrowRecord) Active() bool {
	return !r.ReturnDate.Valid
}

// LoanTx is the view of the store the borrow workflow sees inside one transaction
type LoanTx interface {
	// ActiveLoanByUser returns ErrNoRecord when the user has no unreturned loan
	ActiveLoanByUser(ctx context.Context, userID int64) (*BorrowRecord, error)
	// BookByID locks the row where the database supports it; ErrNoRecord when missing
	BookByID(ctx context.Context, id int64) (*Book, error)
	// SetBookStatus flips status only when the row is currently in from
	SetBookStatus(ctx context.Context, id int64, from, to BookStatus) (bool, error)
	CreateBorrowRecord(ctx context.Context, record *BorrowRecord) error
	// CompleteBorrowRecord stamps return date and fee only on an active record
	CompleteBorrowRecord(ctx context.Context, record *BorrowRecord) (bool, error)
}

// LoanStore runs fn in a single transaction, committing only when fn returns nil
type LoanStore interface {
	WithinTx(ctx context.Context, fn func(tx LoanTx) error) error
}

// BorrowRecordRepository defines read access to loan history
type BorrowRecordRepository interface {
	List(ctx context.Context) ([]*BorrowRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]*BorrowRecord, error)
	CountActive(ctx context.Context) (int, error)
	BorrowedBetween(ctx context.Context, start, end time.Time) ([]*BorrowRecord, error)
	ReturnedBetween(ctx context.Context, start, end time.Time) ([]*BorrowRecord, error)
	OverdueAt(ctx context.Context, date time.Time) ([]*BorrowRecord, error)
	UserActivity(ctx context.Context, start, end time.Time) ([]UserActivitySummary, error)
}

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date, expressed as UTC midnight
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the whole calendar days from a to b (negative when b is earlier)
func DaysBetween(a, b time.Time) int {
	return int((DateOf(b).Unix() - DateOf(a).Unix()) / secondsPerDay)
}
