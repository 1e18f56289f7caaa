package domain

import "time"

// UserActivitySummary counts a user's loans started and closed within a period
type UserActivitySummary struct {
	UserID        int64  `db:"user_id"`
	Email         string `db:"email"`
	BorrowedCount int64  `db:"borrowed_count"`
	ReturnedCount int64  `db:"returned_count"`
}

// MonthlyReport aggregates circulation for one calendar month
type MonthlyReport struct {
	Month         string // YYYY-MM
	Start         time.Time
	End           time.Time
	BooksBorrowed []*BorrowRecord
	BooksReturned []*BorrowRecord
	OverdueBooks  []*BorrowRecord
	UserActivity  []UserActivitySummary
}
