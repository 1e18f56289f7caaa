package handler

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

// BookResponse is the public shape of a book
type BookResponse struct {
	ID       int64  `json:"id"`
	BookCode string `json:"bookCode"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Status   string `json:"status"`
}

func toBookResponse(b *domain.Book) BookResponse {
	return BookResponse{ID: b.ID, BookCode: b.Code, Title: b.Title, Author: b.Author, Status: string(b.Status)}
}

func toBookResponses(books []*domain.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}

// BorrowRecordResponse is the public shape of a loan
type BorrowRecordResponse struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	UserEmail  string          `json:"userEmail,omitempty"`
	BookID     int64           `json:"bookId"`
	BookCode   string          `json:"bookCode,omitempty"`
	BookTitle  string          `json:"bookTitle,omitempty"`
	BorrowDate string          `json:"borrowDate"`
	DueDate    string          `json:"dueDate"`
	ReturnDate *string         `json:"returnDate"`
	LateFee    jsoniter.Number `json:"lateFee,omitempty"`
}

func toRecordResponse(rec *domain.BorrowRecord) BorrowRecordResponse {
	out := BorrowRecordResponse{
		ID:         rec.ID,
		UserID:     rec.UserID,
		UserEmail:  rec.UserEmail,
		BookID:     rec.BookID,
		BookCode:   rec.BookCode,
		BookTitle:  rec.BookTitle,
		BorrowDate: formatDate(rec.BorrowDate),
		DueDate:    formatDate(rec.DueDate),
	}
	if rec.ReturnDate.Valid {
		d := formatDate(rec.ReturnDate.Time)
		out.ReturnDate = &d
	}
	if rec.LateFee.Valid {
		out.LateFee = money(rec.LateFee.Decimal)
	}
	return out
}

func toRecordResponses(records []*domain.BorrowRecord) []BorrowRecordResponse {
	out := make([]BorrowRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec))
	}
	return out
}

// BorrowResponse answers a successful borrow
type BorrowResponse struct {
	BorrowDate string `json:"borrowDate"`
	DueDate    string `json:"dueDate"`
}

// ReturnResponse answers a successful return
type ReturnResponse struct {
	LateFee jsoniter.Number `json:"lateFee"`
}

// UserResponse is the public shape of an account
type UserResponse struct {
	ID        int64  `json:"id,omitempty"`
	LibraryID string `json:"libraryId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, LibraryID: u.LibraryID, Email: u.Email, Role: string(u.Role)}
}

// MonthlyReportResponse is the public shape of a circulation report
type MonthlyReportResponse struct {
	Month         string                       `json:"month"`
	StartDate     string                       `json:"startDate"`
	EndDate       string                       `json:"endDate"`
	BooksBorrowed []BorrowRecordResponse       `json:"booksBorrowed"`
	BooksReturned []BorrowRecordResponse       `json:"booksReturned"`
	OverdueBooks  []BorrowRecordResponse       `json:"overdueBooks"`
	UserActivity  []UserActivitySummaryPayload `json:"userActivity"`
}

// UserActivitySummaryPayload counts one user's loans in the report month
type UserActivitySummaryPayload struct {
	UserID        int64  `json:"userId"`
	Email         string `json:"email"`
	BorrowedCount int64  `json:"borrowedCount"`
	ReturnedCount int64  `json:"returnedCount"`
}

func toReportResponse(r *domain.MonthlyReport) MonthlyReportResponse {
	activity := make([]UserActivitySummaryPayload, 0, len(r.UserActivity))
	for _, a := range r.UserActivity {
		activity = append(activity, UserActivitySummaryPayload(a))
	}
	return MonthlyReportResponse{
		Month:         r.Month,
		StartDate:     formatDate(r.Start),
		EndDate:       formatDate(r.End),
		BooksBorrowed: toRecordResponses(r.BooksBorrowed),
		BooksReturned: toRecordResponses(r.BooksReturned),
		OverdueBooks:  toRecordResponses(r.OverdueBooks),
		UserActivity:  activity,
	}
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func money(d decimal.Decimal) jsoniter.Number {
	return jsoniter.Number(d.StringFixed(2))
}
