package domain

import "context"

// BookStatus tracks whether a book can be lent
type BookStatus string

const (
	BookAvailable BookStatus = "AVAILABLE"
	BookBorrowed  BookStatus = "BORROWED"
)

// Valid reports whether s is a known status
func (s BookStatus) Valid() bool {
	return s == BookAvailable || s == BookBorrowed
}

// Book is a physical copy identified by its shelf code
type Book struct {
	ID     int64
	Code   string
	Title  string
	Author string
	Status BookStatus
}

// BookUpdate carries the fields of a partial book edit; nil means unchanged
type BookUpdate struct {
	Title  *string
	Author *string
	Status *BookStatus
}

// BookRepository defines data access for books outside the loan workflow
type BookRepository interface {
	Create(ctx context.Context, book *Book) error
	GetByID(ctx context.Context, id int64) (*Book, error)
	Update(ctx context.Context, book *Book) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*Book, error)
	ListByStatus(ctx context.Context, status BookStatus) ([]*Book, error)
}
