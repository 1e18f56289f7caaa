package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

// Catalogue messages
const (
	MsgBookCodeExists  = "Book with this code already exists"
	MsgBookReferenced  = "Book cannot be deleted because it has borrow history"
	MsgInvalidStatus   = "Status must be AVAILABLE or BORROWED"
	msgTitleLength     = "Title must be at most 120 characters"
	msgAuthorLength    = "Author must be at most 80 characters"
	msgBookCodeLength  = "Book code must be at most 30 characters"
	maxBookCodeLength  = 30
	maxBookTitleLength = 120
	maxBookAuthorLen   = 80
)

// AddBookRequest describes a new catalogue entry
type AddBookRequest struct {
	BookCode string `json:"bookCode"`
	Title    string `json:"title"`
	Author   string `json:"author"`
}

// BookService manages the catalogue
type BookService struct {
	books  domain.BookRepository
	logger *slog.Logger
}

// NewBookService creates a catalogue service
func NewBookService(books domain.BookRepository, logger *slog.Logger) *BookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookService{books: books, logger: logger}
}

// Add creates a book; new books always start AVAILABLE
func (s *BookService) Add(ctx context.Context, req AddBookRequest) (*domain.Book, error) {
	req.BookCode = strings.TrimSpace(req.BookCode)
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)

	fields := fieldErrors{}
	if fields.required("bookCode", req.BookCode, "Book code is required") {
		fields.length("bookCode", req.BookCode, 1, maxBookCodeLength, msgBookCodeLength)
	}
	if fields.required("title", req.Title, "Title is required") {
		fields.length("title", req.Title, 1, maxBookTitleLength, msgTitleLength)
	}
	if fields.required("author", req.Author, "Author is required") {
		fields.length("author", req.Author, 1, maxBookAuthorLen, msgAuthorLength)
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	book := &domain.Book{
		Code:   req.BookCode,
		Title:  req.Title,
		Author: req.Author,
		Status: domain.BookAvailable,
	}
	if err := s.books.Create(ctx, book); err != nil {
		if errors.Is(err, domain.ErrDuplicateBookCode) {
			return nil, domain.NewConflict(domain.ReasonDuplicate, MsgBookCodeExists)
		}
		return nil, domain.Internal("add book", err)
	}

	s.logger.Info("book added", slog.Int64("book_id", book.ID), slog.String("book_code", book.Code))
	return book, nil
}

// Update applies the non-nil fields of upd to book id
func (s *BookService) Update(ctx context.Context, id int64, upd domain.BookUpdate) (*domain.Book, error) {
	fields := fieldErrors{}
	if upd.Title != nil {
		*upd.Title = strings.TrimSpace(*upd.Title)
		if fields.required("title", *upd.Title, "Title must not be blank") {
			fields.length("title", *upd.Title, 1, maxBookTitleLength, msgTitleLength)
		}
	}
	if upd.Author != nil {
		*upd.Author = strings.TrimSpace(*upd.Author)
		if fields.required("author", *upd.Author, "Author must not be blank") {
			fields.length("author", *upd.Author, 1, maxBookAuthorLen, msgAuthorLength)
		}
	}
	if upd.Status != nil && !upd.Status.Valid() {
		fields["status"] = MsgInvalidStatus
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	book, err := s.books.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNoRecord) {
		return nil, &domain.NotFoundError{Message: MsgBookNotFound}
	}
	if err != nil {
		return nil, domain.Internal("update book", err)
	}

	if upd.Title != nil {
		book.Title = *upd.Title
	}
	if upd.Author != nil {
		book.Author = *upd.Author
	}
	if upd.Status != nil {
		book.Status = *upd.Status
	}

	switch err := s.books.Update(ctx, book); {
	case errors.Is(err, domain.ErrNoRecord):
		return nil, &domain.NotFoundError{Message: MsgBookNotFound}
	case err != nil:
		return nil, domain.Internal("update book", err)
	}

	s.logger.Info("book updated", slog.Int64("book_id", book.ID), slog.String("status", string(book.Status)))
	return book, nil
}

// Delete removes a book that has never been lent
func (s *BookService) Delete(ctx context.Context, id int64) error {
	switch err := s.books.Delete(ctx, id); {
	case errors.Is(err, domain.ErrNoRecord):
		return &domain.NotFoundError{Message: MsgBookNotFound}
	case errors.Is(err, domain.ErrBookReferenced):
		return domain.NewConflict(domain.ReasonBookReferenced, MsgBookReferenced)
	case err != nil:
		return domain.Internal("delete book", err)
	}

	s.logger.Info("book deleted", slog.Int64("book_id", id))
	return nil
}

// List returns every book
func (s *BookService) List(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, domain.Internal("list books", err)
	}
	return books, nil
}

// ListAvailable returns the books that can be borrowed right now
func (s *BookService) ListAvailable(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.books.ListByStatus(ctx, domain.BookAvailable)
	if err != nil {
		return nil, domain.Internal("list available books", err)
	}
	return books, nil
}
