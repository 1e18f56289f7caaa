package repository

import (
	"context"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	"github.com/pkg/errors"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

type bookRow struct {
	ID     int64  `db:"id"`
	Code   string `db:"book_code"`
	Title  string `db:"title"`
	Author string `db:"author"`
	Status string `db:"status"`
}

func (r bookRow) toDomain() *domain.Book {
	return &domain.Book{
		ID:     r.ID,
		Code:   r.Code,
		Title:  r.Title,
		Author: r.Author,
		Status: domain.BookStatus(r.Status),
	}
}

var bookColumns = []interface{}{"id", "book_code", "title", "author", "status"}

// BookRepository implements domain.BookRepository
type BookRepository struct {
	store  *Store
	logger *slog.Logger
}

// NewBookRepository creates a new book repository
func NewBookRepository(store *Store) *BookRepository {
	return &BookRepository{
		store:  store,
		logger: store.logger,
	}
}

// Create inserts a book and fills in its ID
func (r *BookRepository) Create(ctx context.Context, book *domain.Book) error {
	ds := r.store.dialect.Insert(tableBooks).Rows(goqu.Record{
		"book_code": book.Code,
		"title":     book.Title,
		"author":    book.Author,
		"status":    string(book.Status),
	})

	id, err := r.store.insertID(ctx, r.store.db, ds)
	if err != nil {
		err = translateUnique(err, "insert book")
		if !errors.Is(err, domain.ErrDuplicateBookCode) {
			r.logger.Error("failed to create book",
				slog.String("book_code", book.Code),
				slog.String("error", err.Error()),
			)
		}
		return err
	}

	book.ID = id
	return nil
}

// GetByID retrieves a book by ID
func (r *BookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	var row bookRow
	ds := r.store.dialect.From(tableBooks).Select(bookColumns...).Where(goqu.C("id").Eq(id))
	if err := getOne(ctx, r.store.db, &row, ds); err != nil {
		if errors.Is(err, domain.ErrNoRecord) {
			return nil, err
		}
		return nil, errors.Wrap(err, "get book")
	}
	return row.toDomain(), nil
}

// Update writes title, author and status of an existing book
func (r *BookRepository) Update(ctx context.Context, book *domain.Book) error {
	query, args, err := r.store.dialect.Update(tableBooks).
		Set(goqu.Record{
			"title":  book.Title,
			"author": book.Author,
			"status": string(book.Status),
		}).
		Where(goqu.C("id").Eq(book.ID)).
		Prepared(true).ToSQL()
	if err != nil {
		return errors.Wrap(err, "build book update")
	}

	n, err := exec(ctx, r.store.db, query, args)
	if err != nil {
		r.logger.Error("failed to update book",
			slog.Int64("book_id", book.ID),
			slog.String("error", err.Error()),
		)
		return errors.Wrap(err, "update book")
	}
	if n == 0 {
		return domain.ErrNoRecord
	}
	return nil
}

// Delete removes a book. A book with loan history cannot be deleted.
func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.store.dialect.Delete(tableBooks).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return errors.Wrap(err, "build book delete")
	}

	n, err := exec(ctx, r.store.db, query, args)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrBookReferenced
		}
		return errors.Wrap(err, "delete book")
	}
	if n == 0 {
		return domain.ErrNoRecord
	}
	return nil
}

// List returns every book ordered by ID
func (r *BookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	return r.list(ctx, r.store.dialect.From(tableBooks))
}

// ListByStatus returns books in the given status ordered by ID
func (r *BookRepository) ListByStatus(ctx context.Context, status domain.BookStatus) ([]*domain.Book, error) {
	return r.list(ctx, r.store.dialect.From(tableBooks).Where(goqu.C("status").Eq(string(status))))
}

func (r *BookRepository) list(ctx context.Context, ds *goqu.SelectDataset) ([]*domain.Book, error) {
	var rows []bookRow
	if err := selectAll(ctx, r.store.db, &rows, ds.Select(bookColumns...).Order(goqu.C("id").Asc())); err != nil {
		return nil, errors.Wrap(err, "list books")
	}

	books := make([]*domain.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.toDomain())
	}
	return books, nil
}
