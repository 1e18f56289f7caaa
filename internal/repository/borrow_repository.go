package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

type borrowRow struct {
	ID         int64               `db:"id"`
	UserID     int64               `db:"user_id"`
	BookID     int64               `db:"book_id"`
	BorrowDate time.Time           `db:"borrow_date"`
	DueDate    time.Time           `db:"due_date"`
	ReturnDate sql.NullTime        `db:"return_date"`
	LateFee    decimal.NullDecimal `db:"late_fee"`
}

func (r borrowRow) toDomain() *domain.BorrowRecord {
	return &domain.BorrowRecord{
		ID:         r.ID,
		UserID:     r.UserID,
		BookID:     r.BookID,
		BorrowDate: domain.DateOf(r.BorrowDate),
		DueDate:    domain.DateOf(r.DueDate),
		ReturnDate: nullDate(r.ReturnDate),
		LateFee:    r.LateFee,
	}
}

// borrowListRow adds the joined book and user columns used by listings
type borrowListRow struct {
	borrowRow
	BookCode  string `db:"book_code"`
	BookTitle string `db:"book_title"`
	UserEmail string `db:"user_email"`
}

func (r borrowListRow) toDomain() *domain.BorrowRecord {
	rec := r.borrowRow.toDomain()
	rec.BookCode = r.BookCode
	rec.BookTitle = r.BookTitle
	rec.UserEmail = r.UserEmail
	return rec
}

var borrowColumns = []interface{}{"id", "user_id", "book_id", "borrow_date", "due_date", "return_date", "late_fee"}

// BorrowRecordRepository implements domain.BorrowRecordRepository
type BorrowRecordRepository struct {
	store  *Store
	logger *slog.Logger
}

// NewBorrowRecordRepository creates a new borrow record repository
func NewBorrowRecordRepository(store *Store) *BorrowRecordRepository {
	return &BorrowRecordRepository{
		store:  store,
		logger: store.logger,
	}
}

// List returns every borrow record, oldest first
func (r *BorrowRecordRepository) List(ctx context.Context) ([]*domain.BorrowRecord, error) {
	return r.list(ctx, "list borrow records")
}

// ListByUser returns one user's loan history, oldest first
func (r *BorrowRecordRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.BorrowRecord, error) {
	return r.list(ctx, "list user borrow records", goqu.I("br.user_id").Eq(userID))
}

// CountActive returns the number of loans not yet returned
func (r *BorrowRecordRepository) CountActive(ctx context.Context) (int, error) {
	var count int64
	ds := r.store.dialect.From(tableBorrowRecords).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("return_date").IsNull())
	if err := getOne(ctx, r.store.db, &count, ds); err != nil {
		return 0, errors.Wrap(err, "count active loans")
	}
	return int(count), nil
}

// BorrowedBetween returns records whose borrow date falls in [start, end]
func (r *BorrowRecordRepository) BorrowedBetween(ctx context.Context, start, end time.Time) ([]*domain.BorrowRecord, error) {
	return r.list(ctx, "list borrowed in range",
		goqu.I("br.borrow_date").Between(goqu.Range(domain.DateOf(start), domain.DateOf(end))))
}

// ReturnedBetween returns records whose return date falls in [start, end]
func (r *BorrowRecordRepository) ReturnedBetween(ctx context.Context, start, end time.Time) ([]*domain.BorrowRecord, error) {
	return r.list(ctx, "list returned in range",
		goqu.I("br.return_date").Between(goqu.Range(domain.DateOf(start), domain.DateOf(end))))
}

// OverdueAt returns active loans whose due date is before date
func (r *BorrowRecordRepository) OverdueAt(ctx context.Context, date time.Time) ([]*domain.BorrowRecord, error) {
	return r.list(ctx, "list overdue",
		goqu.I("br.return_date").IsNull(),
		goqu.I("br.due_date").Lt(domain.DateOf(date)))
}

// UserActivity counts, per user with any loan, the loans started and
// returned within [start, end]
func (r *BorrowRecordRepository) UserActivity(ctx context.Context, start, end time.Time) ([]domain.UserActivitySummary, error) {
	period := goqu.Range(domain.DateOf(start), domain.DateOf(end))

	ds := r.store.dialect.From(goqu.T(tableBorrowRecords).As("br")).
		InnerJoin(goqu.T(tableUsers).As("u"), goqu.On(goqu.I("br.user_id").Eq(goqu.I("u.id")))).
		Select(
			goqu.I("u.id").As("user_id"),
			goqu.I("u.email").As("email"),
			goqu.SUM(goqu.Case().When(goqu.I("br.borrow_date").Between(period), goqu.L("1")).Else(goqu.L("0"))).As("borrowed_count"),
			goqu.SUM(goqu.Case().When(goqu.I("br.return_date").Between(period), goqu.L("1")).Else(goqu.L("0"))).As("returned_count"),
		).
		GroupBy(goqu.I("u.id"), goqu.I("u.email")).
		Order(goqu.I("u.id").Asc())

	var out []domain.UserActivitySummary
	if err := selectAll(ctx, r.store.db, &out, ds); err != nil {
		r.logger.Error("failed to aggregate user activity", slog.String("error", err.Error()))
		return nil, errors.Wrap(err, "user activity")
	}
	return out, nil
}

func (r *BorrowRecordRepository) list(ctx context.Context, op string, conds ...exp.Expression) ([]*domain.BorrowRecord, error) {
	ds := r.store.dialect.From(goqu.T(tableBorrowRecords).As("br")).
		InnerJoin(goqu.T(tableBooks).As("b"), goqu.On(goqu.I("br.book_id").Eq(goqu.I("b.id")))).
		InnerJoin(goqu.T(tableUsers).As("u"), goqu.On(goqu.I("br.user_id").Eq(goqu.I("u.id")))).
		Select(
			goqu.I("br.id").As("id"),
			goqu.I("br.user_id").As("user_id"),
			goqu.I("br.book_id").As("book_id"),
			goqu.I("br.borrow_date").As("borrow_date"),
			goqu.I("br.due_date").As("due_date"),
			goqu.I("br.return_date").As("return_date"),
			goqu.I("br.late_fee").As("late_fee"),
			goqu.I("b.book_code").As("book_code"),
			goqu.I("b.title").As("book_title"),
			goqu.I("u.email").As("user_email"),
		).
		Order(goqu.I("br.id").Asc())
	if len(conds) > 0 {
		ds = ds.Where(conds...)
	}

	var rows []borrowListRow
	if err := selectAll(ctx, r.store.db, &rows, ds); err != nil {
		r.logger.Error("failed to list borrow records",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return nil, errors.Wrap(err, op)
	}

	records := make([]*domain.BorrowRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records, nil
}
