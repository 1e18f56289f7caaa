package repository

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

// LoanStore implements domain.LoanStore on top of Store
type LoanStore struct {
	store *Store
}

// NewLoanStore creates the transactional store used by the borrow workflow
func NewLoanStore(store *Store) *LoanStore {
	return &LoanStore{store: store}
}

// WithinTx runs fn in a transaction. Any error from fn, a panic, or context
// cancellation rolls back every write made through the LoanTx.
func (l *LoanStore) WithinTx(ctx context.Context, fn func(tx domain.LoanTx) error) (err error) {
	tx, err := l.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin loan transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&loanTx{store: l.store, tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return translateUnique(err, "commit loan transaction")
	}
	return nil
}

type loanTx struct {
	store *Store
	tx    *sqlx.Tx
}

func (t *loanTx) ActiveLoanByUser(ctx context.Context, userID int64) (*domain.BorrowRecord, error) {
	var row borrowRow
	ds := t.store.dialect.From(tableBorrowRecords).
		Select(borrowColumns...).
		Where(goqu.Ex{"user_id": userID, "return_date": nil})
	if err := getOne(ctx, t.tx, &row, ds); err != nil {
		if errors.Is(err, domain.ErrNoRecord) {
			return nil, err
		}
		return nil, errors.Wrap(err, "find active loan")
	}
	return row.toDomain(), nil
}

func (t *loanTx) BookByID(ctx context.Context, id int64) (*domain.Book, error) {
	var row bookRow
	ds := t.store.dialect.From(tableBooks).
		Select(bookColumns...).
		Where(goqu.C("id").Eq(id)).
		ForUpdate(exp.Wait)
	if err := getOne(ctx, t.tx, &row, ds); err != nil {
		if errors.Is(err, domain.ErrNoRecord) {
			return nil, err
		}
		return nil, errors.Wrap(err, "find book")
	}
	return row.toDomain(), nil
}

func (t *loanTx) SetBookStatus(ctx context.Context, id int64, from, to domain.BookStatus) (bool, error) {
	query, args, err := t.store.dialect.Update(tableBooks).
		Set(goqu.Record{"status": string(to)}).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(string(from))).
		Prepared(true).ToSQL()
	if err != nil {
		return false, errors.Wrap(err, "build status update")
	}

	n, err := exec(ctx, t.tx, query, args)
	if err != nil {
		return false, errors.Wrap(err, "update book status")
	}
	return n == 1, nil
}

func (t *loanTx) CreateBorrowRecord(ctx context.Context, record *domain.BorrowRecord) error {
	ds := t.store.dialect.Insert(tableBorrowRecords).Rows(goqu.Record{
		"user_id":     record.UserID,
		"book_id":     record.BookID,
		"borrow_date": domain.DateOf(record.BorrowDate),
		"due_date":    domain.DateOf(record.DueDate),
		"return_date": nil,
		"late_fee":    nil,
	})

	id, err := t.store.insertID(ctx, t.tx, ds)
	if err != nil {
		return translateUnique(err, "insert borrow record")
	}
	record.ID = id
	return nil
}

func (t *loanTx) CompleteBorrowRecord(ctx context.Context, record *domain.BorrowRecord) (bool, error) {
	var returnDate interface{}
	if record.ReturnDate.Valid {
		returnDate = domain.DateOf(record.ReturnDate.Time)
	}
	var fee interface{}
	if record.LateFee.Valid {
		fee = record.LateFee.Decimal.StringFixed(2)
	}

	query, args, err := t.store.dialect.Update(tableBorrowRecords).
		Set(goqu.Record{"return_date": returnDate, "late_fee": fee}).
		Where(goqu.C("id").Eq(record.ID), goqu.C("return_date").IsNull()).
		Prepared(true).ToSQL()
	if err != nil {
		return false, errors.Wrap(err, "build return update")
	}

	n, err := exec(ctx, t.tx, query, args)
	if err != nil {
		return false, errors.Wrap(err, "complete borrow record")
	}
	return n == 1, nil
}

var _ domain.LoanStore = (*LoanStore)(nil)

// nullDate normalizes a scanned nullable DATE to UTC midnight
func nullDate(t sql.NullTime) sql.NullTime {
	if !t.Valid {
		return t
	}
	return sql.NullTime{Time: domain.DateOf(t.Time), Valid: true}
}
