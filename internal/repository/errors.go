package repository

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// uniqueTargets maps a PostgreSQL constraint name and the SQLite column list
// reported for the same index onto the domain sentinel it represents.
var uniqueTargets = []struct {
	constraint string
	columns    string
	sentinel   error
}{
	{"borrow_records_active_user_idx", "borrow_records.user_id", domain.ErrActiveLoanExists},
	{"borrow_records_active_book_idx", "borrow_records.book_id", domain.ErrBookOnLoan},
	{"books_book_code_key", "books.book_code", domain.ErrDuplicateBookCode},
	{"users_email_key", "users.email", domain.ErrDuplicateEmail},
	{"users_library_id_key", "users.library_id", domain.ErrDuplicateLibraryID},
}

// translateUnique returns the domain sentinel for a unique violation,
// or err wrapped with op when it is anything else.
func translateUnique(err error, op string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		if sentinel := byConstraint(pqErr.Constraint); sentinel != nil {
			return sentinel
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if sentinel := byConstraint(pgErr.ConstraintName); sentinel != nil {
			return sentinel
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		msg := liteErr.Error()
		for _, target := range uniqueTargets {
			if strings.Contains(msg, target.columns) {
				return target.sentinel
			}
		}
	}

	return errors.Wrap(err, op)
}

func byConstraint(name string) error {
	for _, target := range uniqueTargets {
		if target.constraint == name {
			return target.sentinel
		}
	}
	return nil
}

// isForeignKeyViolation reports whether err is a referential integrity failure
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgForeignKeyViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
