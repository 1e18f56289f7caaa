package repository

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

// The two partial unique indexes are what make the loan invariants hold under
// concurrency: a user and a book can each appear in at most one row whose
// return_date is NULL.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		library_id    VARCHAR(30)  NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash TEXT         NOT NULL,
		role          VARCHAR(16)  NOT NULL CHECK (role IN ('ADMIN', 'USER')),
		created_at    TIMESTAMPTZ  NOT NULL,
		CONSTRAINT users_library_id_key UNIQUE (library_id),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		id        BIGSERIAL PRIMARY KEY,
		book_code VARCHAR(30)  NOT NULL,
		title     VARCHAR(120) NOT NULL,
		author    VARCHAR(80)  NOT NULL,
		status    VARCHAR(16)  NOT NULL CHECK (status IN ('AVAILABLE', 'BORROWED')),
		CONSTRAINT books_book_code_key UNIQUE (book_code)
	)`,
	`CREATE TABLE IF NOT EXISTS borrow_records (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL REFERENCES users (id),
		book_id     BIGINT NOT NULL REFERENCES books (id),
		borrow_date DATE   NOT NULL,
		due_date    DATE   NOT NULL,
		return_date DATE,
		late_fee    NUMERIC(12, 2)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS borrow_records_active_user_idx
		ON borrow_records (user_id) WHERE return_date IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS borrow_records_active_book_idx
		ON borrow_records (book_id) WHERE return_date IS NULL`,
	`CREATE INDEX IF NOT EXISTS borrow_records_borrow_date_idx ON borrow_records (borrow_date)`,
	`CREATE INDEX IF NOT EXISTS borrow_records_return_date_idx ON borrow_records (return_date)`,
}

// SQLite keeps the late fee as TEXT so decimal values round-trip exactly.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		library_id    TEXT      NOT NULL UNIQUE,
		email         TEXT      NOT NULL UNIQUE,
		password_hash TEXT      NOT NULL,
		role          TEXT      NOT NULL CHECK (role IN ('ADMIN', 'USER')),
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		book_code TEXT NOT NULL UNIQUE,
		title     TEXT NOT NULL,
		author    TEXT NOT NULL,
		status    TEXT NOT NULL CHECK (status IN ('AVAILABLE', 'BORROWED'))
	)`,
	`CREATE TABLE IF NOT EXISTS borrow_records (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER NOT NULL REFERENCES users (id),
		book_id     INTEGER NOT NULL REFERENCES books (id),
		borrow_date DATE    NOT NULL,
		due_date    DATE    NOT NULL,
		return_date DATE,
		late_fee    TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS borrow_records_active_user_idx
		ON borrow_records (user_id) WHERE return_date IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS borrow_records_active_book_idx
		ON borrow_records (book_id) WHERE return_date IS NULL`,
	`CREATE INDEX IF NOT EXISTS borrow_records_borrow_date_idx ON borrow_records (borrow_date)`,
	`CREATE INDEX IF NOT EXISTS borrow_records_return_date_idx ON borrow_records (return_date)`,
}

// Migrate creates the schema if it does not exist. Statements run in one
// transaction so a failed migration leaves nothing behind.
func (s *Store) Migrate(ctx context.Context) error {
	statements := sqliteSchema
	if s.isPostgres() {
		statements = postgresSchema
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migration")
	}
	defer tx.Rollback()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migration statement %d", i+1)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit migration")
	}

	s.logger.Info("database schema ready",
		slog.String("driver", s.driver),
		slog.Int("statements", len(statements)),
	)
	return nil
}
