package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

// Table names
const (
	tableUsers         = "users"
	tableBooks         = "books"
	tableBorrowRecords = "borrow_records"
)

// Store owns the database handle and the SQL dialect shared by all repositories
type Store struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
	driver  string
	logger  *slog.Logger
}

// NewStore wraps an open database. driver is the database/sql driver name
// (postgres, pgx or sqlite3); it selects the SQL dialect.
func NewStore(db *sql.DB, driver string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:      sqlx.NewDb(db, driver),
		dialect: goqu.Dialect(dialectFor(driver)),
		driver:  driver,
		logger:  logger,
	}
}

func dialectFor(driver string) string {
	if driver == "sqlite3" {
		return "sqlite3"
	}
	return "postgres"
}

func (s *Store) isPostgres() bool {
	return dialectFor(s.driver) == "postgres"
}

// querier is satisfied by both *sqlx.DB and *sqlx.Tx
type querier interface {
	sqlx.ExtContext
}

// insertID runs an insert and returns the generated primary key
func (s *Store) insertID(ctx context.Context, q querier, ds *goqu.InsertDataset) (int64, error) {
	if s.isPostgres() {
		query, args, err := ds.Returning(goqu.C("id")).Prepared(true).ToSQL()
		if err != nil {
			return 0, errors.Wrap(err, "build insert")
		}
		var id int64
		if err := q.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return 0, errors.Wrap(err, "build insert")
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// exec runs an update or delete and returns the number of affected rows
func exec(ctx context.Context, q querier, query string, args []interface{}) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// getOne scans a single row, mapping sql.ErrNoRows to domain.ErrNoRecord
func getOne(ctx context.Context, q querier, dest interface{}, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return errors.Wrap(err, "build select")
	}
	if err := sqlx.GetContext(ctx, q, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNoRecord
		}
		return err
	}
	return nil
}

func selectAll(ctx context.Context, q querier, dest interface{}, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return errors.Wrap(err, "build select")
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
