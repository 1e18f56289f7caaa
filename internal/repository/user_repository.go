package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/pkg/errors"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

type userRow struct {
	ID           int64     `db:"id"`
	LibraryID    string    `db:"library_id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		LibraryID:    r.LibraryID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

var userColumns = []interface{}{"id", "library_id", "email", "password_hash", "role", "created_at"}

// UserRepository implements domain.UserRepository
type UserRepository struct {
	store  *Store
	logger *slog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{
		store:  store,
		logger: store.logger,
	}
}

// Create creates a new user and fills in its ID
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	ds := r.store.dialect.Insert(tableUsers).Rows(goqu.Record{
		"library_id":    user.LibraryID,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"created_at":    user.CreatedAt,
	})

	id, err := r.store.insertID(ctx, r.store.db, ds)
	if err != nil {
		err = translateUnique(err, "insert user")
		if !errors.Is(err, domain.ErrDuplicateEmail) && !errors.Is(err, domain.ErrDuplicateLibraryID) {
			r.logger.Error("failed to create user",
				slog.String("email", user.Email),
				slog.String("error", err.Error()),
			)
		}
		return err
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getBy(ctx, goqu.C("id").Eq(id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, goqu.C("email").Eq(email))
}

// GetByLibraryID retrieves a user by library card number
func (r *UserRepository) GetByLibraryID(ctx context.Context, libraryID string) (*domain.User, error) {
	return r.getBy(ctx, goqu.C("library_id").Eq(libraryID))
}

// ExistsByEmail reports whether the email is taken
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, goqu.C("email").Eq(email))
}

// ExistsByLibraryID reports whether the library ID is taken
func (r *UserRepository) ExistsByLibraryID(ctx context.Context, libraryID string) (bool, error) {
	return r.exists(ctx, goqu.C("library_id").Eq(libraryID))
}

func (r *UserRepository) getBy(ctx context.Context, cond exp.Expression) (*domain.User, error) {
	var row userRow
	ds := r.store.dialect.From(tableUsers).Select(userColumns...).Where(cond)
	if err := getOne(ctx, r.store.db, &row, ds); err != nil {
		if errors.Is(err, domain.ErrNoRecord) {
			return nil, err
		}
		r.logger.Error("failed to get user", slog.String("error", err.Error()))
		return nil, errors.Wrap(err, "get user")
	}
	return row.toDomain(), nil
}

func (r *UserRepository) exists(ctx context.Context, cond exp.Expression) (bool, error) {
	var count int64
	ds := r.store.dialect.From(tableUsers).Select(goqu.COUNT(goqu.Star())).Where(cond)
	if err := getOne(ctx, r.store.db, &count, ds); err != nil {
		return false, errors.Wrap(err, "count users")
	}
	return count > 0, nil
}
