package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

func TestBookRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewBookRepository(store)

	book := &domain.Book{Code: "BK-1001", Title: "The Pragmatic Programmer", Author: "Andrew Hunt", Status: domain.BookAvailable}
	require.NoError(t, repo.Create(ctx, book))
	require.NotZero(t, book.ID)

	dup := &domain.Book{Code: "BK-1001", Title: "Other", Author: "Other", Status: domain.BookAvailable}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrDuplicateBookCode)

	book.Title = "The Pragmatic Programmer, 2nd ed."
	book.Status = domain.BookBorrowed
	require.NoError(t, repo.Update(ctx, book))

	got, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Pragmatic Programmer, 2nd ed.", got.Title)
	assert.Equal(t, domain.BookBorrowed, got.Status)

	assert.ErrorIs(t, repo.Update(ctx, &domain.Book{ID: 9999, Status: domain.BookAvailable}), domain.ErrNoRecord)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNoRecord)

	require.NoError(t, repo.Delete(ctx, book.ID))
	assert.ErrorIs(t, repo.Delete(ctx, book.ID), domain.ErrNoRecord)
}

func TestBookRepositoryListByStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewBookRepository(store)

	seedBook(t, store, "A")
	b := seedBook(t, store, "B")
	seedBook(t, store, "C")
	b.Status = domain.BookBorrowed
	require.NoError(t, repo.Update(ctx, b))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	available, err := repo.ListByStatus(ctx, domain.BookAvailable)
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, "A", available[0].Code)
	assert.Equal(t, "C", available[1].Code)
}

func TestBookRepositoryDeleteReferenced(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := seedUser(t, store, "LIB1")
	book := seedBook(t, store, "B1")

	err := NewLoanStore(store).WithinTx(ctx, func(tx domain.LoanTx) error {
		return tx.CreateBorrowRecord(ctx, &domain.BorrowRecord{
			UserID: user.ID, BookID: book.ID, BorrowDate: date(2026, 2, 1), DueDate: date(2026, 2, 15),
		})
	})
	require.NoError(t, err)

	assert.ErrorIs(t, NewBookRepository(store).Delete(ctx, book.ID), domain.ErrBookReferenced,
		"Should refuse to delete a book with loan history")
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewUserRepository(store)

	u := &domain.User{LibraryID: "LIB001", Email: "admin@library.com", PasswordHash: "hash", Role: domain.RoleAdmin}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	byEmail, err := repo.GetByEmail(ctx, "admin@library.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, domain.RoleAdmin, byEmail.Role)
	assert.False(t, byEmail.CreatedAt.IsZero())

	byLib, err := repo.GetByLibraryID(ctx, "LIB001")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byLib.ID)

	_, err = repo.GetByID(ctx, 4242)
	assert.ErrorIs(t, err, domain.ErrNoRecord)

	exists, err := repo.ExistsByEmail(ctx, "admin@library.com")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByLibraryID(ctx, "LIB999")
	require.NoError(t, err)
	assert.False(t, exists)

	err = repo.Create(ctx, &domain.User{LibraryID: "LIB002", Email: "admin@library.com", PasswordHash: "h", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	err = repo.Create(ctx, &domain.User{LibraryID: "LIB001", Email: "other@library.com", PasswordHash: "h", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrDuplicateLibraryID)
}
