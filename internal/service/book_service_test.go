package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
	"github.com/aryan0dhankhar/librarydesk/internal/repository"
)

func strPtr(s string) *string { return &s }

func TestBookServiceAdd(t *testing.T) {
	ctx := context.Background()
	f := newLoanFixture(t)
	svc := NewBookService(f.books, nil)

	book, err := svc.Add(ctx, AddBookRequest{BookCode: " BK-1 ", Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	assert.Equal(t, "BK-1", book.Code)
	assert.Equal(t, domain.BookAvailable, book.Status)

	_, err = svc.Add(ctx, AddBookRequest{BookCode: "BK-1", Title: "Dune Messiah", Author: "Frank Herbert"})
	assert.True(t, domain.IsConflict(err, domain.ReasonDuplicate))
	assert.EqualError(t, err, MsgBookCodeExists)

	_, err = svc.Add(ctx, AddBookRequest{BookCode: strings.Repeat("x", 31), Title: strings.Repeat("t", 121), Author: ""})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, msgBookCodeLength, ve.Fields["bookCode"])
	assert.Equal(t, msgTitleLength, ve.Fields["title"])
	assert.Equal(t, "Author is required", ve.Fields["author"])
}

func TestBookServiceUpdate(t *testing.T) {
	ctx := context.Background()
	f := newLoanFixture(t)
	svc := NewBookService(f.books, nil)
	book := f.book(t, "B1")

	status := domain.BookBorrowed
	updated, err := svc.Update(ctx, book.ID, domain.BookUpdate{Title: strPtr("New title"), Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "Author", updated.Author, "Should keep fields that were not sent")
	assert.Equal(t, domain.BookBorrowed, f.status(t, book.ID))

	_, err = svc.Update(ctx, 999, domain.BookUpdate{Title: strPtr("x")})
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	bad := domain.BookStatus("LOST")
	_, err = svc.Update(ctx, book.ID, domain.BookUpdate{Status: &bad, Author: strPtr("  ")})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, MsgInvalidStatus, ve.Fields["status"])
	assert.Contains(t, ve.Fields, "author")
}

func TestBookServiceDelete(t *testing.T) {
	ctx := context.Background()
	f := newLoanFixture(t)
	svc := NewBookService(f.books, nil)
	fresh := f.book(t, "B1")
	lent := f.book(t, "B2")
	alice := f.user(t, "LIB1")

	_, err := f.svc.Borrow(ctx, alice, lent.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, fresh.ID))

	var nf *domain.NotFoundError
	assert.ErrorAs(t, svc.Delete(ctx, fresh.ID), &nf)

	err = svc.Delete(ctx, lent.ID)
	assert.True(t, domain.IsConflict(err, domain.ReasonBookReferenced))
	assert.EqualError(t, err, MsgBookReferenced)
}

func TestBookServiceListAvailable(t *testing.T) {
	ctx := context.Background()
	f := newLoanFixture(t)
	svc := NewBookService(repository.NewBookRepository(f.store), nil)
	f.book(t, "B1")
	lent := f.book(t, "B2")
	alice := f.user(t, "LIB1")
	_, err := f.svc.Borrow(ctx, alice, lent.ID)
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	available, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "B1", available[0].Code)
}
