package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
	"github.com/aryan0dhankhar/librarydesk/internal/observability/metrics"
)

// User-facing messages for loan rule violations
const (
	MsgActiveLoanExists = "You already have a borrowed book. Please return it first."
	MsgBookNotFound     = "Book not found"
	MsgBookNotAvailable = "This book is currently not available for borrowing"
	MsgNoActiveLoan     = "You do not have any borrowed book to return"
)

// BorrowService runs the borrow and return workflow. It keeps no state
// between calls; every invariant is checked and applied inside one store
// transaction.
type BorrowService struct {
	store  domain.LoanStore
	clock  Clock
	policy LoanPolicy
	logger *slog.Logger
	tracer trace.Tracer
}

// NewBorrowService creates the loan workflow
func NewBorrowService(store domain.LoanStore, clock Clock, policy LoanPolicy, logger *slog.Logger) *BorrowService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &BorrowService{
		store:  store,
		clock:  clock,
		policy: policy,
		logger: logger,
		tracer: otel.Tracer("librarydesk/service/borrow"),
	}
}

// Borrow lends bookID to user. It fails with a ConflictError when the user
// already holds a loan or the book is out, and a NotFoundError when the book
// does not exist.
func (s *BorrowService) Borrow(ctx context.Context, user *domain.User, bookID int64) (*domain.BorrowRecord, error) {
	ctx, span := s.tracer.Start(ctx, "BorrowService.Borrow", trace.WithAttributes(
		attribute.Int64("user.id", user.ID),
		attribute.Int64("book.id", bookID),
	))
	defer span.End()

	today := s.clock.Today()
	var record *domain.BorrowRecord

	err := s.store.WithinTx(ctx, func(tx domain.LoanTx) error {
		if _, err := tx.ActiveLoanByUser(ctx, user.ID); err == nil {
			return activeLoanExists()
		} else if !errors.Is(err, domain.ErrNoRecord) {
			return err
		}

		book, err := tx.BookByID(ctx, bookID)
		if errors.Is(err, domain.ErrNoRecord) {
			return &domain.NotFoundError{Message: MsgBookNotFound}
		}
		if err != nil {
			return err
		}
		if book.Status != domain.BookAvailable {
			return bookNotAvailable()
		}

		flipped, err := tx.SetBookStatus(ctx, bookID, domain.BookAvailable, domain.BookBorrowed)
		if err != nil {
			return err
		}
		if !flipped {
			return bookNotAvailable()
		}

		rec := &domain.BorrowRecord{
			UserID:     user.ID,
			BookID:     bookID,
			BorrowDate: today,
			DueDate:    s.policy.DueDate(today),
		}
		if err := tx.CreateBorrowRecord(ctx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		err = classifyLoanError("borrow", err)
		s.fail(span, "borrow", err, slog.Int64("user_id", user.ID), slog.Int64("book_id", bookID))
		return nil, err
	}

	metrics.ObserveBorrow("success")
	metrics.IncrementActiveLoans()
	span.SetAttributes(attribute.Int64("borrow_record.id", record.ID))
	s.logger.Info("book borrowed",
		slog.Int64("user_id", user.ID),
		slog.Int64("book_id", bookID),
		slog.Int64("record_id", record.ID),
		slog.String("due_date", record.DueDate.Format(domain.DateLayout)),
	)
	return record, nil
}

// ReturnActiveLoan closes the user's open loan, stamping today's date and the
// late fee (always set, zero when on time), and makes the book available.
func (s *BorrowService) ReturnActiveLoan(ctx context.Context, user *domain.User) (*domain.BorrowRecord, error) {
	ctx, span := s.tracer.Start(ctx, "BorrowService.ReturnActiveLoan", trace.WithAttributes(
		attribute.Int64("user.id", user.ID),
	))
	defer span.End()

	today := s.clock.Today()
	var record *domain.BorrowRecord

	err := s.store.WithinTx(ctx, func(tx domain.LoanTx) error {
		rec, err := tx.ActiveLoanByUser(ctx, user.ID)
		if errors.Is(err, domain.ErrNoRecord) {
			return noActiveLoan()
		}
		if err != nil {
			return err
		}

		rec.ReturnDate = sql.NullTime{Time: today, Valid: true}
		rec.LateFee = decimal.NewNullDecimal(s.policy.LateFee(rec.DueDate, today))

		completed, err := tx.CompleteBorrowRecord(ctx, rec)
		if err != nil {
			return err
		}
		if !completed {
			return noActiveLoan()
		}

		restored, err := tx.SetBookStatus(ctx, rec.BookID, domain.BookBorrowed, domain.BookAvailable)
		if err != nil {
			return err
		}
		if !restored {
			s.logger.Warn("book was not marked borrowed at return",
				slog.Int64("book_id", rec.BookID),
				slog.Int64("record_id", rec.ID),
			)
		}

		record = rec
		return nil
	})
	if err != nil {
		err = classifyLoanError("return", err)
		s.fail(span, "return", err, slog.Int64("user_id", user.ID))
		return nil, err
	}

	metrics.ObserveReturn("success", record.LateFee.Decimal.InexactFloat64())
	metrics.DecrementActiveLoans()
	span.SetAttributes(attribute.String("late_fee", record.LateFee.Decimal.String()))
	s.logger.Info("book returned",
		slog.Int64("user_id", user.ID),
		slog.Int64("book_id", record.BookID),
		slog.Int64("record_id", record.ID),
		slog.String("late_fee", record.LateFee.Decimal.StringFixed(2)),
	)
	return record, nil
}

func (s *BorrowService) fail(span trace.Span, op string, err error, attrs ...any) {
	var conflict *domain.ConflictError
	var notFound *domain.NotFoundError
	result := "error"
	switch {
	case errors.As(err, &conflict):
		result = "conflict"
	case errors.As(err, &notFound):
		result = "not_found"
	}

	if op == "borrow" {
		metrics.ObserveBorrow(result)
	} else {
		metrics.ObserveReturn(result, 0)
	}

	span.SetAttributes(attribute.String("result", result))
	if result == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(op+" failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	s.logger.Info(op+" rejected", append(attrs, slog.String("reason", err.Error()))...)
}

func activeLoanExists() error {
	return domain.NewConflict(domain.ReasonActiveLoanExists, MsgActiveLoanExists)
}

func bookNotAvailable() error {
	return domain.NewConflict(domain.ReasonBookNotAvailable, MsgBookNotAvailable)
}

func noActiveLoan() error {
	return domain.NewConflict(domain.ReasonNoActiveLoan, MsgNoActiveLoan)
}

// classifyLoanError keeps typed errors, maps constraint violations raised by
// a concurrent transaction onto the rule they protect, and wraps anything
// else as internal.
func classifyLoanError(op string, err error) error {
	switch {
	case domain.HasKind(err):
		return err
	case errors.Is(err, domain.ErrActiveLoanExists):
		return activeLoanExists()
	case errors.Is(err, domain.ErrBookOnLoan):
		return bookNotAvailable()
	default:
		return domain.Internal(op, err)
	}
}
