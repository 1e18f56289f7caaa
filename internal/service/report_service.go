package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

// MonthLayout is the wire format for report months
const MonthLayout = "2006-01"

// ReportService answers read-only circulation queries
type ReportService struct {
	records domain.BorrowRecordRepository
	clock   Clock
	logger  *slog.Logger
}

// NewReportService creates a report service
func NewReportService(records domain.BorrowRecordRepository, clock Clock, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReportService{records: records, clock: clock, logger: logger}
}

// PreviousMonth returns the YYYY-MM before the current one
func (s *ReportService) PreviousMonth() string {
	today := s.clock.Today()
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -1, 0).Format(MonthLayout)
}

// Monthly builds the circulation report for month (YYYY-MM). An empty month
// means the previous calendar month.
func (s *ReportService) Monthly(ctx context.Context, month string) (*domain.MonthlyReport, error) {
	if month == "" {
		month = s.PreviousMonth()
	}
	first, err := time.ParseInLocation(MonthLayout, month, time.UTC)
	if err != nil {
		return nil, domain.NewValidationError(map[string]string{"month": "Month must use the YYYY-MM format"})
	}
	start := first
	end := first.AddDate(0, 1, -1)

	report := &domain.MonthlyReport{Month: month, Start: start, End: end}

	if report.BooksBorrowed, err = s.records.BorrowedBetween(ctx, start, end); err != nil {
		return nil, domain.Internal("monthly report", err)
	}
	if report.BooksReturned, err = s.records.ReturnedBetween(ctx, start, end); err != nil {
		return nil, domain.Internal("monthly report", err)
	}
	if report.OverdueBooks, err = s.records.OverdueAt(ctx, end); err != nil {
		return nil, domain.Internal("monthly report", err)
	}
	if report.UserActivity, err = s.records.UserActivity(ctx, start, end); err != nil {
		return nil, domain.Internal("monthly report", err)
	}

	s.logger.Debug("monthly report built",
		slog.String("month", month),
		slog.Int("borrowed", len(report.BooksBorrowed)),
		slog.Int("returned", len(report.BooksReturned)),
		slog.Int("overdue", len(report.OverdueBooks)),
	)
	return report, nil
}

// AllRecords lists every borrow record, newest last
func (s *ReportService) AllRecords(ctx context.Context) ([]*domain.BorrowRecord, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, domain.Internal("list borrow records", err)
	}
	return records, nil
}

// History lists the user's own borrow records
func (s *ReportService) History(ctx context.Context, userID int64) ([]*domain.BorrowRecord, error) {
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal("borrow history", err)
	}
	return records, nil
}

// ActiveLoans counts records that have not been returned
func (s *ReportService) ActiveLoans(ctx context.Context) (int, error) {
	n, err := s.records.CountActive(ctx)
	if err != nil {
		return 0, domain.Internal("count active loans", err)
	}
	return n, nil
}
