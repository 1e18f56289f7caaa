package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
	"github.com/aryan0dhankhar/librarydesk/internal/observability/metrics"
)

// ReportSource is the slice of the report service the worker needs
type ReportSource interface {
	PreviousMonth() string
	Monthly(ctx context.Context, month string) (*domain.MonthlyReport, error)
	ActiveLoans(ctx context.Context) (int, error)
}

// ReportWorker logs last month's circulation report once per month and keeps
// the active-loans gauge in line with the database.
type ReportWorker struct {
	reports  ReportSource
	logger   *slog.Logger
	interval time.Duration

	mu       sync.Mutex
	reported string
}

// NewReportWorker creates the worker
func NewReportWorker(reports ReportSource, logger *slog.Logger, interval time.Duration) *ReportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReportWorker{
		reports:  reports,
		logger:   logger.With(slog.String("component", "report_worker")),
		interval: interval,
	}
}

// Start runs a pass immediately and then on every tick until ctx is done
func (w *ReportWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("report worker started", slog.Duration("interval", w.interval))
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("report worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes the gauge and emits the previous month's report if it
// has not been emitted yet. It reports whether a report was produced.
func (w *ReportWorker) RunOnce(ctx context.Context) bool {
	if active, err := w.reports.ActiveLoans(ctx); err != nil {
		w.logger.Error("failed to count active loans", slog.String("error", err.Error()))
	} else {
		metrics.SetActiveLoans(active)
	}

	month := w.reports.PreviousMonth()
	w.mu.Lock()
	done := w.reported == month
	w.mu.Unlock()
	if done {
		return false
	}

	report, err := w.reports.Monthly(ctx, month)
	if err != nil {
		metrics.ObserveReport("error")
		w.logger.Error("monthly report failed", slog.String("month", month), slog.String("error", err.Error()))
		return false
	}

	w.logger.Info("monthly report",
		slog.String("month", report.Month),
		slog.Int("books_borrowed", len(report.BooksBorrowed)),
		slog.Int("books_returned", len(report.BooksReturned)),
		slog.Int("overdue_books", len(report.OverdueBooks)),
	)
	for _, rec := range report.OverdueBooks {
		w.logger.Info("overdue loan",
			slog.String("month", report.Month),
			slog.Int64("record_id", rec.ID),
			slog.String("book_code", rec.BookCode),
			slog.String("user_email", rec.UserEmail),
			slog.String("due_date", rec.DueDate.Format(domain.DateLayout)),
		)
	}
	for _, a := range report.UserActivity {
		w.logger.Debug("user activity",
			slog.String("month", report.Month),
			slog.String("email", a.Email),
			slog.Int64("borrowed", a.BorrowedCount),
			slog.Int64("returned", a.ReturnedCount),
		)
	}

	metrics.ObserveReport("success")
	w.mu.Lock()
	w.reported = month
	w.mu.Unlock()
	return true
}
