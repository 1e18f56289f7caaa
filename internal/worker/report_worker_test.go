package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

type fakeReports struct {
	mu       sync.Mutex
	month    string
	calls    int
	failNext bool
}

func (f *fakeReports) PreviousMonth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.month
}

func (f *fakeReports) Monthly(_ context.Context, month string) (*domain.MonthlyReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failNext {
		f.failNext = false
		return nil, errors.New("database is locked")
	}
	return &domain.MonthlyReport{
		Month:        month,
		OverdueBooks: []*domain.BorrowRecord{{ID: 1, BookCode: "B1", UserEmail: "u@library.com"}},
	}, nil
}

func (f *fakeReports) ActiveLoans(context.Context) (int, error) { return 3, nil }

func (f *fakeReports) setMonth(m string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.month = m
}

func TestReportWorkerRunsOncePerMonth(t *testing.T) {
	src := &fakeReports{month: "2026-09"}
	w := NewReportWorker(src, nil, time.Hour)

	assert.True(t, w.RunOnce(context.Background()))
	assert.False(t, w.RunOnce(context.Background()), "Should not repeat a month already reported")
	assert.Equal(t, 1, src.calls)

	src.setMonth("2026-10")
	assert.True(t, w.RunOnce(context.Background()))
	assert.Equal(t, 2, src.calls)
}

func TestReportWorkerRetriesAfterFailure(t *testing.T) {
	src := &fakeReports{month: "2026-09", failNext: true}
	w := NewReportWorker(src, nil, time.Hour)

	assert.False(t, w.RunOnce(context.Background()))
	assert.True(t, w.RunOnce(context.Background()), "Should try again on the next tick")
}

func TestReportWorkerStopsWithContext(t *testing.T) {
	src := &fakeReports{month: "2026-09"}
	w := NewReportWorker(src, nil, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, 1, src.calls)
}
