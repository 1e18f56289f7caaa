package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", day(2026, 3, 15), day(2026, 3, 15), 0},
		{"three days late", day(2026, 3, 15), day(2026, 3, 18), 3},
		{"early", day(2026, 3, 18), day(2026, 3, 15), -3},
		{"leap day", day(2028, 2, 28), day(2028, 3, 1), 2},
		{"time of day ignored", time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC), time.Date(2026, 3, 16, 0, 1, 0, 0, time.UTC), 1},
		{"beyond duration range", day(1700, 1, 1), day(2100, 1, 1), 146097},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.a, tt.b))
		})
	}
}
