package audit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogActionCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithRequestID(context.Background(), "req-42")
	al.LogBorrow(ctx, "7", "12", "success", "")

	out := buf.String()
	assert.Contains(t, out, `"action":"borrow"`)
	assert.Contains(t, out, `"resource_id":"12"`)
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"component":"audit"`)
	assert.Equal(t, "", RequestID(context.Background()))
}
