package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityFeedDisabled(t *testing.T) {
	f := newAPIFixture(t, false)
	adminToken := f.login(t, "admin@library.com", "admin123")

	code, env := f.do(t, http.MethodGet, "/ws/admin/activity", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Activity feed is disabled", env.Message)
}

func TestActivityFeedStreamsCirculation(t *testing.T) {
	f := newAPIFixture(t, true)
	adminToken := f.login(t, "admin@library.com", "admin123")
	userToken := f.login(t, "user@library.com", "user123")
	book := f.addBook(t, adminToken, "BK-WS")

	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/admin/activity?token=" + adminToken
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return f.hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	code, _ := f.do(t, http.MethodPost, "/api/user/borrow/book/"+itoa(book.ID), userToken, nil)
	require.Equal(t, http.StatusOK, code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev ActivityEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "borrowed", ev.Type)
	assert.Equal(t, book.ID, ev.BookID)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/admin/activity?token="+userToken, nil)
	assert.Error(t, err, "Members should not subscribe to the admin feed")
}

func TestPublishWithoutSubscribers(t *testing.T) {
	hub := NewActivityHub(true, nil, nil)
	hub.Publish(ActivityEvent{Type: "borrowed"})
	assert.Zero(t, hub.Subscribers())
}
