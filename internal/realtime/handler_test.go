package realtime

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liiiii222/debate/internal/store"
	"github.com/Liiiii222/debate/internal/validation"
)

func setupHandler(t *testing.T) (*Handler, *Manager) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.DiscardHandler)
	m := NewManager(st, logger, 5*time.Minute, 16)
	t.Cleanup(m.Shutdown)

	return NewHandler(m, validation.New(), logger), m
}

func TestPostEvent_UnknownConnection(t *testing.T) {
	h, _ := setupHandler(t)
	router := h.Routes()

	req := httptest.NewRequest(http.MethodPost, "/conn-missing/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Connection not found")
}

func TestPostJoin_ValidatesBody(t *testing.T) {
	h, m := setupHandler(t)
	router := h.Routes()

	client, err := m.Connect()
	require.NoError(t, err)

	body := strings.NewReader(`{"sessionId": "sess-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/"+client.ID+"/join", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The failure is also pushed down the stream as an error event.
	select {
	case event := <-client.EventChan:
		assert.Equal(t, EventError, event.Type)
	case <-time.After(time.Second):
		t.Fatal("expected an error event on the stream")
	}
}

func TestPostJoinAndMessage_EndToEnd(t *testing.T) {
	h, m := setupHandler(t)
	router := h.Routes()

	sender, err := m.Connect()
	require.NoError(t, err)
	receiver, err := m.Connect()
	require.NoError(t, err)

	post := func(clientID, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/"+clientID+path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	join := `{"sessionId": "sess-1", "username": "alice", "category": "Politics", "topic": "Tax Reform"}`
	require.Equal(t, http.StatusOK, post(sender.ID, "/join", join).Code)

	join2 := `{"sessionId": "sess-2", "username": "bob", "category": "Politics", "topic": "Tax Reform"}`
	require.Equal(t, http.StatusOK, post(receiver.ID, "/join", join2).Code)
	<-sender.EventChan // bob's user-joined

	require.Equal(t, http.StatusOK, post(sender.ID, "/message", `{"message": "hello"}`).Code)

	select {
	case event := <-receiver.EventChan:
		assert.Equal(t, EventDebateMessage, event.Type)
	case <-time.After(time.Second):
		t.Fatal("expected the relayed message")
	}
}

func TestStream_SendsConnectedEvent(t *testing.T) {
	h, m := setupHandler(t)

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/stream")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := make([]byte, 4096)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)

	frame := string(buf[:n])
	assert.Contains(t, frame, "event: connected")
	assert.Contains(t, frame, "clientId")
	assert.Equal(t, 1, m.ClientCount())
}
