package dev

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func httpHandler(rs *ReloadServer) http.Handler {
	return http.HandlerFunc(rs.HandleWebSocket)
}

func dialReload(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, rs *ReloadServer, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if rs.ClientCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ClientCount = %d, want %d", rs.ClientCount(), n)
}

func TestReloadBroadcast(t *testing.T) {
	rs := NewReloadServer()
	defer rs.Close()

	srv := httptest.NewServer(httpHandler(rs))
	defer srv.Close()

	a := dialReload(t, srv)
	b := dialReload(t, srv)
	waitForClients(t, rs, 2)

	rs.NotifyReload()

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		var msg ReloadMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if msg.Type != ReloadTypeFull {
			t.Errorf("Type = %q, want %q", msg.Type, ReloadTypeFull)
		}
	}
}

func TestReloadErrorMessage(t *testing.T) {
	rs := NewReloadServer()
	defer rs.Close()

	srv := httptest.NewServer(httpHandler(rs))
	defer srv.Close()

	conn := dialReload(t, srv)
	waitForClients(t, rs, 1)

	rs.NotifyError("parse failed")
	rs.ClearError()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg ReloadMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if msg.Type != ReloadTypeError || msg.Error != "parse failed" {
		t.Errorf("msg = %+v", msg)
	}

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if msg.Type != ReloadTypeClear {
		t.Errorf("Type = %q, want %q", msg.Type, ReloadTypeClear)
	}
}

func TestDisconnectPrunesClient(t *testing.T) {
	rs := NewReloadServer()
	defer rs.Close()

	srv := httptest.NewServer(httpHandler(rs))
	defer srv.Close()

	conn := dialReload(t, srv)
	waitForClients(t, rs, 1)

	conn.Close()
	waitForClients(t, rs, 0)
}
