// SPDX-License-Identifier: MIT
package transport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestServer(t *testing.T, wst *WebSocketTransport) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(wst.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketBroadcast(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	defer wst.Close()

	conn := dialTestServer(t, wst)
	waitFor(t, func() bool { return wst.ClientCount() == 1 })

	sent := LevelReport{
		Sequence: 7,
		Device:   "Built-in Microphone",
		Peak:     []float64{0.5, 0.25},
		RMS:      []float64{0.3, 0.1},
		Active:   true,
	}
	if err := wst.Send(sent); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got LevelReport
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if got.Sequence != 7 || got.Device != sent.Device || !got.Active {
		t.Errorf("received %+v, want %+v", got, sent)
	}
	if len(got.Peak) != 2 || got.Peak[1] != 0.25 {
		t.Errorf("Peak = %v, want %v", got.Peak, sent.Peak)
	}
}

func TestWebSocketClientDisconnect(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	defer wst.Close()

	conn := dialTestServer(t, wst)
	waitFor(t, func() bool { return wst.ClientCount() == 1 })

	conn.Close()
	waitFor(t, func() bool { return wst.ClientCount() == 0 })
}

func TestWebSocketStartAndClose(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	if err := wst.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if addr := wst.Addr(); strings.HasSuffix(addr, ":0") {
		t.Errorf("Addr() = %q, want bound port", addr)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return wst.ClientCount() == 1 })

	if err := wst.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if wst.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after Close", wst.ClientCount())
	}
	if err := wst.Send(LevelReport{}); err == nil {
		t.Error("Send after Close should fail")
	}
}

func TestWebSocketStalledClientDoesNotHoldLock(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	defer wst.Close()

	// Never read from this client so a large frame stalls on its socket.
	dialTestServer(t, wst)
	waitFor(t, func() bool { return wst.ClientCount() == 1 })

	if err := wst.Send(strings.Repeat("x", 64<<20)); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	counted := make(chan int, 1)
	go func() { counted <- wst.ClientCount() }()
	select {
	case <-counted:
	case <-time.After(wsWriteTimeout / 2):
		t.Fatal("ClientCount blocked behind a broadcast write")
	}
}

func TestWebSocketSendWithoutClients(t *testing.T) {
	wst := NewWebSocketTransport(":0")
	defer wst.Close()

	for i := 0; i < wsBroadcastQueue*2; i++ {
		if err := wst.Send(LevelReport{Sequence: uint32(i)}); err != nil {
			t.Fatalf("Send() error: %v", err)
		}
	}
}
