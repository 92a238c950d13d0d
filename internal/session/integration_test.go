package session

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/z0gSh1u/wscrab/internal/config"
	"github.com/z0gSh1u/wscrab/internal/console"
	"github.com/z0gSh1u/wscrab/internal/wsconn"
)

func TestEchoServerSession(t *testing.T) {
	upgrader := websocket.Upgrader{}
	pings := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		c.SetPingHandler(func(data string) error {
			pings <- data
			return c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		})
		for {
			mt, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if err := c.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	cfg := config.Config{
		URL:              "ws" + strings.TrimPrefix(srv.URL, "http"),
		HandshakeTimeout: 2 * time.Second,
	}
	conn, err := wsconn.Dial(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	var stdout, stderr bytes.Buffer
	printer := &Printer{Stdout: &stdout, Stderr: &stderr, Echo: true}
	input := console.NewPlain(strings.NewReader("hello world\n/ping marco\n"))
	s := New(conn, input, make(chan os.Signal), printer, Options{Slash: true, GracePeriod: 2 * time.Second})

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v (stderr %q)", err, stderr.String())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}

	select {
	case p := <-pings:
		if p != "marco" {
			t.Errorf("expected ping payload marco, got %q", p)
		}
	default:
		t.Error("server never saw the ping")
	}

	out := stdout.String()
	if !strings.Contains(out, "> hello world\n") || !strings.Contains(out, "< hello world\n") {
		t.Errorf("expected echoed round trip, got:\n%s", out)
	}
}
