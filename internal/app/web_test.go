package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestServer(t *testing.T) (*webServer, *httptest.Server, chan []byte) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	tuned := make(chan []byte, 1)
	s := &webServer{
		log: logrus.NewEntry(logger),
		tune: func(payload []byte) error {
			tuned <- payload
			return nil
		},
	}
	ts := httptest.NewServer(s.handler())
	t.Cleanup(ts.Close)
	return s, ts, tuned
}

func TestServeLatest(t *testing.T) {
	s, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/telemetry")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("empty telemetry status = %d", resp.StatusCode)
	}

	s.data.set(&s.data.telemetry, []byte(`{"tick":7}`))
	s.data.set(&s.data.tasks, []byte(`[]`))

	tests := []struct {
		path string
		want string
	}{
		{"/api/telemetry", `{"tick":7}`},
		{"/api/tasks", `[]`},
	}
	for _, tt := range tests {
		resp, err := http.Get(ts.URL + tt.path)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || string(body) != tt.want {
			t.Fatalf("%s = %d %q", tt.path, resp.StatusCode, body)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("%s content type %q", tt.path, ct)
		}
	}
}

func TestWebsocketStreamAndTune(t *testing.T) {
	s, ts, tuned := newTestServer(t)
	s.data.set(&s.data.gps, []byte(`{"Valid":true}`))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update wsUpdate
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatal(err)
	}
	if string(update.GPS) != `{"Valid":true}` || update.Telemetry != nil {
		t.Fatalf("update = %+v", update)
	}

	cmd := wsCommand{Action: "tune", Payload: json.RawMessage(`{"beacon":true}`)}
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-tuned:
		if string(got) != `{"beacon":true}` {
			t.Fatalf("forwarded %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tune command not forwarded")
	}
}
