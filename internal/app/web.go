package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_computer/internal/config"
)

const (
	wsPushInterval = 100 * time.Millisecond
	wsWriteTimeout = time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsUpdate is pushed to websocket clients whenever something new arrived.
type wsUpdate struct {
	Telemetry json.RawMessage `json:"telemetry,omitempty"`
	Tasks     json.RawMessage `json:"tasks,omitempty"`
	GPS       json.RawMessage `json:"gps,omitempty"`
}

// wsCommand is a message from a websocket client.
type wsCommand struct {
	Action  string          `json:"action"` // "tune"
	Payload json.RawMessage `json:"payload,omitempty"`
}

// latest keeps the newest payload of each topic. Payloads are stored as
// received; the web server never decodes them.
type latest struct {
	mu        sync.RWMutex
	telemetry []byte
	tasks     []byte
	gps       []byte
	version   uint64
}

func (l *latest) set(dst *[]byte, payload []byte) {
	l.mu.Lock()
	*dst = append([]byte(nil), payload...)
	l.version++
	l.mu.Unlock()
}

func (l *latest) get(src *[]byte) []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return *src
}

func (l *latest) snapshot() (wsUpdate, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return wsUpdate{Telemetry: l.telemetry, Tasks: l.tasks, GPS: l.gps}, l.version
}

// webServer serves the latest flight data over HTTP and websocket.
type webServer struct {
	data latest
	log  *logrus.Entry

	// tune forwards a tuning message to the flight controller.
	tune func(payload []byte) error
}

func (s *webServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/telemetry", s.serveLatest(&s.data.telemetry))
	mux.HandleFunc("/api/tasks", s.serveLatest(&s.data.tasks))
	mux.HandleFunc("/api/gps", s.serveLatest(&s.data.gps))
	mux.HandleFunc("/ws", s.serveWS)
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

func (s *webServer) serveLatest(src *[]byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := s.data.get(src)
		if payload == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(payload); err != nil {
			s.log.Debugf("write error: %v", err)
		}
	}
}

// serveWS streams updates to the client and accepts tuning commands from it.
func (s *webServer) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go s.readCommands(conn, done)

	ticker := time.NewTicker(wsPushInterval)
	defer ticker.Stop()
	var sent uint64
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			update, version := s.data.snapshot()
			if version == sent {
				continue
			}
			sent = version
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(update); err != nil {
				s.log.Debugf("websocket write error: %v", err)
				return
			}
		}
	}
}

func (s *webServer) readCommands(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warnf("websocket error: %v", err)
			}
			return
		}
		switch cmd.Action {
		case "tune":
			if err := s.tune(cmd.Payload); err != nil {
				s.log.Warnf("tune forward failed: %v", err)
			}
		default:
			s.log.Debugf("unknown websocket action %q", cmd.Action)
		}
	}
}

// RunWeb serves the diagnostics UI until ctx is cancelled.
func RunWeb(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	log := logger.WithField("component", "web")

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "MQTT connect %s", cfg.MQTTBroker)
	}
	defer client.Disconnect(250)
	log.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	s := &webServer{log: log}
	s.tune = func(payload []byte) error {
		tok := client.Publish(cfg.TopicTuning, 1, false, payload)
		tok.Wait()
		return tok.Error()
	}

	subs := map[string]*[]byte{
		cfg.TopicTelemetry: &s.data.telemetry,
		cfg.TopicTasks:     &s.data.tasks,
		cfg.TopicGPS:       &s.data.gps,
	}
	for topic, dst := range subs {
		dst := dst
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			s.data.set(dst, msg.Payload())
		})
		token.Wait()
		if err := token.Error(); err != nil {
			return errors.Wrapf(err, "failed to subscribe to %s", topic)
		}
		log.Infof("subscribed to MQTT topic %s", topic)
	}

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.WebServerPort), Handler: s.handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("web server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "web server")
	}
	return nil
}
