// Package gatewaytest runs an in-process gateway that speaks just enough of
// the protocol to drive a Keeper, and records every frame clients send.
package gatewaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
)

// Identify decides how the server answers an identify.
type Identify int

const (
	// Accept answers with a READY dispatch.
	Accept Identify = iota
	// RejectInvalidSession answers with op 9.
	RejectInvalidSession
	// RejectClose closes with 4004, authentication failed.
	RejectClose
	// AcceptThenClose sends READY and closes normally once the presence
	// update arrives.
	AcceptThenClose
)

type Options struct {
	HeartbeatInterval time.Duration
	// HelloDelay holds hello back after the upgrade.
	HelloDelay time.Duration
	// Hello replaces the hello frame when set.
	Hello    []byte
	Identify Identify
	// RejectToken is closed with 4004 whatever Identify says.
	RejectToken string
	Username    string
	// AckHeartbeats answers every heartbeat with op 11.
	AckHeartbeats bool
}

// Frame is one message received from a client.
type Frame struct {
	Conn int             `json:"-"`
	Op   int             `json:"op"`
	Data json.RawMessage `json:"d"`
	At   time.Time       `json:"-"`
}

type Server struct {
	srv    *httptest.Server
	opts   Options
	frames chan Frame
	nextID atomic.Int64

	mu    sync.Mutex
	conns []*websocket.Conn
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func New(t testing.TB, opts Options) *Server {
	if opts.HeartbeatInterval == 0 {
		opts.HeartbeatInterval = time.Second
	}
	if opts.Username == "" {
		opts.Username = "presence-bot"
	}
	s := &Server{
		opts:   opts,
		frames: make(chan Frame, 4096),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// URL is the ws:// address of the server.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *Server) Close() {
	s.mu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.conns = nil
	s.mu.Unlock()
	s.srv.Close()
}

// Connections is the number of upgrades served so far.
func (s *Server) Connections() int {
	return int(s.nextID.Load())
}

// Next returns the next recorded frame or fails the test after timeout.
func (s *Server) Next(t testing.TB, timeout time.Duration) Frame {
	t.Helper()
	select {
	case f := <-s.frames:
		return f
	case <-time.After(timeout):
		t.Fatalf("no frame received within %s", timeout)
		return Frame{}
	}
}

// Collect gathers frames until d elapses.
func (s *Server) Collect(d time.Duration) []Frame {
	out := []Frame{}
	deadline := time.After(d)
	for {
		select {
		case f := <-s.frames:
			out = append(out, f)
		case <-deadline:
			return out
		}
	}
}

type conn struct {
	id int
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteJSON(v)
}

func (c *conn) sendRaw(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *conn) close(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(time.Second),
	)
	_ = c.ws.Close()
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, ws)
	s.mu.Unlock()

	c := &conn{id: int(s.nextID.Inc()), ws: ws}
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.read(c)
	}()

	if s.opts.HelloDelay > 0 {
		select {
		case <-time.After(s.opts.HelloDelay):
		case <-done:
			return
		}
	}
	if s.opts.Hello != nil {
		c.sendRaw(s.opts.Hello)
	} else {
		c.send(map[string]interface{}{
			"op": 10,
			"d":  map[string]interface{}{"heartbeat_interval": s.opts.HeartbeatInterval.Milliseconds()},
		})
	}
	<-done
}

func (s *Server) read(c *conn) {
	seq := 0
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		f := Frame{Conn: c.id, At: time.Now()}
		if err := json.Unmarshal(data, &f); err != nil {
			f.Op = -1
		}
		s.frames <- f

		switch f.Op {
		case 1:
			if s.opts.AckHeartbeats {
				c.send(map[string]interface{}{"op": 11})
			}
		case 2:
			var id struct {
				Token string `json:"token"`
			}
			_ = json.Unmarshal(f.Data, &id)
			if s.opts.RejectToken != "" && id.Token == s.opts.RejectToken {
				c.close(4004, "Authentication failed.")
				return
			}
			switch s.opts.Identify {
			case Accept, AcceptThenClose:
				seq++
				c.send(map[string]interface{}{
					"op": 0,
					"s":  seq,
					"t":  "READY",
					"d": map[string]interface{}{
						"v":          10,
						"session_id": fmt.Sprintf("session-%d", c.id),
						"user": map[string]interface{}{
							"id":       fmt.Sprint(c.id),
							"username": s.opts.Username,
						},
					},
				})
			case RejectInvalidSession:
				c.send(map[string]interface{}{"op": 9, "d": false})
			case RejectClose:
				c.close(4004, "Authentication failed.")
				return
			}
		case 3:
			if s.opts.Identify == AcceptThenClose {
				c.close(websocket.CloseNormalClosure, "bye")
				return
			}
		}
	}
}
