package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"presencekeeper/presence"
	"presencekeeper/tracer"
)

const (
	DefaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

	// DefaultHeartbeatLeeway is how much earlier than the server interval
	// heartbeats are sent.
	DefaultHeartbeatLeeway = 5 * time.Second

	clientName = "presencekeeper"
)

type State int32

const (
	StateConnecting State = iota
	StateAwaitingHello
	StateIdentifying
	StateActive
	StateClosed
)

var stateNames = [...]string{"connecting", "awaiting_hello", "identifying", "active", "closed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Keeper holds one gateway session open for one token. A Keeper runs once;
// it never reconnects.
type Keeper struct {
	Token     string
	Selection presence.Selection

	// GatewayURL defaults to DefaultGatewayURL.
	GatewayURL string
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
	// HeartbeatLeeway is only applied when the server interval is more
	// than twice as long.
	HeartbeatLeeway time.Duration
	Log             *zap.Logger
	Now             func() time.Time

	state      atomic.Int32
	username   atomic.String
	heartbeats atomic.Int64
	acks       atomic.Int64
}

func (k *Keeper) State() State      { return State(k.state.Load()) }
func (k *Keeper) Username() string  { return k.username.Load() }
func (k *Keeper) Heartbeats() int64 { return k.heartbeats.Load() }
func (k *Keeper) Acks() int64       { return k.acks.Load() }

func (k *Keeper) setState(s State) {
	k.state.Store(int32(s))
}

func (k *Keeper) setDefaults() {
	if k.GatewayURL == "" {
		k.GatewayURL = DefaultGatewayURL
	}
	if k.Dialer == nil {
		k.Dialer = websocket.DefaultDialer
	}
	if k.Log == nil {
		k.Log = zap.NewNop()
	}
	if k.Now == nil {
		k.Now = time.Now
	}
}

// message is what the select loop consumes: a frame, a heartbeat tick or
// a read error.
type message struct {
	event *discordgo.Event
	beat  bool
	err   error
}

type session struct {
	k        *Keeper
	conn     *websocket.Conn
	span     trace.Span
	msgs     chan message
	done     chan struct{}
	interval time.Duration
	seq      *int64
}

// Run connects, identifies and keeps the session alive until the
// connection ends or ctx is cancelled. It always returns a non-nil error.
func (k *Keeper) Run(ctx context.Context) (err error) {
	k.setDefaults()
	ctx, span := tracer.Start(ctx, "gateway.session")
	defer func() {
		k.setState(StateClosed)
		sessionsEnded.WithLabelValues(ErrorKind(err)).Inc()
		tracer.End(span, err)
	}()

	k.setState(StateConnecting)
	conn, err := k.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	s := &session{
		k:    k,
		conn: conn,
		span: span,
		msgs: make(chan message),
		done: make(chan struct{}),
	}
	defer close(s.done)
	go s.readFrames()

	k.setState(StateAwaitingHello)
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			return ctx.Err()
		case m := <-s.msgs:
			switch {
			case m.err != nil:
				return k.readError(m.err)
			case m.beat:
				if err := s.heartbeat(); err != nil {
					return err
				}
			default:
				if err := s.handle(m.event); err != nil {
					return err
				}
			}
		}
	}
}

func (k *Keeper) connect(ctx context.Context) (*websocket.Conn, error) {
	ctx, span := tracer.Start(ctx, "gateway.connect")
	conn, _, err := k.Dialer.DialContext(ctx, k.GatewayURL, nil)
	if err != nil {
		err = &ConnectError{URL: k.GatewayURL, Err: err}
	}
	tracer.End(span, err)
	return conn, err
}

func (k *Keeper) readError(err error) error {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return err
	}

	identifying := k.State() == StateIdentifying
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Code == closeAuthenticationFailed || identifying {
			return &AuthError{Reason: fmt.Sprintf("gateway closed with code %d", ce.Code), Err: err}
		}
		return &TransportClosed{Code: ce.Code, Reason: ce.Text, Err: err}
	}
	if identifying {
		return &AuthError{Reason: "connection dropped before ready", Err: err}
	}
	return &TransportClosed{Err: err}
}

func (s *session) readFrames() {
	for {
		var m message
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			m.err = err
		} else {
			e := &discordgo.Event{}
			if err := json.Unmarshal(data, e); err != nil {
				m.err = &ProtocolError{Reason: "malformed frame", Err: err}
			} else {
				m.event = e
			}
		}

		select {
		case s.msgs <- m:
		case <-s.done:
			return
		}
		if m.err != nil {
			return
		}
	}
}

func (s *session) tick(period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			select {
			case s.msgs <- message{beat: true}:
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

// heartbeatPeriod subtracts leeway from interval unless that would leave
// less than half the interval.
func heartbeatPeriod(interval, leeway time.Duration) time.Duration {
	if leeway > 0 && interval > 2*leeway {
		return interval - leeway
	}
	return interval
}

func (s *session) handle(e *discordgo.Event) error {
	k := s.k
	if k.State() == StateAwaitingHello {
		return s.hello(e)
	}

	switch e.Operation {
	case opDispatch:
		if e.Sequence != 0 {
			seq := e.Sequence
			s.seq = &seq
		}
		if e.Type == "READY" {
			return s.ready(e)
		}
	case opHeartbeat:
		return s.heartbeat()
	case opHeartbeatAck:
		k.acks.Inc()
		heartbeatAcks.Inc()
	case opReconnect:
		return &TransportClosed{Reason: "server requested reconnect"}
	case opInvalidSession:
		if k.State() == StateIdentifying {
			return &AuthError{Reason: "invalid session"}
		}
		return &TransportClosed{Reason: "session invalidated"}
	case opHello:
		return &ProtocolError{Reason: "duplicate hello"}
	default:
		k.Log.Debug("ignoring gateway op", zap.Int("op", e.Operation))
	}
	return nil
}

func (s *session) hello(e *discordgo.Event) error {
	if e.Operation != opHello {
		return &ProtocolError{Reason: fmt.Sprintf("expected hello, got op %d", e.Operation)}
	}
	var h hello
	if err := json.Unmarshal(e.RawData, &h); err != nil {
		return &ProtocolError{Reason: "malformed hello", Err: err}
	}
	if h.HeartbeatInterval <= 0 {
		return &ProtocolError{Reason: fmt.Sprintf("invalid heartbeat interval %d", h.HeartbeatInterval)}
	}
	s.interval = time.Duration(h.HeartbeatInterval) * time.Millisecond
	s.span.AddEvent("hello", trace.WithAttributes(
		attribute.Int64("heartbeat_interval_ms", h.HeartbeatInterval),
	))

	s.k.setState(StateIdentifying)
	err := s.write(opIdentify, identify{
		Token:   s.k.Token,
		Intents: Intents,
		Properties: identifyProperties{
			OS:      runtime.GOOS,
			Browser: clientName,
			Device:  clientName,
		},
	})
	if err != nil {
		return err
	}

	go s.tick(heartbeatPeriod(s.interval, s.k.HeartbeatLeeway))
	return nil
}

type ready struct {
	SessionID string          `json:"session_id"`
	User      *discordgo.User `json:"user"`
}

func (s *session) ready(e *discordgo.Event) error {
	k := s.k
	if k.State() != StateIdentifying {
		k.Log.Warn("ignoring READY outside of identify")
		return nil
	}

	var r ready
	if err := json.Unmarshal(e.RawData, &r); err != nil {
		return &ProtocolError{Reason: "malformed READY", Err: err}
	}
	if r.User != nil {
		k.username.Store(r.User.Username)
	}
	s.span.AddEvent("ready", trace.WithAttributes(attribute.String("username", k.Username())))

	since := k.Now().UnixMilli()
	err := s.write(opPresenceUpdate, presenceUpdate{
		Since:      &since,
		Activities: k.Selection.Activities(),
		Status:     k.Selection.Status,
		AFK:        false,
	})
	if err != nil {
		return err
	}
	presenceUpdates.Inc()
	k.setState(StateActive)
	k.line("🔑", "Authenticated", k.Selection.String())
	return nil
}

func (s *session) heartbeat() error {
	if err := s.write(opHeartbeat, s.seq); err != nil {
		return err
	}
	n := s.k.heartbeats.Inc()
	heartbeatsSent.Inc()
	s.k.line("💓", fmt.Sprintf("Sending Heartbeat %04d", n), fmt.Sprintf("%dms", s.interval.Milliseconds()))
	return nil
}

func (s *session) write(op int, data interface{}) error {
	if err := s.conn.WriteJSON(outbound{Op: op, Data: data}); err != nil {
		return &TransportClosed{Reason: fmt.Sprintf("failed to send op %d", op), Err: err}
	}
	return nil
}

func (k *Keeper) line(symbol, text, extra string) {
	k.Log.Info(FormatLine(symbol, text, k.Username(), extra))
}

// FormatLine lays out a session event in fixed columns:
// symbol, what happened, which account, details.
func FormatLine(symbol, text, username, extra string) string {
	if username == "" {
		username = "-"
	}
	return fmt.Sprintf("[%s] %25s %32s %s", symbol, text+" |", username+" |", extra)
}
