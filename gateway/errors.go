package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ConnectError means the gateway could not be reached. The session never
// started.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to gateway %s: %s", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// AuthError means the gateway rejected the identify.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %s", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProtocolError is a malformed or out of order frame.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %s", e.Reason, e.Err)
	}
	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// TransportClosed means the connection ended after the handshake.
type TransportClosed struct {
	Code   int
	Reason string
	Err    error
}

func (e *TransportClosed) Error() string {
	msg := "transport closed"
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportClosed) Unwrap() error { return e.Err }

// ErrorKind names the error class of a session result, for logs and
// metric labels.
func ErrorKind(err error) string {
	var (
		connErr  *ConnectError
		authErr  *AuthError
		protoErr *ProtocolError
		closed   *TransportClosed
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &connErr):
		return "connect"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &protoErr):
		return "protocol"
	case errors.As(err, &closed):
		return "transport_closed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "unknown"
}
