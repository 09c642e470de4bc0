// Package websocket delivers room notifications over WebSocket connections.
package websocket

import (
	"context"
	"log/slog"
	"roomhub/contract"
	"roomhub/errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var _ contract.Endpoint = (*Endpoint)(nil)

// Endpoint owns the write side of one connection. Notifications are queued
// on send and written by WritePump, the only goroutine writing data frames.
type Endpoint struct {
	conn      *websocket.Conn
	log       *slog.Logger
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	closeCode int
	closeText string
}

func NewEndpoint(conn *websocket.Conn, log *slog.Logger, bufferSize int) *Endpoint {
	return &Endpoint{
		conn:      conn,
		log:       log,
		send:      make(chan []byte, bufferSize),
		done:      make(chan struct{}),
		closeCode: websocket.CloseNormalClosure,
	}
}

// SendToTarget queues the payload, waiting for room in the queue until ctx expires.
func (e *Endpoint) SendToTarget(ctx context.Context, _ string, payload []byte) error {
	select {
	case <-e.done:
		return errors.ErrEndpointClosed
	default:
	}
	select {
	case e.send <- payload:
		return nil
	case <-e.done:
		return errors.ErrEndpointClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Endpoint) CloseTarget(_ string) error {
	e.closeWith(websocket.CloseNormalClosure, "")
	return nil
}

// Reject closes the connection with a policy violation and a reason.
func (e *Endpoint) Reject(reason string) {
	e.closeWith(websocket.ClosePolicyViolation, reason)
}

func (e *Endpoint) closeWith(code int, text string) {
	e.closeOnce.Do(func() {
		e.closeCode = code
		e.closeText = text
		close(e.done)
	})
}

// WritePump writes queued notifications and pings until the endpoint is
// closed or a write fails, then closes the connection.
func (e *Endpoint) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := e.conn.Close(); err != nil && !isExpectedCloseError(err) {
			e.log.Warn("Error closing connection", "error", err)
		}
	}()

	for {
		select {
		case message := <-e.send:
			if !e.write(websocket.TextMessage, message) {
				e.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-ticker.C:
			if !e.write(websocket.PingMessage, nil) {
				e.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-e.done:
			e.flush()
			deadline := time.Now().Add(writeWait)
			closeMessage := websocket.FormatCloseMessage(e.closeCode, e.closeText)
			if err := e.conn.WriteControl(websocket.CloseMessage, closeMessage, deadline); err != nil && !isExpectedCloseError(err) {
				e.log.Debug("Error writing close message", "error", err)
			}
			return
		}
	}
}

// flush writes what was queued before the endpoint got closed.
func (e *Endpoint) flush() {
	for {
		select {
		case message := <-e.send:
			if !e.write(websocket.TextMessage, message) {
				return
			}
		default:
			return
		}
	}
}

func (e *Endpoint) write(messageType int, data []byte) bool {
	if err := e.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		e.log.Warn("Error setting write deadline", "error", err)
		return false
	}
	if err := e.conn.WriteMessage(messageType, data); err != nil {
		if !isExpectedCloseError(err) {
			e.log.Warn("Error writing message", "error", err)
		}
		return false
	}
	return true
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
