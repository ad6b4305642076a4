package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"songsyncgo/internal/services/roomsync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrConnClosed = errors.New("connection closed")

// clientConn is one websocket client. Writes only ever happen on the
// writePump goroutine; everyone else queues through TrySend.
type clientConn struct {
	rawConn   *websocket.Conn
	send      chan []byte
	done      chan struct{}
	once      sync.Once
	writeWait time.Duration
}

var _ roomsync.Sink = (*clientConn)(nil)

func newClientConn(raw *websocket.Conn, queue int, writeWait time.Duration) *clientConn {
	return &clientConn{
		rawConn:   raw,
		send:      make(chan []byte, queue),
		done:      make(chan struct{}),
		writeWait: writeWait,
	}
}

// TrySend encodes msg and queues it without blocking.
func (c *clientConn) TrySend(msg roomsync.Message) error {
	data, err := encodeMessage(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return roomsync.ErrBackpressure
	}
}

// Close is safe to call more than once and from any goroutine.
func (c *clientConn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.rawConn.Close()
	})
}

func (c *clientConn) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.rawConn.WriteMessage(websocket.TextMessage, data); err != nil {
				zap.L().Debug("ws.write", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.rawConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Debug("ws.ping", zap.Error(err))
				return
			}
		}
	}
}

func encodeMessage(msg roomsync.Message) ([]byte, error) {
	return json.Marshal(outEnvelope{Event: msg.Event, Body: msg.Body})
}
