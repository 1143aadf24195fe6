package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendChanBuf   = 256
	writeDeadline = 10 * time.Second
	readDeadline  = 60 * time.Second
	pingInterval  = 30 * time.Second // server-side WS ping
)

// Packet is the client-to-server WS envelope.
type Packet struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Session is one connected launcher client.
type Session struct {
	UserID  int64
	Conn    *websocket.Conn
	TraceID string
	LastSeq uint64

	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

// NewSession creates a Session and starts its writer when conn is non-nil.
func NewSession(userID int64, conn *websocket.Conn, logger *zap.Logger) *Session {
	s := &Session{
		UserID: userID,
		Conn:   conn,
		sendCh: make(chan []byte, sendChanBuf),
		done:   make(chan struct{}),
		logger: logger,
	}
	if conn != nil {
		go s.writePump()
	}
	return s
}

// writePump drains the send queue and pings the client to detect dead
// connections.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.Conn.Close()
	for {
		select {
		case data := <-s.sendCh:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("ws write error",
					zap.Int64("user_id", s.UserID),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send encodes v as JSON and queues it. Drops when the queue is full or the
// session is closed.
func (s *Session) Send(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.SendRaw(data)
}

// SendRaw queues an already encoded frame.
func (s *Session) SendRaw(data []byte) {
	if s.IsClosed() {
		return
	}
	select {
	case s.sendCh <- data:
	case <-s.done:
	default:
		s.logger.Warn("send queue full, dropping frame", zap.Int64("user_id", s.UserID))
	}
}

// Close signals the writer to shut down. Safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

// IsClosed reports whether Close was called.
func (s *Session) IsClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed when the session shuts down.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) setReadDeadline() {
	_ = s.Conn.SetReadDeadline(time.Now().Add(readDeadline))
}
