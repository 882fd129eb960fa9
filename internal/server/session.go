package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Rounds retained per session for history requests
	historyLimit = 100
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// Session is one player's game over a WebSocket connection. It owns a table
// and ledger that live as long as the connection. All table access happens
// on the read goroutine.
type Session struct {
	id      string
	conn    *websocket.Conn
	send    chan *Message
	table   *game.Table
	history *game.RoundLog
	logger  *log.Logger

	clock       quartz.Clock
	idleTimeout time.Duration
	idle        *quartz.Timer

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newSession(id string, conn *websocket.Conn, table *game.Table, clock quartz.Clock, idleTimeout time.Duration, logger *log.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:          id,
		conn:        conn,
		send:        make(chan *Message, 64),
		table:       table,
		history:     game.NewRoundLog(historyLimit),
		logger:      logger.WithPrefix("session").With("id", id),
		clock:       clock,
		idleTimeout: idleTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
	table.EventBus().Subscribe(s.history)
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Done is closed once the session has ended
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Start arms the idle timer, sends the opening snapshot and begins pumping
// messages
func (s *Session) Start() {
	if s.idleTimeout > 0 {
		s.idle = s.clock.AfterFunc(s.idleTimeout, s.expire, "session", "idle")
	}
	s.sendSnapshot("")

	go s.writePump()
	go s.readPump()
}

// Close ends the session
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.idle != nil {
			s.idle.Stop()
		}
		s.cancel()
		close(s.send)
		err = s.conn.Close()
	})
	return err
}

// expire closes a session that has been idle for the full timeout
func (s *Session) expire() {
	s.logger.Info("Closing idle session", "timeout", s.idleTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "idle timeout")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = s.Close()
}

func (s *Session) touch() {
	if s.idle != nil {
		s.idle.Reset(s.idleTimeout, "session", "idle")
	}
}

// SendMessage queues a message for the client
func (s *Session) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("Attempted to send message on closed session", "error", r)
		}
	}()

	select {
	case s.send <- msg:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		s.logger.Warn("Session send buffer full, closing connection")
		_ = s.Close()
		return ErrConnectionClosed
	}
}

// readPump handles incoming messages from the client
func (s *Session) readPump() {
	defer func() {
		totals := s.history.Totals()
		s.logger.Info("Session ended", "rounds", totals.Rounds, "net", totals.Net, "balance", s.table.Ledger().Balance())
		_ = s.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		s.touch()

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError("", CodeInvalidMessage, "Failed to parse message")
			continue
		}
		s.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteJSON(message); err != nil {
				s.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// handleMessage processes one message from the client
func (s *Session) handleMessage(msg *Message) {
	s.logger.Debug("Received message", "type", msg.Type, "request", msg.RequestID)

	switch msg.Type {
	case MessageTypeAction:
		var data ActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.sendError(msg.RequestID, CodeInvalidMessage, "Failed to parse action data")
			return
		}
		s.handleAction(msg.RequestID, data)

	case MessageTypeHistory:
		s.sendRounds(msg.RequestID)

	default:
		s.sendError(msg.RequestID, CodeInvalidMessage, "Unknown message type: "+msg.Type.String())
	}
}

func (s *Session) handleAction(requestID string, data ActionData) {
	action, err := game.ParseAction(data.Action)
	if err != nil {
		s.sendError(requestID, CodeInvalidMessage, err.Error())
		return
	}

	if err := s.table.ProcessAction(action, data.Amount); err != nil {
		code := ErrorCode(err)
		s.logger.Debug("Action rejected", "action", action, "amount", data.Amount, "code", code, "error", err)
		s.sendError(requestID, code, err.Error())
		return
	}
	s.sendSnapshot(requestID)
}

func (s *Session) sendSnapshot(requestID string) {
	s.reply(requestID, MessageTypeSnapshot, s.table.Snapshot())
}

func (s *Session) sendRounds(requestID string) {
	s.reply(requestID, MessageTypeRounds, RoundsData{
		Records: s.history.Records(),
		Totals:  s.history.Totals(),
	})
}

func (s *Session) sendError(requestID, code, message string) {
	snap := s.table.Snapshot()
	s.reply(requestID, MessageTypeError, ErrorData{
		Code:     code,
		Message:  message,
		Snapshot: &snap,
	})
}

func (s *Session) reply(requestID string, messageType MessageType, data any) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		s.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	msg.RequestID = requestID
	if err := s.SendMessage(msg); err != nil {
		s.logger.Debug("Failed to queue message", "type", messageType, "error", err)
	}
}
