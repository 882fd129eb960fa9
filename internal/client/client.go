// Package client plays a remote blackjack session over WebSocket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/server"
)

// ErrClosed is returned for requests made after the connection has ended
var ErrClosed = errors.New("connection closed")

const writeWait = 10 * time.Second

// Client is a connection to one server session. Requests are answered in
// order; the client matches replies by request ID.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	logger    *log.Logger

	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu       sync.Mutex
	pending  map[string]chan *server.Message
	snapshot game.Snapshot

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// WebSocketURL converts a server address such as "localhost:8080" or
// "http://host:8080" to the session endpoint URL
func WebSocketURL(serverURL string) (string, error) {
	if !strings.Contains(serverURL, "://") {
		serverURL = "ws://" + serverURL
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL: missing host in %q", serverURL)
	}

	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	}
	return u.String(), nil
}

// Connect dials the server and waits for the opening snapshot
func Connect(ctx context.Context, serverURL string, logger *log.Logger) (*Client, error) {
	wsURL, err := WebSocketURL(serverURL)
	if err != nil {
		return nil, err
	}

	logger = logger.WithPrefix("client")
	logger.Info("Connecting to server", "url", wsURL)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Client{
		conn:      conn,
		sessionID: resp.Header.Get(server.SessionHeader),
		logger:    logger,
		pending:   make(map[string]chan *server.Message),
		done:      make(chan struct{}),
	}

	// the first message is always the session's initial state
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	var first server.Message
	if err := conn.ReadJSON(&first); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to read initial state: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	if first.Type != server.MessageTypeSnapshot {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: expected snapshot, got %s", server.ErrInvalidMessage, first.Type)
	}
	if err := json.Unmarshal(first.Data, &c.snapshot); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	go c.readPump()

	logger.Info("Connected", "session", c.sessionID, "balance", c.snapshot.Balance)
	return c, nil
}

// SessionID returns the ID the server assigned this session
func (c *Client) SessionID() string {
	return c.sessionID
}

// Snapshot returns the most recent table state received
func (c *Client) Snapshot() game.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended, once Done is closed
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Do performs an action and returns the resulting table state. Rejected
// actions return the server's unchanged state along with an error that
// matches the game package sentinels under errors.Is.
func (c *Client) Do(ctx context.Context, action game.Action, amount int) (game.Snapshot, error) {
	reply, err := c.request(ctx, server.MessageTypeAction, server.ActionData{Action: action.String(), Amount: amount})
	if err != nil {
		return c.Snapshot(), err
	}

	switch reply.Type {
	case server.MessageTypeSnapshot:
		var snap game.Snapshot
		if err := json.Unmarshal(reply.Data, &snap); err != nil {
			return c.Snapshot(), fmt.Errorf("failed to decode snapshot: %w", err)
		}
		c.setSnapshot(snap)
		return snap, nil
	case server.MessageTypeError:
		return c.replyError(reply)
	default:
		return c.Snapshot(), fmt.Errorf("%w: unexpected reply %s", server.ErrInvalidMessage, reply.Type)
	}
}

// History returns the rounds the server has recorded for this session
func (c *Client) History(ctx context.Context) ([]game.RoundRecord, game.Totals, error) {
	reply, err := c.request(ctx, server.MessageTypeHistory, nil)
	if err != nil {
		return nil, game.Totals{}, err
	}
	if reply.Type == server.MessageTypeError {
		_, err := c.replyError(reply)
		return nil, game.Totals{}, err
	}

	var data server.RoundsData
	if err := json.Unmarshal(reply.Data, &data); err != nil {
		return nil, game.Totals{}, fmt.Errorf("failed to decode rounds: %w", err)
	}
	return data.Records, data.Totals, nil
}

// Close ends the connection
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.writeMu.Unlock()

	c.shutdown(ErrClosed)
	return nil
}

func (c *Client) request(ctx context.Context, messageType server.MessageType, data any) (*server.Message, error) {
	var (
		msg *server.Message
		err error
	)
	if data == nil {
		msg = &server.Message{Type: messageType, Timestamp: time.Now()}
	} else if msg, err = server.NewMessage(messageType, data); err != nil {
		return nil, err
	}
	msg.RequestID = strconv.FormatUint(c.nextID.Add(1), 10)

	reply := make(chan *server.Message, 1)
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return nil, c.err
	}
	c.pending[msg.RequestID] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = c.conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", messageType, err)
	}

	select {
	case r := <-reply:
		return r, nil
	case <-c.done:
		return nil, c.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) replyError(reply *server.Message) (game.Snapshot, error) {
	var data server.ErrorData
	if err := json.Unmarshal(reply.Data, &data); err != nil {
		return c.Snapshot(), fmt.Errorf("failed to decode error: %w", err)
	}
	if data.Snapshot != nil {
		c.setSnapshot(*data.Snapshot)
	}
	c.logger.Debug("Request rejected", "code", data.Code, "message", data.Message)
	return c.Snapshot(), fmt.Errorf("%w: %s", server.CodeError(data.Code), data.Message)
}

func (c *Client) setSnapshot(snap game.Snapshot) {
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
}

// readPump routes replies to waiting requests
func (c *Client) readPump() {
	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("Connection lost", "error", err)
			}
			c.shutdown(fmt.Errorf("%w: %w", ErrClosed, err))
			return
		}

		c.mu.Lock()
		reply, ok := c.pending[msg.RequestID]
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("Dropping unsolicited message", "type", msg.Type, "request", msg.RequestID)
			continue
		}
		reply <- &msg
	}
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		_ = c.conn.Close()
		close(c.done)
	})
}
