package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// stackedDeck deals cards in the given order, the same for every round
func stackedDeck(cards string) Option {
	top := deck.MustParseCards(cards)
	return WithDeck(func() *deck.Deck { return deck.NewOrdered(top...) })
}

func startServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(testLogger(), opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, resp.Header.Get(SessionHeader)
}

func readMessage(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

func readSnapshot(t *testing.T, conn *websocket.Conn) game.Snapshot {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeSnapshot, msg.Type, "unexpected message: %s", msg.Data)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	return snap
}

func readError(t *testing.T, conn *websocket.Conn) ErrorData {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeError, msg.Type, "unexpected message: %s", msg.Data)
	var data ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	return data
}

func sendAction(t *testing.T, conn *websocket.Conn, requestID, action string, amount int) {
	t.Helper()
	msg, err := NewMessage(MessageTypeAction, ActionData{Action: action, Amount: amount})
	require.NoError(t, err)
	msg.RequestID = requestID
	require.NoError(t, conn.WriteJSON(msg))
}
