// Package server serves blackjack sessions over WebSocket. Each connection
// gets its own table and ledger; there is no shared state between players.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/sessionid"
)

// SessionHeader carries the session ID in the upgrade response
const SessionHeader = "X-Session-Id"

// Server represents the WebSocket server
type Server struct {
	upgrader websocket.Upgrader
	logger   *log.Logger
	clock    quartz.Clock
	ids      *sessionid.Generator

	idleTimeout     time.Duration
	startingBalance int
	policy          game.DealerPolicy
	seed            int64
	newDeck         func() *deck.Deck

	mu         sync.RWMutex
	sessions   map[*Session]bool
	created    int
	httpServer *http.Server
}

// Option configures a Server
type Option func(*Server)

// WithClock sets the clock used for idle timeouts
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithIdleTimeout closes sessions that send nothing for d; zero disables it
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idleTimeout = d }
}

// WithStartingBalance sets the balance each new session starts with
func WithStartingBalance(balance int) Option {
	return func(s *Server) { s.startingBalance = balance }
}

// WithSeed makes session decks reproducible; zero seeds from the clock
func WithSeed(seed int64) Option {
	return func(s *Server) { s.seed = seed }
}

// WithDealerPolicy sets the dealer policy for every table
func WithDealerPolicy(p game.DealerPolicy) Option {
	return func(s *Server) { s.policy = p }
}

// WithDeck replaces the random deck of every table, mainly so tests can
// stage hands
func WithDeck(newDeck func() *deck.Deck) Option {
	return func(s *Server) { s.newDeck = newDeck }
}

// NewServer creates a new WebSocket server
func NewServer(logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:          logger.WithPrefix("server"),
		clock:           quartz.NewReal(),
		ids:             sessionid.NewGenerator(nil),
		idleTimeout:     5 * time.Minute,
		startingBalance: 1000,
		policy:          game.DefaultDealerPolicy(),
		sessions:        make(map[*Session]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seed = randutil.Resolve(s.seed)
	return s
}

// Handler returns the HTTP handler serving /ws and /health
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Starting WebSocket server", "addr", addr, "idle_timeout", s.idleTimeout)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and closes every session
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	sessions := make([]*Session, 0, len(s.sessions))
	for session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		_ = session.Close()
	}
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// SessionCount returns the number of open sessions
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// handleWebSocket upgrades the request and starts a session
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := s.ids.New()
	header := http.Header{SessionHeader: []string{id}}

	conn, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	session := newSession(id, conn, s.newTable(id), s.clock, s.idleTimeout, s.logger)
	s.register(session)
	session.Start()

	go func() {
		<-session.Done()
		s.unregister(session)
	}()
}

func (s *Server) newTable(id string) *game.Table {
	s.mu.Lock()
	n := s.created
	s.created++
	s.mu.Unlock()

	opts := []game.TableOption{
		game.WithRNG(randutil.New(randutil.Derive(s.seed, n))),
		game.WithDealerPolicy(s.policy),
		game.WithLogger(s.logger.With("session", id)),
	}
	if s.newDeck != nil {
		opts = append(opts, game.WithDeck(s.newDeck))
	}
	return game.NewTable(game.NewLedger(s.startingBalance), opts...)
}

func (s *Server) register(session *Session) {
	s.mu.Lock()
	s.sessions[session] = true
	total := len(s.sessions)
	s.mu.Unlock()
	s.logger.Info("Client connected", "session", session.ID(), "total", total)
}

func (s *Server) unregister(session *Session) {
	s.mu.Lock()
	delete(s.sessions, session)
	total := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info("Client disconnected", "session", session.ID(), "total", total)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
