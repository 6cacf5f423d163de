package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeeshanhm/zara/internal/instrumentation"
	"github.com/zeeshanhm/zara/internal/logging"
	"github.com/zeeshanhm/zara/internal/session"
)

const (
	// DefaultAddr is the default listen address for the chat server.
	DefaultAddr = ":8000"

	// chatPath is the WebSocket endpoint path.
	chatPath = "/ws"

	// failureReply is sent to the client when the assistant cannot
	// produce an answer. The underlying error goes to the log only.
	failureReply = "Sorry, something went wrong while handling that. Please try again."
)

// Responder produces the assistant reply for one user message given the
// prior conversation. *agent.Agent satisfies it.
type Responder interface {
	Respond(ctx context.Context, history []session.Turn, input string) (string, error)
}

// inbound is one client frame.
type inbound struct {
	Message string `json:"message"`
}

// reply is a successful response frame.
type reply struct {
	Message string `json:"message"`
}

// fault is an error response frame.
type fault struct {
	Error string `json:"error"`
}

// Config holds chat server options.
type Config struct {
	// Addr is the listen address (default: DefaultAddr).
	Addr string

	// Logger for connection and message events. Defaults to slog.Default.
	Logger *slog.Logger

	// Metrics records message and session counts. May be nil.
	Metrics *instrumentation.Metrics
}

// ChatServer accepts WebSocket connections and relays messages between
// clients and the assistant. Each connection gets its own session; turns
// within a connection are handled strictly in order.
type ChatServer struct {
	responder Responder
	sessions  *session.Store
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
	health    *HealthChecker
	upgrader  websocket.Upgrader

	httpServer *http.Server
	addr       string
}

// New creates a ChatServer that answers messages through responder.
func New(responder Responder, config Config) *ChatServer {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &ChatServer{
		responder: responder,
		sessions:  session.NewStore(),
		logger:    logging.WithComponent(logger, "server"),
		metrics:   config.Metrics,
		health:    NewHealthChecker(),
		addr:      config.Addr,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Single-user assistant, no cross-origin policy to enforce.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return s
}

// Handler returns the HTTP handler serving the chat endpoint and the
// health probes.
func (s *ChatServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(chatPath, s.handleChat)
	s.health.RegisterEndpoints(mux)
	return mux
}

// Start runs the server until Shutdown is called or the listener fails.
func (s *ChatServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting chat server", slog.String("addr", s.addr), slog.String("path", chatPath))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen on %s: %w", s.addr, err)
	}
	return nil
}

// Shutdown stops accepting connections and drains the server. In-flight
// WebSocket connections are closed by the http.Server once the context
// expires.
func (s *ChatServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down chat server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *ChatServer) Addr() string {
	return s.addr
}

// ActiveSessions returns the number of live conversations.
func (s *ChatServer) ActiveSessions() int {
	return s.sessions.Active()
}

// handleChat upgrades the connection and runs the per-connection message
// loop until the client disconnects.
func (s *ChatServer) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	sess := s.sessions.Create(uuid.NewString())
	logger := logging.WithSession(s.logger, sess.ID)
	logger.Info("session started", slog.String("remote", r.RemoteAddr))

	s.metrics.IncrementActiveSessions(r.Context())
	defer func() {
		s.sessions.Delete(sess.ID)
		s.metrics.DecrementActiveSessions(r.Context())
		logger.Info("session ended", slog.Int("turns", sess.Len()))
	}()

	for {
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("connection closed unexpectedly", logging.Err(err))
			}
			return
		}
		if err := s.handleMessage(r.Context(), conn, sess, logger, in.Message); err != nil {
			// Write failed; the connection is gone.
			logger.Warn("writing response failed", logging.Err(err))
			return
		}
	}
}

// handleMessage runs one user turn: invoke the assistant with the prior
// conversation, record both turns on success, and answer on the same
// connection. Assistant failures are reported to the client but leave the
// session intact.
func (s *ChatServer) handleMessage(ctx context.Context, conn *websocket.Conn, sess *session.Session, logger *slog.Logger, text string) error {
	ctx, span := instrumentation.StartTurnSpan(ctx, sess.ID)
	start := time.Now()
	answer, err := s.responder.Respond(ctx, sess.Turns(), text)
	instrumentation.EndSpan(span, err)
	if err != nil {
		s.metrics.RecordMessage(ctx, logging.StatusError, time.Since(start))
		logger.Error("assistant failed", logging.Err(err))
		return conn.WriteJSON(fault{Error: failureReply})
	}

	sess.Append(session.RoleUser, text)
	sess.Append(session.RoleAssistant, answer)

	s.metrics.RecordMessage(ctx, logging.StatusSuccess, time.Since(start))
	logger.Debug("turn complete", slog.Duration("duration", time.Since(start)))
	return conn.WriteJSON(reply{Message: answer})
}
